package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/nfrund/mochachat/internal/view"
	"github.com/spf13/cobra"
)

func newChatsCmd(opts *rootOptions) *cobra.Command {
	var search string

	c := &cobra.Command{
		Use:   "chats",
		Short: "List conversations, most recent first",
		Long: `List every conversation ordered by the time of its last message.

Examples:
  mochachat chats
  mochachat chats --search tech`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				chats := s.Chats(search)
				if len(chats) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No chats matching %q\n", search)
					return nil
				}
				rows := view.ChatRows(chats, s.Store(), s.Tracker().IsTyping, time.Now())
				printChatList(cmd.OutOrStdout(), rows)

				if total := s.Store().TotalUnread(); total > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "\n%s unread\n", view.Count(total, "message", "messages"))
				}
				return nil
			})
		},
	}

	c.Flags().StringVarP(&search, "search", "s", "", "Only show participants whose name contains this text")
	return c
}
