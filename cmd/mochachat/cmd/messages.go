package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	var peek bool

	c := &cobra.Command{
		Use:   "show <participant-id>",
		Short: "Print a conversation",
		Long: `Print the conversation with a participant, grouped by day.
Opening a conversation marks it as read unless --peek is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				chat, err := s.Chat(args[0])
				if err != nil {
					return err
				}
				printConversation(cmd.OutOrStdout(), s, chat, time.Now())
				if peek {
					return nil
				}
				_, err = s.MarkRead(ctx, args[0])
				return err
			})
		},
	}

	c.Flags().BoolVar(&peek, "peek", false, "Do not mark the conversation as read")
	return c
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <participant-id>",
		Short: "Mark a conversation as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				changed, err := s.MarkRead(ctx, args[0])
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintln(cmd.OutOrStdout(), "Marked as read.")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to mark.")
				}
				return nil
			})
		},
	}
}
