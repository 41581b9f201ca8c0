package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/seed"
	"github.com/spf13/cobra"
)

const replyPollInterval = 50 * time.Millisecond

func newSendCmd(opts *rootOptions) *cobra.Command {
	var wait time.Duration

	c := &cobra.Command{
		Use:   "send <participant-id> <text>...",
		Short: "Send a message",
		Long: `Send a text message to a participant.

Replies arrive after a random delay. Without --wait the command exits right
after sending and any pending reply is dropped.

Examples:
  mochachat send 2 "are we still on for lunch?"
  mochachat send 5 hello everyone --wait 5s`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				msg, err := s.Send(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), s, msg, time.Now())
				return awaitReplies(ctx, cmd, s, args[0], msg.ID, wait)
			})
		},
	}

	c.Flags().DurationVarP(&wait, "wait", "w", 0, "How long to wait for a reply")
	return c
}

func newAttachCmd(opts *rootOptions) *cobra.Command {
	var wait time.Duration

	c := &cobra.Command{
		Use:       "attach <participant-id> <kind>",
		Short:     "Send an attachment placeholder",
		Long:      "Send an attachment. Kinds: " + strings.Join(seed.AttachmentKinds(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: seed.AttachmentKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				msg, err := s.SendAttachment(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), s, msg, time.Now())
				return awaitReplies(ctx, cmd, s, args[0], msg.ID, wait)
			})
		},
	}

	c.Flags().DurationVarP(&wait, "wait", "w", 0, "How long to wait for a reply")
	return c
}

// awaitReplies blocks until no reply is pending or wait elapses, then prints
// whatever arrived after the message sentID.
func awaitReplies(ctx context.Context, cmd *cobra.Command, s *app.Session, participantID, sentID string, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(replyPollInterval)
	defer tick.Stop()

poll:
	for s.PendingReplies() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			break poll
		case <-tick.C:
		}
	}

	chat, err := s.Chat(participantID)
	if err != nil {
		return err
	}
	replies := messagesAfter(chat, sentID)
	if len(replies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reply.")
		return nil
	}
	for _, m := range replies {
		printMessage(cmd.OutOrStdout(), s, m, time.Now())
	}
	return nil
}

func messagesAfter(c domain.Chat, id string) []domain.Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return c.Messages[i+1:]
		}
	}
	return nil
}
