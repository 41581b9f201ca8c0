package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/nfrund/mochachat/internal/chatstore"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/typing"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var metricsAddr string

	c := &cobra.Command{
		Use:   "chat <participant-id>",
		Short: "Open an interactive conversation",
		Long: `Open a conversation and type messages line by line.

Incoming replies are printed as they arrive. Commands inside the conversation:
  /attach <kind>   send an attachment (image, document, video, browse)
  /quit            leave the conversation

With --metrics-addr the Prometheus metrics of the session are served on
that address while the conversation is open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				if metricsAddr != "" {
					go func() {
						if err := s.Metrics().Serve(ctx, metricsAddr); err != nil {
							slog.Error("Metrics server stopped", "error", err)
						}
					}()
				}
				return runConversation(ctx, s, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics on this address, e.g. :9090")
	return c
}

// conversation prints to one writer from the input loop and the bus handlers.
type conversation struct {
	mu   sync.Mutex
	out  io.Writer
	seen map[string]bool
}

func (c *conversation) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// markSeen records ids and reports which messages were new.
func (c *conversation) markSeen(msgs []domain.Message) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fresh []domain.Message
	for _, m := range msgs {
		if !c.seen[m.ID] {
			c.seen[m.ID] = true
			fresh = append(fresh, m)
		}
	}
	return fresh
}

func runConversation(ctx context.Context, s *app.Session, participantID string, in io.Reader, out io.Writer) error {
	chat, err := s.Chat(participantID)
	if err != nil {
		return err
	}

	conv := &conversation{out: out, seen: make(map[string]bool)}
	conv.markSeen(chat.Messages)
	printConversation(out, s, chat, time.Now())
	if _, err := s.MarkRead(ctx, participantID); err != nil {
		return err
	}

	err = s.Subscribe(ctx, func(ev chatstore.StateChanged) {
		if ev.Reason != chatstore.ReasonMessageAdded || ev.ChatID != chat.ID {
			return
		}
		for _, c := range ev.Snapshot.Chats {
			if c.ID != chat.ID {
				continue
			}
			for _, m := range conv.markSeen(c.Messages) {
				if m.FromLocalUser() {
					continue
				}
				conv.mu.Lock()
				printMessage(out, s, m, time.Now())
				conv.mu.Unlock()
			}
		}
		if _, err := s.MarkRead(ctx, participantID); err != nil {
			slog.Debug("Failed to mark conversation read", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to chat updates: %w", err)
	}

	err = s.SubscribeTyping(ctx, participantID, func(ev typing.Event) {
		if ev.IsTyping {
			conv.printf("  typing...\n")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to typing updates: %w", err)
	}

	composer := s.Composer(participantID)
	defer composer.Close()

	conv.printf("\nType a message and press enter. /quit to leave.\n")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		composer.Update(line)

		switch {
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/attach "):
			msg, err := s.SendAttachment(ctx, participantID, strings.TrimSpace(strings.TrimPrefix(line, "/attach ")))
			if err != nil {
				conv.printf("! %v\n", err)
				continue
			}
			conv.markSeen([]domain.Message{msg})
		default:
			msg, err := s.Send(ctx, participantID, line)
			if errors.Is(err, domain.ErrEmptyMessage) {
				continue
			}
			if err != nil {
				return err
			}
			conv.markSeen([]domain.Message{msg})
		}
		composer.Update("")
	}
	return scanner.Err()
}
