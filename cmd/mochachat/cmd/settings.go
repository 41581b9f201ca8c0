package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/spf13/cobra"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	c := &cobra.Command{
		Use:   "reset",
		Short: "Replace all conversations with fresh sample history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every conversation; pass --yes to confirm")
			}
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				s.ResetHistory(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Chat history reset.")
				return nil
			})
		},
	}

	c.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return c
}

func newThemeCmd(opts *rootOptions) *cobra.Command {
	theme := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the display mode",
	}

	theme.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the display mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
					fmt.Fprintln(cmd.OutOrStdout(), onOff(s.Store().DarkMode()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
					fmt.Fprintln(cmd.OutOrStdout(), onOff(s.ToggleDisplayMode(ctx)))
					return nil
				})
			},
		},
	)
	return theme
}
