package cmd

import (
	"context"
	"fmt"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/spf13/cobra"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				u := s.Store().CurrentUser()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name:   %s\n", u.DisplayName)
				fmt.Fprintf(out, "Status: %s\n", u.StatusText)
				fmt.Fprintf(out, "Avatar: %s\n", u.AvatarRef)
				return nil
			})
		},
	}

	var name, status, avatar string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change your profile",
		Long: `Change fields of your profile. Fields not given keep their value.

Examples:
  mochachat profile set --name "Sam" --status "Out for lunch"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *app.Session) error {
				u := s.Store().CurrentUser()
				flags := cmd.Flags()
				if flags.Changed("name") {
					u.DisplayName = name
				}
				if flags.Changed("status") {
					u.StatusText = status
				}
				if flags.Changed("avatar") {
					u.AvatarRef = avatar
				}
				if err := s.UpdateProfile(ctx, u); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
				return nil
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "Display name")
	set.Flags().StringVar(&status, "status", "", "Status text")
	set.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")

	profile.AddCommand(show, set)
	return profile
}
