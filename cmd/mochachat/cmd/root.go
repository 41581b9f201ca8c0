package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/nfrund/mochachat/internal/config"
	"github.com/nfrund/mochachat/internal/logging"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the resolved configuration
// shared by every subcommand.
type rootOptions struct {
	configPath string
	dataDir    string
	storage    string
	cfg        config.Config
}

// NewRootCmd builds the mochachat command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mochachat",
		Short: "Simulated chat client",
		Long: `mochachat is a terminal chat client talking to simulated participants.

Conversations, read state and preferences are kept on disk between runs.
Remote participants answer most messages after a short random delay.

Use "mochachat [command] --help" for more information about a command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = opts.dataDir
			}
			if cmd.Flags().Changed("storage") {
				cfg.Storage = opts.storage
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
			opts.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the chat state (overrides MOCHA_DATA_DIR)")
	flags.StringVar(&opts.storage, "storage", "", "Storage backend: file, pebble or memory (overrides MOCHA_STORAGE)")

	root.AddCommand(
		newChatsCmd(opts),
		newShowCmd(opts),
		newSendCmd(opts),
		newAttachCmd(opts),
		newReadCmd(opts),
		newProfileCmd(opts),
		newResetCmd(opts),
		newThemeCmd(opts),
		newChatCmd(opts),
		newTopicsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute executes the root command
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// withSession opens a session for the duration of fn and closes it after.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *app.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := app.NewSession(ctx, o.cfg, app.WithVersion(version))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	err = fn(ctx, s)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
