package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PatrickWalther/unfollow-watch-go/internal/app"
	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/logger"
	"github.com/PatrickWalther/unfollow-watch-go/internal/version"
)

type rootOptions struct {
	configFile string
	debug      bool
	jsonOutput bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Watches your GitHub followers and tells you who unfollowed",
		Version:       version.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupBasic(opts.debug)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to config.yaml (default: search the usual locations)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print command output as JSON")
	flags.String("data-dir", "", "Directory holding credentials, snapshots and settings")
	flags.String("log-level", "", "Console log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("host", "", "Web API listen host")
	flags.Int("port", 0, "Web API listen port")
	flags.Bool("no-web", false, "Disable the web API")

	root.AddCommand(
		newRunCmd(opts),
		newLoginCmd(opts),
		newCheckCmd(opts),
		newFollowersCmd(opts),
		newFollowingCmd(opts),
		newUserCmd(opts),
		newUnfollowersCmd(opts),
		newFollowCmd(opts, true),
		newFollowCmd(opts, false),
		newSettingsCmd(opts),
		newVisualizeCmd(opts),
		newHistoryCmd(opts),
		newTestNotificationCmd(opts),
		newInitConfigCmd(),
		newVersionCmd(),
	)

	return root
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.debug {
		cfg.Logger.ConsoleLevel = "DEBUG"
		cfg.Logger.FileLevel = "DEBUG"
	}
	return cfg, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the watcher with its schedulers and web API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			log, err := logger.Setup(cfg.DataDir, constants.AppName, cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer log.Close()

			slog.Info(constants.AppTitle, "version", version.Version)

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if ok, username := a.CheckCredential(); ok {
				slog.Info("Watching followers", "username", username)
			} else {
				slog.Warn("No credential saved, detection stays idle until one is added", "hint", constants.AppName+" login")
			}

			return a.Run(cmd.Context())
		},
	}
}

// withApp builds a short-lived App for one-shot commands. The web API is
// never started for them.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg.Web.Enabled = false

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a sample config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteSample(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", constants.AppName, version.Version)
		},
	}
}
