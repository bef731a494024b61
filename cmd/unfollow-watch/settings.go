package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PatrickWalther/unfollow-watch-go/internal/app"
	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}
	cmd.AddCommand(newSettingsGetCmd(opts), newSettingsSetCmd(opts), newSettingsResetCmd(opts))
	return cmd
}

func newSettingsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				s, err := a.LoadSettings()
				if err != nil {
					return err
				}
				return printSettings(cmd, opts, s)
			})
		},
	}
}

func newSettingsSetCmd(opts *rootOptions) *cobra.Command {
	var values settings.Settings
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Example: "  unfollow-watch settings set --interval 10 --auto-unfollow\n" +
			"  unfollow-watch settings set --notifications=false",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := patchFromFlags(cmd, values)
			if patch.IsEmpty() {
				return fmt.Errorf("no settings given, see --help")
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				s, err := a.SaveSettings(patch)
				if err != nil {
					return err
				}
				return printSettings(cmd, opts, s)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&values.RefreshIntervalMinutes, "interval", 0, "Refresh interval in minutes (1-1440)")
	f.BoolVar(&values.NotificationsEnabled, "notifications", false, "Enable notifications")
	f.BoolVar(&values.CloseToTray, "close-to-tray", false, "Keep running in the tray when the window closes")
	f.StringVar(&values.Theme, "theme", "", "UI theme")
	f.StringVar(&values.AccentColor, "accent-color", "", "UI accent color, #rrggbb")
	f.BoolVar(&values.AutoUnfollow, "auto-unfollow", false, "Unfollow accounts that unfollow you")
	return cmd
}

// patchFromFlags turns only the flags given on the command line into a patch.
func patchFromFlags(cmd *cobra.Command, values settings.Settings) settings.Patch {
	full := values.ToPatch()
	var p settings.Patch

	f := cmd.Flags()
	if f.Changed("interval") {
		p.RefreshIntervalMinutes = full.RefreshIntervalMinutes
	}
	if f.Changed("notifications") {
		p.NotificationsEnabled = full.NotificationsEnabled
	}
	if f.Changed("close-to-tray") {
		p.CloseToTray = full.CloseToTray
	}
	if f.Changed("theme") {
		p.Theme = full.Theme
	}
	if f.Changed("accent-color") {
		p.AccentColor = full.AccentColor
	}
	if f.Changed("auto-unfollow") {
		p.AutoUnfollow = full.AutoUnfollow
	}
	return p
}

func newSettingsResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				s, err := a.ResetSettings()
				if err != nil {
					return err
				}
				return printSettings(cmd, opts, s)
			})
		},
	}
}

func printSettings(cmd *cobra.Command, opts *rootOptions, s settings.Settings) error {
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), s)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Refresh interval:\t%s\n", formatInterval(s.RefreshIntervalMinutes))
	fmt.Fprintf(tw, "Notifications:\t%s\n", yesNo(s.NotificationsEnabled))
	fmt.Fprintf(tw, "Auto-unfollow:\t%s\n", yesNo(s.AutoUnfollow))
	fmt.Fprintf(tw, "Close to tray:\t%s\n", yesNo(s.CloseToTray))
	fmt.Fprintf(tw, "Theme:\t%s\n", s.Theme)
	fmt.Fprintf(tw, "Accent color:\t%s\n", s.AccentColor)
	return tw.Flush()
}
