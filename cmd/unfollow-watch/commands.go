package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PatrickWalther/unfollow-watch-go/internal/app"
	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
	"github.com/PatrickWalther/unfollow-watch-go/internal/util"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one detection cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				result, ran, err := a.Refresh(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printCycle(cmd, result, ran)
				return nil
			})
		},
	}
}

func printCycle(cmd *cobra.Command, result detector.Result, ran bool) {
	out := cmd.OutOrStdout()
	switch {
	case !ran:
		fmt.Fprintln(out, "A check is already in progress.")
	case result.Quiescent:
		fmt.Fprintln(out, "No credential saved. Run `login` first.")
	case result.FirstRun:
		fmt.Fprintf(out, "Baseline saved with %s followers.\n", util.FormatNumber(result.Followers))
	case len(result.Unfollowers) == 0:
		fmt.Fprintf(out, "No unfollowers. You have %s followers.\n", util.FormatNumber(result.Followers))
	default:
		fmt.Fprintf(out, "%d unfollower(s) since the last check:\n", len(result.Unfollowers))
		for _, f := range result.Unfollowers {
			fmt.Fprintf(out, "  %s\t%s\n", f.Login, f.ProfileURL)
		}
		for _, login := range result.AutoUnfollowed {
			fmt.Fprintf(out, "Automatically unfollowed %s\n", login)
		}
	}
}

func newFollowersCmd(opts *rootOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "followers",
		Short: "List your followers and whether you follow them back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				var (
					followers []models.FollowerStatus
					err       error
				)
				if query != "" {
					followers, err = a.SearchFollowers(ctx, query)
				} else {
					followers, err = a.FetchFollowers(ctx)
				}
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), followers)
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "LOGIN\tFOLLOWS BACK\tPROFILE")
				for _, f := range followers {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Login, yesNo(f.FollowsBack), f.ProfileURL)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "Filter followers by login")
	return cmd
}

func newFollowingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "following",
		Short: "List the accounts you follow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				following, err := a.FetchFollowing(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), following)
				}
				return printFollowers(cmd, following)
			})
		},
	}
}

func printFollowers(cmd *cobra.Command, followers []models.Follower) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "LOGIN\tPROFILE")
	for _, f := range followers {
		fmt.Fprintf(tw, "%s\t%s\n", f.Login, f.ProfileURL)
	}
	return tw.Flush()
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show your profile details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				user, err := a.FetchUserDetails(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), user)
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "Login:\t%s\n", user.Login)
				if user.Name != "" {
					fmt.Fprintf(tw, "Name:\t%s\n", user.Name)
				}
				fmt.Fprintf(tw, "Profile:\t%s\n", user.ProfileURL)
				fmt.Fprintf(tw, "Followers:\t%s\n", util.FormatNumber(user.Followers))
				fmt.Fprintf(tw, "Following:\t%s\n", util.FormatNumber(user.Following))
				fmt.Fprintf(tw, "Public repos:\t%s\n", util.FormatNumber(user.PublicRepos))
				fmt.Fprintf(tw, "Total stars:\t%s\n", util.FormatNumber(user.TotalStars))
				if !user.CreatedAt.IsZero() {
					fmt.Fprintf(tw, "Joined:\t%s\n", user.CreatedAt.Local().Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	}
}

func newUnfollowersCmd(opts *rootOptions) *cobra.Command {
	var countOnly bool
	cmd := &cobra.Command{
		Use:   "unfollowers",
		Short: "Show the unfollowers found by the last check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if countOnly {
					n, err := a.GetUnfollowersCount()
					if err != nil {
						return err
					}
					if opts.jsonOutput {
						return printJSON(out, map[string]int{"count": n})
					}
					fmt.Fprintln(out, n)
					return nil
				}

				rec, err := a.GetUnfollowers()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(out, rec)
				}
				if len(rec.Unfollowers) == 0 {
					fmt.Fprintln(out, "No unfollowers recorded.")
					return nil
				}
				fmt.Fprintf(out, "Recorded %s:\n", util.FormatTimeAgo(rec.LastChecked))
				return printFollowers(cmd, rec.Unfollowers)
			})
		},
	}
	cmd.Flags().BoolVar(&countOnly, "count", false, "Print only the number of unfollowers")
	return cmd
}

func newFollowCmd(opts *rootOptions, follow bool) *cobra.Command {
	use, short, done := "follow", "Follow a user", "Now following"
	if !follow {
		use, short, done = "unfollow", "Unfollow a user", "Unfollowed"
	}

	return &cobra.Command{
		Use:   use + " <login>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				action := a.Follow
				if !follow {
					action = a.Unfollow
				}
				if err := action(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, args[0])
				return nil
			})
		},
	}
}

func newVisualizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "visualize",
		Short: "Show growth, top repositories, activity and languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				data, err := a.GetVisualizationData(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), data)
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "Total stars:\t%s\n", util.FormatNumber(data.TotalStars))
				fmt.Fprintf(tw, "Repositories:\t%s\n\n", util.FormatNumber(data.TotalRepos))

				fmt.Fprintln(tw, "FOLLOWERS (DAILY)\tCOUNT\tCHANGE")
				for i, p := range data.FollowersDaily {
					change := ""
					if i > 0 && i-1 < len(data.FollowersDailyGainLoss) {
						change = util.FormatSigned(data.FollowersDailyGainLoss[i-1].Count)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Period, util.FormatNumber(p.Count), change)
				}

				fmt.Fprintln(tw, "\nSTARS (MONTHLY)\tCOUNT\tCHANGE")
				for i, p := range data.StarsMonthly {
					change := ""
					if i > 0 && i-1 < len(data.StarsMonthlyGainLoss) {
						change = util.FormatSigned(data.StarsMonthlyGainLoss[i-1].Count)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Period, util.FormatNumber(p.Count), change)
				}

				fmt.Fprintln(tw, "\nTOP REPOSITORIES\tSTARS\tLANGUAGE")
				for _, r := range data.TopRepos {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, util.FormatNumber(r.Stars), r.Language)
				}

				fmt.Fprintln(tw, "\nMOST ACTIVE DAYS\tEVENTS\t")
				for _, d := range data.MostActiveDays {
					fmt.Fprintf(tw, "%s\t%d\t\n", d.Date, d.Events)
				}

				fmt.Fprintln(tw, "\nLANGUAGES\tREPOS\t")
				for _, l := range data.Languages {
					fmt.Fprintf(tw, "%s\t%d\t\n", l.Language, l.Repos)
				}
				return tw.Flush()
			})
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently sent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				entries, err := a.NotificationHistory(limit)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notifications sent yet.")
					return nil
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "WHEN\tPROVIDER\tSTATUS\tMESSAGE")
				for _, e := range entries {
					status := e.Status
					if e.Error != "" {
						status += ": " + e.Error
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", util.FormatTimeAgo(e.CreatedAt), e.Provider, status, e.Message)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", notifications.DefaultHistoryLimit, "Maximum number of entries")
	return cmd
}

func newTestNotificationCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notification",
		Short: "Send a test notification through every configured provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				sent, err := a.TestNotification(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent through %d provider(s).\n", sent)
				return nil
			})
		},
	}
}

func formatInterval(minutes int) string {
	return util.FormatDuration(time.Duration(minutes) * time.Minute)
}
