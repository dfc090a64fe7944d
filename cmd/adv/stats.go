package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "data",
	Short:   "Show adventure statistics and streaks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			fmt.Println(theme().Stats(a.Stats()))
			return nil
		})
	},
}

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	GroupID: "data",
	Short:   "Show achievements, unlocked and still to earn",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			th := theme()
			all := a.Tracker.All()
			fmt.Printf("%s %d/%d unlocked\n\n", th.Title.Render("Achievements"), len(a.Tracker.Unlocked()), len(all))
			for _, ach := range all {
				fmt.Println(th.Achievement(ach))
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync mode, storage locations and login state",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
			th := theme()
			fmt.Println(th.Status(a.Session.Status()))
			fmt.Println()

			configFile := cfgUsed
			if configFile == "" {
				configFile = "(defaults)"
			}
			fmt.Printf("   Config: %s\n", configFile)
			fmt.Printf("   Local: %s\n", cfg.LocalPath())
			if cfg.RemoteEnabled() {
				fmt.Printf("   Remote: %s %s\n", cfg.Remote.Driver, cfg.Remote.URL)
			}
			fmt.Printf("   Adventures: %d\n", a.Adventures.Len())
			fmt.Printf("   Surprises: %d\n", a.Surprises.Len())
			fmt.Printf("   Tasks: %d\n", a.Tasks.Len())

			if a.Gate.Authenticated() {
				fmt.Printf("   Login: %s until %s\n", th.Success.Render("active"), a.Gate.ExpiresAt().Format(ui.DateLayout+" 15:04"))
			} else {
				fmt.Printf("   Login: %s\n", th.Warn.Render("logged out"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, achievementsCmd, statusCmd)
}
