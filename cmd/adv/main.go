// Command adv is the couple's adventure tracker.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/config"
	"github.com/doree-nobuu/adventures/internal/logging"
	"github.com/doree-nobuu/adventures/internal/notify"
	"github.com/doree-nobuu/adventures/internal/ui"
)

var (
	configPath string
	noColor    bool

	cfg     *config.Config
	cfgUsed string
	logs    *logging.Factory
)

var rootCmd = &cobra.Command{
	Use:           "adv",
	Short:         "Track the adventures you plan and share together",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `adv keeps a shared bucket list of adventures, photo surprises and
achievements for two partners.

Data lives in a local database. When a remote store is configured
(remote.driver = "http" or "libsql") every change is written there and
both partners see each other's edits live. If the remote store fails, adv
falls back to the local database for the rest of the session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, used, err := config.Load(configPath)
		if err != nil {
			return err
		}
		f, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		cfg, cfgUsed, logs = c, used, f
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search for adv.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Adventures:"},
		&cobra.Group{ID: "sync", Title: "Sync & serving:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func theme() *ui.Theme {
	return ui.NewTheme(os.Stdout, !noColor && isTerminal(os.Stdout))
}

// openApp builds the application without starting it.
func openApp(notifier notify.Notifier) (*app.App, error) {
	return app.New(cfg, app.Options{Logs: logs, Notifier: notifier})
}

// withApp starts the application, runs fn and closes the application
// again. Commands that read or change shared data pass requireLogin.
func withApp(cmd *cobra.Command, requireLogin bool, fn func(ctx context.Context, a *app.App) error) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	if requireLogin && !a.Gate.Authenticated() {
		return errNotLoggedIn
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
