package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/dashboard"
	"github.com/doree-nobuu/adventures/internal/notify"
	"github.com/doree-nobuu/adventures/internal/watch"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Start a live WebSocket feed of adventures, stats and achievements",
	Long: `Start a WebSocket dashboard server that pushes live state to viewers.

Every connected client first receives the current state and then a new
message after every change:
- status: sync mode and connection message
- adventures, surprises, tasks: the full collection
- stats: recomputed statistics
- achievement: a newly unlocked achievement

In local-only mode the dashboard also follows the local database, so edits
made with other adv commands show up right away.

Example usage:
  adv dashboard                   # Start on dashboard.port (8080)
  adv dashboard --port 9000       # Start on custom port

Connect with a WebSocket client:
  ws://localhost:8080/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Dashboard.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		var a *app.App
		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Mode:   func() string { return a.Session.Mode().String() },
			Logger: logs.Logger("dashboard"),
		})
		handler := dashboard.NewHandler(server, logs.Logger("dashboard"))

		a, err := openApp(notify.Multi{app.DefaultNotifier(cfg, logs), handler})
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Gate.Authenticated() {
			return errNotLoggedIn
		}
		if err := a.Start(cmd.Context()); err != nil {
			return err
		}
		handler.Attach(a)
		defer handler.Detach()

		watcher, err := watch.New(&watch.Config{
			Dir:    filepath.Dir(cfg.LocalPath()),
			Files:  []string{filepath.Base(cfg.LocalPath()), filepath.Base(cfg.LocalPath()) + "-wal"},
			Logger: logs.Logger("watch"),
		}, a.Reload)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		addr := server.GetAddr()
		fmt.Printf("Dashboard server started on http://%s\n", addr)
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", addr)
		fmt.Printf("Health check: http://%s/health\n", addr)
		fmt.Println(theme().Status(a.Session.Status()))
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}
		fmt.Println("Dashboard server stopped")
		return nil
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: dashboard.port)")
	rootCmd.AddCommand(dashboardCmd)
}
