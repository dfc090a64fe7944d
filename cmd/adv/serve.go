package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/docdb"
	"github.com/doree-nobuu/adventures/internal/docserver"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the shared document server both partners sync through",
	Long: `Run a document server that two adv installations can share.

Point both clients at it with:

  [remote]
  driver = "http"
  url = "http://<host>:8787"
  token = "<server.token>"

Documents are kept in an SQLite database in the data directory and
uploaded photos in server.blob_dir. Clients subscribe over WebSocket and
receive the full collection after every change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = cfg.ServerPath()
		}

		db, err := docdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		server, err := docserver.NewServer(&docserver.Config{
			Port:    port,
			DB:      db,
			BlobDir: cfg.BlobDir(),
			Token:   cfg.Server.Token,
			Logger:  logs.Logger("docserver"),
		})
		if err != nil {
			return err
		}
		if err := server.Start(); err != nil {
			return err
		}

		th := theme()
		fmt.Printf("%s Document server listening on %s\n", th.Success.Render("✓"), server.GetAddr())
		fmt.Printf("   Database: %s\n", dbPath)
		fmt.Printf("   Blobs: %s\n", cfg.BlobDir())
		if cfg.Server.Token == "" {
			fmt.Printf("   %s no server.token set, anyone who can reach the port can read and write\n", th.Warn.Render("⚠"))
		}
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down document server...")
		return server.Stop()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: server.port)")
	serveCmd.Flags().String("db", "", "Document database path (default: server.db in the data directory)")
	rootCmd.AddCommand(serveCmd)
}
