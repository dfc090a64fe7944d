package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/auth"
	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/migrate"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "data",
	Short:   "Export every adventure, surprise, task and achievement",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		storage, _ := cmd.Flags().GetBool("storage")

		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if storage {
				if output == "" {
					return fmt.Errorf("--storage requires --output")
				}
				if err := migrate.WriteDump(a.Local(), output); err != nil {
					return err
				}
				fmt.Printf("%s Storage dump written to %s\n", theme().Success.Render("✓"), output)
				return nil
			}

			var w io.Writer = os.Stdout
			if output != "" {
				// #nosec G304 - controlled path from CLI
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeExport(w, format, a.Export())
		})
	},
}

func writeExport(w io.Writer, format string, data app.Export) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

var importCmd = &cobra.Command{
	Use:     "import <storage.json>",
	GroupID: "setup",
	Short:   "Import data saved by the web app's browser storage",
	Long: `Import a JSON dump of the web app's browser storage into the local
database. In the browser console run:

  copy(JSON.stringify(localStorage))

and save the clipboard to a file. Known keys (adventures, surprises,
tasks, achievements, id counters and the PIN) are validated and written;
anything else is skipped. Invalid records are reported and left out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		backup, _ := cmd.Flags().GetBool("backup")

		store, err := local.OpenSQLite(cfg.LocalPath(), logs.Logger("local"))
		if err != nil {
			return err
		}
		defer store.Close()

		gate := auth.NewGate(store, &auth.Config{Pin: cfg.Auth.Pin, Logger: logs.Logger("auth")})
		if !gate.Authenticated() {
			return errNotLoggedIn
		}

		opts := migrate.Options{From: args[0], DryRun: dryRun}
		if backup {
			opts.BackupDir = cfg.Data.Dir
		}
		result, err := migrate.Import(cmd.Context(), store, opts)
		if err != nil {
			return err
		}

		th := theme()
		verb := "Imported"
		if dryRun {
			verb = "Would import"
		}
		fmt.Printf("%s %s %d adventures, %d surprises, %d tasks, %d unlocked achievements\n",
			th.Success.Render("✓"), verb, result.Adventures, result.Surprises, result.Tasks, result.Achievements)
		if result.BackupCreated != "" {
			fmt.Printf("   Backup: %s\n", result.BackupCreated)
		}
		if len(result.KeysSkipped) > 0 {
			fmt.Printf("   Skipped keys: %s\n", strings.Join(result.KeysSkipped, ", "))
		}
		for _, e := range result.Errors {
			fmt.Printf("   %s %s\n", th.Warn.Render("⚠"), e)
		}
		if !dryRun && cfg.RemoteEnabled() {
			fmt.Println(th.Muted.Render("   Imported data is local; the remote store is unchanged."))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Output format (json, yaml)")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().Bool("storage", false, "Write a browser storage dump that 'adv import' reads back")

	importCmd.Flags().Bool("dry-run", false, "Show what would be imported without writing")
	importCmd.Flags().Bool("backup", true, "Save a dump of the current local data first")

	rootCmd.AddCommand(exportCmd, importCmd)
}
