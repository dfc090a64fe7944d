package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Create or show the adv configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default adv.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.Write(path, config.Default(), force); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", theme().Success.Render("✓"), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")
		shown := *cfg
		if !reveal {
			shown.Remote.Token = mask(shown.Remote.Token)
			shown.Server.Token = mask(shown.Server.Token)
			shown.Auth.Pin = mask(shown.Auth.Pin)
		}
		if cfgUsed != "" {
			fmt.Printf("# %s\n", cfgUsed)
		} else {
			fmt.Println("# no config file found, showing defaults")
		}
		return toml.NewEncoder(os.Stdout).Encode(shown)
	},
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configShowCmd.Flags().Bool("reveal", false, "Show tokens and the PIN")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
