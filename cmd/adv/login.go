package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/auth"
	"github.com/doree-nobuu/adventures/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "setup",
	Short:   "Unlock adv with your PIN for the next 24 hours",
	Long: `Unlock adv with the shared PIN. The login lasts 24 hours.

The PIN is read from --pin, from a prompt on an interactive terminal, or
from the first line of standard input. With --new-pin the PIN is changed
after a successful login.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, _ := cmd.Flags().GetString("pin")
		newPin, _ := cmd.Flags().GetString("new-pin")
		return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
			if pin == "" {
				var err error
				if pin, err = readPin("PIN"); err != nil {
					return err
				}
			}
			th := theme()
			if err := a.Gate.Verify(pin); err != nil {
				if errors.Is(err, auth.ErrWrongPin) {
					return fmt.Errorf("wrong PIN")
				}
				return err
			}
			fmt.Printf("%s Logged in until %s\n", th.Success.Render("✓"), a.Gate.ExpiresAt().Format(ui.DateLayout+" 15:04"))

			if newPin != "" {
				if err := a.Gate.SetPin(newPin); err != nil {
					return err
				}
				fmt.Printf("%s PIN changed\n", th.Success.Render("✓"))
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "setup",
	Short:   "End the login session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
			a.Gate.Logout()
			fmt.Printf("%s Logged out\n", theme().Success.Render("✓"))
			return nil
		})
	},
}

// readPin prompts for a PIN on a terminal and reads a line otherwise.
func readPin(title string) (string, error) {
	var pin string
	if isTerminal(os.Stdin) {
		err := huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&pin).
			Validate(auth.ValidatePin).
			Run()
		if err != nil {
			return "", err
		}
		return pin, nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().String("pin", "", "PIN (prompted for when omitted)")
	loginCmd.Flags().String("new-pin", "", "Change the PIN after logging in")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
