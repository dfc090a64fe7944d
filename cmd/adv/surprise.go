package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/types"
)

var surpriseCmd = &cobra.Command{
	Use:     "surprise",
	Aliases: []string{"s"},
	GroupID: "data",
	Short:   "Leave photo surprises for each other",
}

var surpriseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List surprises",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hidden, _ := cmd.Flags().GetBool("hidden")
		forFlag, _ := cmd.Flags().GetString("for")
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			list := a.Surprises.List()
			if forFlag != "" {
				p, err := types.ParsePartner(forFlag)
				if err != nil {
					return err
				}
				list = a.Surprises.For(p)
			}
			th := theme()
			n := 0
			for _, s := range list {
				if hidden && s.Revealed {
					continue
				}
				fmt.Println(th.SurpriseLine(s))
				n++
			}
			if n == 0 {
				fmt.Println(th.Muted.Render("No surprises here."))
			}
			return nil
		})
	},
}

var surpriseAddCmd = &cobra.Command{
	Use:   "add <url-or-file>",
	Short: "Leave a photo surprise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := partnerFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := partnerFlag(cmd, "to")
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		photo, err := photoSource(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			s, err := a.Surprises.Create(ctx, photo, from, to, message)
			if err != nil {
				return err
			}
			fmt.Printf("%s Surprise #%d left for %s\n", theme().Success.Render("🎁"), s.ID, s.To.Label())
			return nil
		})
	},
}

var surpriseRevealCmd = &cobra.Command{
	Use:   "reveal <id>",
	Short: "Reveal a surprise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			s, err := a.Surprises.Reveal(ctx, id)
			if err != nil {
				return err
			}
			th := theme()
			fmt.Println(th.SurpriseLine(s))
			fmt.Println(th.Muted.Render(s.Photo))
			return nil
		})
	},
}

var surpriseRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a surprise",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if err := a.Surprises.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("%s Deleted surprise #%d\n", theme().Success.Render("✓"), id)
			return nil
		})
	},
}

var surpriseCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>",
	Short: "Comment on a surprise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		author, err := partnerFlag(cmd, "by")
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			c, err := a.Surprises.AddComment(ctx, id, args[1], author)
			if err != nil {
				return err
			}
			fmt.Printf("%s Comment %s added\n", theme().Success.Render("✓"), c.ID)
			return nil
		})
	},
}

func init() {
	surpriseListCmd.Flags().Bool("hidden", false, "Only surprises not yet revealed")
	surpriseListCmd.Flags().String("for", "", "Only surprises for this partner")

	surpriseAddCmd.Flags().String("from", "partner1", "Who leaves it (partner1, partner2)")
	surpriseAddCmd.Flags().String("to", "partner2", "Who it is for (partner1, partner2, both)")
	surpriseAddCmd.Flags().StringP("message", "m", "", "A message to go with the photo")

	surpriseCommentCmd.Flags().String("by", "", "Author (partner1, partner2)")

	surpriseCmd.AddCommand(surpriseListCmd, surpriseAddCmd, surpriseRevealCmd, surpriseRmCmd, surpriseCommentCmd)
	rootCmd.AddCommand(surpriseCmd)
}
