package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/types"
	"github.com/doree-nobuu/adventures/internal/ui"
)

var adventureCmd = &cobra.Command{
	Use:     "adventure",
	Aliases: []string{"a"},
	GroupID: "data",
	Short:   "Plan, complete and remember adventures",
}

var adventureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List adventures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		category, _ := cmd.Flags().GetString("category")
		upcoming, _ := cmd.Flags().GetBool("upcoming")
		completed, _ := cmd.Flags().GetBool("completed")

		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			var list []types.Adventure
			switch {
			case upcoming:
				list = a.Adventures.Upcoming()
			case completed:
				list = a.Adventures.Completed()
			default:
				list = a.Adventures.Filter(func(adv *types.Adventure) bool {
					if status != "" && string(adv.Status) != status {
						return false
					}
					return category == "" || string(adv.Category) == category
				})
			}

			th := theme()
			if len(list) == 0 {
				fmt.Println(th.Muted.Render("No adventures yet. Add one with 'adv adventure add'."))
				return nil
			}
			for _, adv := range list {
				fmt.Println(th.AdventureLine(adv))
			}
			return nil
		})
	},
}

var adventureShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one adventure with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			adv, err := a.Adventures.Get(id)
			if err != nil {
				return err
			}
			fmt.Println(theme().AdventureDetail(adv))
			return nil
		})
	},
}

var adventureAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add an adventure",
	Long: `Add an adventure to the bucket list.

Without a title on an interactive terminal a form asks for the details.
Target dates accept 2024-06-01 as well as phrases like "next saturday".

Examples:
  adv adventure add "Sunrise hot air balloon" --category travel --target "next month"
  adv adventure add "Anniversary dinner" --surprise --by partner1 --assign partner2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var adv types.Adventure
		if len(args) == 1 {
			adv.Title = args[0]
		} else if isTerminal(os.Stdin) {
			if err := adventureForm(&adv); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("a title is required")
		}

		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			loc, _ := cfg.Location()
			if err := applyAdventureFlags(cmd, &adv, loc); err != nil {
				return err
			}
			created, err := a.Adventures.Create(ctx, adv)
			if err != nil {
				return err
			}
			th := theme()
			fmt.Printf("%s Added adventure #%d\n", th.Success.Render("✓"), created.ID)
			fmt.Println(th.AdventureLine(created))
			return nil
		})
	},
}

var adventureEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an adventure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			loc, _ := cfg.Location()
			updated, err := a.Adventures.Update(ctx, id, func(adv *types.Adventure) error {
				if cmd.Flags().Changed("title") {
					adv.Title, _ = cmd.Flags().GetString("title")
				}
				if cmd.Flags().Changed("status") {
					s, _ := cmd.Flags().GetString("status")
					adv.Status = types.Status(s)
				}
				return applyAdventureFlags(cmd, adv, loc)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Updated adventure #%d\n", theme().Success.Render("✓"), updated.ID)
			return nil
		})
	},
}

var adventureDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an adventure completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		review, _ := cmd.Flags().GetString("review")
		var rating *int
		if cmd.Flags().Changed("rating") {
			r, _ := cmd.Flags().GetInt("rating")
			rating = &r
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			adv, err := a.Adventures.Complete(ctx, id, rating, review)
			if err != nil {
				return err
			}
			th := theme()
			fmt.Printf("%s Completed %s %s\n", th.Success.Render("✓"), adv.Title, th.Accent.Render(ui.Stars(adv.Rating)))
			return nil
		})
	},
}

var adventureRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete an adventure",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if err := a.Adventures.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("%s Deleted adventure #%d\n", theme().Success.Render("✓"), id)
			return nil
		})
	},
}

var adventureCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>",
	Short: "Comment on an adventure",
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
			c, err := a.Adventures.AddComment(ctx, id, args[1], author)
			if err != nil {
				return err
			}
			fmt.Printf("%s Comment %s added\n", theme().Success.Render("✓"), c.ID)
			return nil
		})
	},
}

var adventureUncommentCmd = &cobra.Command{
	Use:   "uncomment <id> <comment-id>",
	Short: "Delete a comment from an adventure",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if _, err := a.Adventures.DeleteComment(ctx, id, args[1]); err != nil {
				return err
			}
			fmt.Printf("%s Comment removed\n", theme().Success.Render("✓"))
			return nil
		})
	},
}

var adventurePhotoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Attach or remove adventure photos",
}

var adventurePhotoAddCmd = &cobra.Command{
	Use:   "add <id> <url-or-file>",
	Short: "Attach a photo by URL or from a local image file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		photo, err := photoSource(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			adv, err := a.Adventures.AddPhoto(ctx, id, photo)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s now has %d photo(s)\n", theme().Success.Render("✓"), adv.Title, len(adv.Photos))
			return nil
		})
	},
}

var adventurePhotoRmCmd = &cobra.Command{
	Use:   "rm <id> <index>",
	Short: "Remove a photo by its position (starting at 1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := parseID(args[1])
		if err != nil {
			return fmt.Errorf("invalid photo index %q", args[1])
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if _, err := a.Adventures.RemovePhoto(ctx, id, int(n-1)); err != nil {
				return err
			}
			fmt.Printf("%s Photo removed\n", theme().Success.Render("✓"))
			return nil
		})
	},
}

// applyAdventureFlags copies the detail flags the user set onto adv.
func applyAdventureFlags(cmd *cobra.Command, adv *types.Adventure, loc *time.Location) error {
	f := cmd.Flags()
	if f.Changed("description") {
		adv.Description, _ = f.GetString("description")
	}
	if f.Changed("category") {
		c, _ := f.GetString("category")
		adv.Category = types.Category(c)
	}
	if f.Changed("custom") {
		adv.CustomCategory, _ = f.GetString("custom")
		if adv.CustomCategory != "" && !f.Changed("category") {
			adv.Category = types.CategoryCustom
		}
	}
	if f.Changed("assign") {
		p, err := partnerFlag(cmd, "assign")
		if err != nil {
			return err
		}
		adv.AssignedTo = p
	}
	if f.Changed("by") {
		p, err := partnerFlag(cmd, "by")
		if err != nil {
			return err
		}
		adv.CreatedBy = p
	}
	if f.Changed("target") {
		s, _ := f.GetString("target")
		if s == "" {
			adv.TargetDate = nil
		} else {
			t, err := parseDate(s, time.Now(), loc)
			if err != nil {
				return err
			}
			adv.TargetDate = &t
		}
	}
	if f.Changed("location") {
		adv.Location, _ = f.GetString("location")
	}
	if f.Changed("cost") {
		c, _ := f.GetFloat64("cost")
		adv.EstimatedCost = &c
	}
	if f.Changed("notes") {
		adv.Notes, _ = f.GetString("notes")
	}
	if f.Changed("surprise") {
		adv.IsSurprise, _ = f.GetBool("surprise")
	}
	return nil
}

func addAdventureFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "Description")
	cmd.Flags().StringP("category", "c", "", "Category (travel, food, activity, milestone, date-night, home, custom)")
	cmd.Flags().String("custom", "", "Custom category name")
	cmd.Flags().String("assign", "", "Assigned to (partner1, partner2, both)")
	cmd.Flags().String("by", "", "Created by (partner1, partner2)")
	cmd.Flags().String("target", "", "Target date (2024-06-01, \"next saturday\")")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().Float64("cost", 0, "Estimated cost")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().Bool("surprise", false, "Hide the title from the other partner until it is completed")
}

// adventureForm asks for the basic fields on the terminal.
func adventureForm(adv *types.Adventure) error {
	category := types.CategoryActivity
	assigned := types.Both
	categories := make([]huh.Option[types.Category], 0, len(formCategories()))
	for _, c := range formCategories() {
		categories = append(categories, huh.NewOption(string(c), c))
	}
	partners := make([]huh.Option[types.Partner], 0, len(types.Partners))
	for _, p := range types.Partners {
		partners = append(partners, huh.NewOption(p.Label(), p))
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(&adv.Title).Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("title is required")
			}
			return nil
		}),
		huh.NewText().Title("Description").Value(&adv.Description),
		huh.NewSelect[types.Category]().Title("Category").Options(categories...).Value(&category),
		huh.NewSelect[types.Partner]().Title("Who is it for?").Options(partners...).Value(&assigned),
	))
	if err := form.Run(); err != nil {
		return err
	}
	adv.Category = category
	adv.AssignedTo = assigned
	return nil
}

func formCategories() []types.Category {
	return []types.Category{
		types.CategoryTravel, types.CategoryFood, types.CategoryActivity,
		types.CategoryMilestone, types.CategoryDateNight, types.CategoryHome,
	}
}

func partnerFlag(cmd *cobra.Command, name string) (types.Partner, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return types.Both, nil
	}
	return types.ParsePartner(s)
}

// photoSource returns URLs unchanged and reads anything else as an image
// file, inlined as a data: URI.
func photoSource(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "data:") {
		return arg, nil
	}
	// #nosec G304 - controlled path from CLI
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(arg)))
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%s is not an image", arg)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func init() {
	adventureListCmd.Flags().String("status", "", "Only this status (wishlist, planned, in-progress, completed)")
	adventureListCmd.Flags().String("category", "", "Only this category")
	adventureListCmd.Flags().Bool("upcoming", false, "Planned adventures with a target date ahead, soonest first")
	adventureListCmd.Flags().Bool("completed", false, "Completed adventures, most recent first")

	addAdventureFlags(adventureAddCmd)
	addAdventureFlags(adventureEditCmd)
	adventureEditCmd.Flags().String("title", "", "Title")
	adventureEditCmd.Flags().String("status", "", "Status (wishlist, planned, in-progress, completed)")

	adventureDoneCmd.Flags().IntP("rating", "r", 0, "Rating from 1 to 5")
	adventureDoneCmd.Flags().String("review", "", "A few words to remember it by")

	adventureCommentCmd.Flags().String("by", "", "Author (partner1, partner2)")

	adventurePhotoCmd.AddCommand(adventurePhotoAddCmd, adventurePhotoRmCmd)
	adventureCmd.AddCommand(
		adventureListCmd, adventureShowCmd, adventureAddCmd, adventureEditCmd,
		adventureDoneCmd, adventureRmCmd, adventureCommentCmd, adventureUncommentCmd,
		adventurePhotoCmd,
	)
	rootCmd.AddCommand(adventureCmd)
}
