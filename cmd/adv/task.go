package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/types"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	GroupID: "data",
	Short:   "Manage the shared to-do list",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			list := a.Tasks.List()
			if status != "" {
				list = a.Tasks.ByStatus(types.TaskStatus(status))
			}
			th := theme()
			for _, t := range list {
				fmt.Println(th.TaskLine(t))
			}
			if len(list) == 0 {
				fmt.Println(th.Muted.Render("Nothing to do."))
			}
			return nil
		})
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			t, err := a.Tasks.Add(ctx, args[0], desc, types.TaskPriority(priority))
			if err != nil {
				return err
			}
			fmt.Printf("%s Added task #%d\n", theme().Success.Render("✓"), t.ID)
			return nil
		})
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			t, err := a.Tasks.Update(ctx, id, func(t *types.Task) error {
				if f.Changed("title") {
					t.Title, _ = f.GetString("title")
				}
				if f.Changed("description") {
					t.Description, _ = f.GetString("description")
				}
				if f.Changed("status") {
					s, _ := f.GetString("status")
					t.Status = types.TaskStatus(s)
				}
				if f.Changed("priority") {
					p, _ := f.GetString("priority")
					t.Priority = types.TaskPriority(p)
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Println(theme().TaskLine(t))
			return nil
		})
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			if err := a.Tasks.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("%s Deleted task #%d\n", theme().Success.Render("✓"), id)
			return nil
		})
	},
}

func init() {
	taskListCmd.Flags().String("status", "", "Only this status (pending, in-progress, completed)")

	taskAddCmd.Flags().StringP("description", "d", "", "Description")
	taskAddCmd.Flags().StringP("priority", "p", "medium", "Priority (low, medium, high)")

	taskEditCmd.Flags().String("title", "", "Title")
	taskEditCmd.Flags().StringP("description", "d", "", "Description")
	taskEditCmd.Flags().String("status", "", "Status (pending, in-progress, completed)")
	taskEditCmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high)")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskEditCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
