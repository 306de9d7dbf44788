package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"margin/internal/api"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage daily tasks",
	}

	var date string
	var priority string
	addCmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			task, err := client.AddTask(cmd.Context(), strings.Join(args, " "), date, priority)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s\n", shortID(task.ID))
			return nil
		},
	}
	addCmd.Flags().StringVar(&date, "date", "", "Day for the task (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&priority, "priority", "", "Priority (low, medium, high)")

	var listDate string
	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			tasks, err := client.ListTasks(cmd.Context(), listDate)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.TaskListResponse{Tasks: tasks})
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks")
				return nil
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{
					shortID(t.ID),
					checkbox(t.Completed),
					truncate(t.Content, 56),
					humanizeLabel(t.Priority),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Done", "Task", "Priority"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	listCmd.Flags().StringVar(&listDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE:  taskToggle(ctx, true),
	}
	undoneCmd := &cobra.Command{
		Use:   "undone <id>",
		Short: "Mark a task not completed",
		Args:  cobra.ExactArgs(1),
		RunE:  taskToggle(ctx, false),
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveTaskID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", shortID(id))
			return nil
		},
	}

	taskCmd.AddCommand(addCmd, listCmd, doneCmd, undoneCmd, rmCmd)
	return taskCmd
}

func taskToggle(ctx *commandContext, completed bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, err := ctx.authedClient()
		if err != nil {
			return err
		}
		id, err := resolveTaskID(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if err := client.SetTaskCompleted(cmd.Context(), id, completed); err != nil {
			return err
		}
		state := "completed"
		if !completed {
			state = "reopened"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s %s\n", shortID(id), state)
		return nil
	}
}

func newClipCommand(ctx *commandContext) *cobra.Command {
	clipCmd := &cobra.Command{
		Use:   "clip",
		Short: "Manage clipboard snippets",
	}

	var label string
	addCmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Store a snippet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			var labelPtr *string
			if strings.TrimSpace(label) != "" {
				labelPtr = &label
			}
			clip, err := client.AddClip(cmd.Context(), strings.Join(args, " "), labelPtr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added clip %s\n", shortID(clip.ID))
			return nil
		},
	}
	addCmd.Flags().StringVar(&label, "label", "", "Optional label for the snippet")

	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			clips, err := client.ListClips(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.ClipListResponse{Clips: clips})
			}
			out := cmd.OutOrStdout()
			if len(clips) == 0 {
				fmt.Fprintln(out, "No clips")
				return nil
			}
			rows := make([][]string, 0, len(clips))
			for _, c := range clips {
				rows = append(rows, []string{
					shortID(c.ID),
					orDash(c.Label),
					truncate(c.Content, 64),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Label", "Content"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveID(args[0], "clip", func() ([]string, error) {
				clips, err := client.ListClips(cmd.Context())
				if err != nil {
					return nil, err
				}
				ids := make([]string, len(clips))
				for i, c := range clips {
					ids[i] = c.ID
				}
				return ids, nil
			})
			if err != nil {
				return err
			}
			if err := client.DeleteClip(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed clip %s\n", shortID(id))
			return nil
		},
	}

	clipCmd.AddCommand(addCmd, listCmd, rmCmd)
	return clipCmd
}

func newReminderCommand(ctx *commandContext) *cobra.Command {
	reminderCmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage email reminders",
	}

	var reason string
	var priority string
	addCmd := &cobra.Command{
		Use:   "add <subject>",
		Short: "Add a reminder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			reminder, err := client.AddReminder(cmd.Context(), strings.Join(args, " "), reason, priority)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added reminder %s\n", shortID(reminder.ID))
			return nil
		},
	}
	addCmd.Flags().StringVar(&reason, "reason", "", "Why the mail needs to be sent")
	addCmd.Flags().StringVar(&priority, "priority", "", "Priority (low, medium, high)")

	var allFlag bool
	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			reminders, err := client.ListReminders(cmd.Context(), !allFlag)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.ReminderListResponse{Reminders: reminders})
			}
			out := cmd.OutOrStdout()
			if len(reminders) == 0 {
				fmt.Fprintln(out, "No reminders")
				return nil
			}
			rows := make([][]string, 0, len(reminders))
			for _, r := range reminders {
				rows = append(rows, []string{
					shortID(r.ID),
					checkbox(r.Done),
					truncate(r.Subject, 40),
					truncate(r.Reason, 32),
					humanizeLabel(r.Priority),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Sent", "Subject", "Reason", "Priority"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&allFlag, "all", false, "Include reminders already marked done")
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a reminder sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveReminderID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.SetReminderDone(cmd.Context(), id, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %s marked sent\n", shortID(id))
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveReminderID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteReminder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed reminder %s\n", shortID(id))
			return nil
		},
	}

	reminderCmd.AddCommand(addCmd, listCmd, doneCmd, rmCmd)
	return reminderCmd
}

func newGoalCommand(ctx *commandContext) *cobra.Command {
	goalCmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage long-running goals",
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			var descPtr *string
			if strings.TrimSpace(description) != "" {
				descPtr = &description
			}
			goal, err := client.AddGoal(cmd.Context(), strings.Join(args, " "), descPtr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s\n", shortID(goal.ID))
			return nil
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "Longer description of the goal")

	var statusFilters []string
	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			goals, err := client.ListGoals(cmd.Context(), statusFilters...)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.GoalListResponse{Goals: goals})
			}
			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintln(out, "No goals")
				return nil
			}
			rows := make([][]string, 0, len(goals))
			for _, g := range goals {
				detail := orDash(g.Description)
				if g.Status == "ditched" && g.DitchReason != nil {
					detail = "ditched: " + *g.DitchReason
				}
				rows = append(rows, []string{
					shortID(g.ID),
					truncate(g.Title, 40),
					humanizeLabel(g.Status),
					truncate(detail, 40),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Goal", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	listCmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (active, completed, ditched)")
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	completeCmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a goal achieved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveGoalID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.CompleteGoal(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s completed\n", shortID(id))
			return nil
		},
	}

	var ditchReason string
	ditchCmd := &cobra.Command{
		Use:   "ditch <id>",
		Short: "Abandon a goal with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(ditchReason) == "" {
				return fmt.Errorf("--reason is required when ditching a goal")
			}
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveGoalID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DitchGoal(cmd.Context(), id, ditchReason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s ditched\n", shortID(id))
			return nil
		},
	}
	ditchCmd.Flags().StringVar(&ditchReason, "reason", "", "Why the goal is being abandoned")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolveGoalID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteGoal(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed goal %s\n", shortID(id))
			return nil
		},
	}

	goalCmd.AddCommand(addCmd, listCmd, completeCmd, ditchCmd, rmCmd)
	return goalCmd
}

// resolveID matches a full ID or unique prefix against the IDs returned
// by list, so short table IDs work as command arguments.
func resolveID(arg, kind string, list func() ([]string, error)) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	ids, err := list()
	if err != nil {
		return "", err
	}
	matches := make([]string, 0, 1)
	for _, id := range ids {
		if id == arg {
			return id, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no %s matches %q", kind, arg)
	default:
		return "", fmt.Errorf("%q is ambiguous: matches %d %ss", arg, len(matches), kind)
	}
}

func resolveTaskID(ctx context.Context, client taskLister, arg string) (string, error) {
	return resolveID(arg, "task", func() ([]string, error) {
		tasks, err := client.ListTasks(ctx, "")
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		return ids, nil
	})
}

func resolveReminderID(ctx context.Context, client reminderLister, arg string) (string, error) {
	return resolveID(arg, "reminder", func() ([]string, error) {
		reminders, err := client.ListReminders(ctx, false)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(reminders))
		for i, r := range reminders {
			ids[i] = r.ID
		}
		return ids, nil
	})
}

func resolveGoalID(ctx context.Context, client goalLister, arg string) (string, error) {
	return resolveID(arg, "goal", func() ([]string, error) {
		goals, err := client.ListGoals(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(goals))
		for i, g := range goals {
			ids[i] = g.ID
		}
		return ids, nil
	})
}

type taskLister interface {
	ListTasks(ctx context.Context, date string) ([]api.Task, error)
}

type reminderLister interface {
	ListReminders(ctx context.Context, pendingOnly bool) ([]api.Reminder, error)
}

type goalLister interface {
	ListGoals(ctx context.Context, statuses ...string) ([]api.Goal, error)
}
