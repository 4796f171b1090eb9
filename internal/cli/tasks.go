package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
)

type serviceFunc func() ports.TaskService

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func status(t domain.Task) string {
	if t.Completed {
		return "done"
	}
	return "pending"
}

func writeTable(w io.Writer, tasks []domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tSTATUS\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, status(t), t.CreatedAt)
	}
	return tw.Flush()
}

func writeTask(w io.Writer, t *domain.Task) {
	fmt.Fprintf(w, "ID:          %d\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Status:      %s\n", status(*t))
	fmt.Fprintf(w, "Created:     %s\n", t.CreatedAt)
}

func notFound(id int64, err error) error {
	if errors.Is(err, services.ErrTaskNotFound) {
		return fmt.Errorf("task %d not found", id)
	}
	return err
}

func newListCmd(tasks serviceFunc) *cobra.Command {
	var (
		filter string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := domain.ParseFilter(filter)
			if err != nil {
				return err
			}
			list, err := tasks().GetTasks(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("listing tasks: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			return writeTable(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, active or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

func newAddCmd(tasks serviceFunc) *cobra.Command {
	var description, priority string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := tasks().CreateTask(cmd.Context(), ports.CreateTaskInput{
				Title:       args[0],
				Description: description,
				Priority:    priority,
			})
			if err != nil {
				return fmt.Errorf("creating task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", domain.DefaultPriority, "task priority")
	return cmd
}

func newShowCmd(tasks serviceFunc) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := tasks().GetTaskByID(cmd.Context(), id)
			if err != nil {
				return notFound(id, err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), task)
			}
			writeTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the task as JSON")
	return cmd
}

func newDoneCmd(tasks serviceFunc) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			completed := !undo
			task, err := tasks().UpdateTask(cmd.Context(), id, ports.UpdateTaskInput{Completed: &completed})
			if err != nil {
				return notFound(id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is %s\n", task.ID, status(*task))
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task pending again")
	return cmd
}

func newRemoveCmd(tasks serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := tasks().DeleteTask(cmd.Context(), id)
			if err != nil {
				return notFound(id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}
}

func newStatsCmd(tasks serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := tasks().GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("computing stats: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total:     %d\nCompleted: %d\nPending:   %d\n",
				stats.Total, stats.Completed, stats.Pending)
			return nil
		},
	}
}
