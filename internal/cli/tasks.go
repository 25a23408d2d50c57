package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

func newTasksCmd(flags *rootFlags) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.TaskStatus(status)
			if st != "" && !st.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}

			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}

			tasks, err := e.client.Tasks().List(cmd.Context(), st)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := "Tasks"
			if st != "" {
				title += " (" + string(st) + ")"
			}
			fmt.Fprintln(out, styles.Header(styles.IconInbox, title))
			if len(tasks) == 0 {
				fmt.Fprintln(out, styles.Muted.Render("Nothing here"))
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintln(out, taskLine(t))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "only tasks in this status (inbox, clarified, organized, scheduled, waiting, completed, trash)")
	return cmd
}

func taskLine(t models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", styles.Muted.Render(fmt.Sprintf("#%-4d", t.ID)), t.Title)
	if t.Priority {
		b.WriteString(" " + styles.Warn.Render("!"))
	}
	b.WriteString(" " + styles.StatusText(t.Status))
	if t.XPReward > 0 {
		b.WriteString(" " + styles.Muted.Render(fmt.Sprintf("%d XP", t.XPReward)))
	}
	if len(t.Subtasks) > 0 {
		done := 0
		for _, s := range t.Subtasks {
			if s.Done {
				done++
			}
		}
		b.WriteString(" " + styles.Muted.Render(fmt.Sprintf("[%d/%d]", done, len(t.Subtasks))))
	}
	return b.String()
}

func newCaptureCmd(flags *rootFlags) *cobra.Command {
	var priority bool
	cmd := &cobra.Command{
		Use:   "capture <title>...",
		Short: "Put something in the inbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return errors.New("title is required")
			}

			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}

			t, err := e.store.CreateTask(cmd.Context(), models.TaskDraft{Title: title, Priority: priority})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.Good.Render(fmt.Sprintf("%s Captured #%d", styles.IconCapture, t.ID))+" "+t.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&priority, "priority", "p", false, "mark as priority")
	return cmd
}

func newCompleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a task and collect its reward",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return errors.New("id must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.ParseInt(args[0], 10, 64)

			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := e.store.Load(cmd.Context()); err != nil {
				return err
			}

			fb, err := e.store.CompleteTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Good.Render(styles.IconDone+" Quest complete!"))
			fmt.Fprintln(out, styles.LabelValue("Reward", fmt.Sprintf("%s +%d XP  %s",
				styles.IconXP, fb.XP, styles.Gold.Render(fmt.Sprintf("+%d G", fb.Gold)))))
			if fb.LeveledUp {
				fmt.Fprintln(out, styles.Gold.Render(styles.IconLevelUp+" "+fb.Message()))
			}
			return nil
		},
	}
}
