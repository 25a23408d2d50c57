package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

func newRewardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reward <duration> <difficulty>",
		Short: "Estimate the XP and gold a task would pay",
		Long:  "Estimate the reward for a task. Durations: 15m, 30m, 1h, 2h+. Difficulties: Easy, Med, Hard.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDuration(args[0])
			if err != nil {
				return err
			}
			f, err := parseDifficulty(args[1])
			if err != nil {
				return err
			}
			r := derive.EstimateReward(d, f)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Header(styles.IconXP, fmt.Sprintf("%s / %s", d, f)))
			fmt.Fprintln(out, styles.LabelValue("XP", fmt.Sprintf("%d (%d x %d)", r.XP, derive.BaseXP(d), derive.Multiplier(f))))
			fmt.Fprintln(out, styles.LabelValue("Gold", styles.Gold.Render(fmt.Sprintf("%d", r.Gold))))
			return nil
		},
	}
}

func parseDuration(s string) (models.Duration, error) {
	for _, d := range models.Durations {
		if strings.EqualFold(string(d), s) || strings.EqualFold(strings.TrimSuffix(string(d), "+"), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown duration %q (want one of %s)", s, joinAny(models.Durations))
}

func parseDifficulty(s string) (models.Difficulty, error) {
	for _, f := range models.Difficulties {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want one of %s)", s, joinAny(models.Difficulties))
}

func joinAny[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func newCalendarCmd(flags *rootFlags) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month with the backend's events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be 1-12, got %d", month)
			}

			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			events, err := e.client.Calendar().Events(cmd.Context())
			if err != nil {
				return err
			}
			renderMonth(cmd, year, month-1, events)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func renderMonth(cmd *cobra.Command, year, month0 int, events []models.CalendarEvent) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Header(styles.IconCalendar, derive.MonthTitle(year, month0)))
	fmt.Fprintln(out, styles.Muted.Render(" Su  Mo  Tu  We  Th  Fr  Sa"))

	var row strings.Builder
	for i, c := range derive.CalendarGrid(year, month0) {
		cell := fmt.Sprintf(" %2d ", c.Day)
		switch {
		case !c.CurrentMonth:
			cell = styles.Muted.Render(cell)
		case len(derive.EventsOn(events, c.Day)) > 0:
			cell = styles.Key.Render(cell)
		}
		row.WriteString(cell)
		if i%7 == 6 {
			fmt.Fprintln(out, strings.TrimRight(row.String(), " "))
			row.Reset()
		}
	}

	fmt.Fprintln(out, "")
	for day := 1; day <= derive.DaysInMonth(year, month0); day++ {
		for _, ev := range derive.EventsOn(events, day) {
			when := ev.Time
			if when == "" {
				when = "all day"
			}
			fmt.Fprintf(out, "%s %s %s %s\n",
				styles.Key.Render(fmt.Sprintf("%2d", day)),
				styles.Muted.Render(fmt.Sprintf("%-8s", when)),
				ev.Title,
				styles.Muted.Render("("+ev.Type+")"))
		}
	}
}
