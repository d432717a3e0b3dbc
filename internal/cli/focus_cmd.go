package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"focuslog/internal/focus"
)

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <subject> <minutes>",
		Short: "Add minutes to today's row for a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.focus()
			if err != nil {
				return err
			}
			minutes, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return &focus.ValidationError{Field: "minutes", Err: focus.ErrInvalidMinutes}
			}
			res, err := svc.Save(cmd.Context(), map[string]any{
				"subject": args[0],
				"minutes": minutes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d min to %s on %s, focus now %s\n",
				color.New(color.FgGreen).Sprint("Saved"),
				res.SavedMinutes, res.Subject, res.Day,
				color.New(color.Bold).Sprint(res.NewFocus))
			return nil
		},
	}
}

func newTodayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's rows and their focus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.focus()
			if err != nil {
				return err
			}
			window, rows, err := svc.Today(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", color.New(color.FgCyan).Sprint(window.Today), focus.ZoneName)
			if len(rows) == 0 {
				fmt.Fprintf(out, "  %s\n", color.New(color.FgYellow).Sprint("no rows today"))
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(out, "  %-20s %5d min\n", r.Subject, r.Focus)
			}
			return nil
		},
	}
}

func newWindowCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the civil-day window used for matching rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := app.now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				now = parsed
			}
			w := focus.ResolveDayWindow(now)
			fmt.Fprintf(cmd.OutOrStdout(), "today=%s tomorrow=%s zone=%s\n", w.Today, w.Tomorrow, focus.ZoneName)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Instant to resolve (RFC3339), defaults to now")
	return cmd
}

func newSubjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects the database allows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.focus()
			if err != nil {
				return err
			}
			subjects, err := svc.Subjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range subjects {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
