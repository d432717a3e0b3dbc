package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focuslog/internal/focus"
	"focuslog/internal/gateway/service/study"
)

// FocusService is the slice of the study service the CLI drives.
type FocusService interface {
	Save(ctx context.Context, payload map[string]any) (focus.AccumulateResult, error)
	Today(ctx context.Context) (focus.DayWindow, []study.TodayRow, error)
	Subjects(ctx context.Context) ([]string, error)
}

// App holds what the commands run against. Focus is nil when the store is
// not configured; only commands that reach the store fail then.
type App struct {
	Focus    FocusService
	FocusErr error
	Now      func() time.Time
}

func (a *App) focus() (FocusService, error) {
	if a.Focus != nil {
		return a.Focus, nil
	}
	if a.FocusErr != nil {
		return nil, a.FocusErr
	}
	return nil, errors.New("focus store is not configured")
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "focusctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Record and inspect daily focus minutes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSaveCmd(app),
		newTodayCmd(app),
		newWindowCmd(app),
		newSubjectsCmd(app),
	)

	return root
}

// Describe renders err for a terminal, naming the available subjects when
// the row was missing.
func Describe(err error) string {
	resp := focus.ErrorResponse(err)
	msg := resp.Error
	var cfgErr *focus.ConfigurationError
	if errors.As(err, &cfgErr) {
		msg = cfgErr.Error()
	}
	if resp.Error == focus.ServerErrorResponse().Error {
		msg = err.Error()
	}
	if len(resp.Detail) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, resp.Detail)
	}
	if len(resp.AvailableSubjects) > 0 {
		msg = fmt.Sprintf("%s (available: %v)", msg, resp.AvailableSubjects)
	}
	return msg
}
