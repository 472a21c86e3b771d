package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/evidence"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func printError(w io.Writer, err error) {
	msg := err.Error()
	if errors.Is(err, db.ErrInvalidCredentials) {
		msg = "invalid username or password"
	}

	fmt.Fprintf(w, "%s %s\n", red("Error:"), msg)
}

func printDone(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// dueText colours a task's due date by urgency.
func dueText(t *db.Task, s db.DueState) string {
	if t.DueDate == nil {
		return gray("-")
	}

	due := t.DueDate.Format(db.DateLayout)

	switch s {
	case db.DueOverdue:
		return red(due)
	case db.DueSoon:
		return yellow(due)
	case db.DueDone:
		return green(due)
	default:
		return due
	}
}

func indicatorText(ind db.Indicator) string {
	const marker = "●"

	switch ind {
	case db.IndicatorBusy:
		return red(marker)
	case db.IndicatorOperational:
		return green(marker)
	case db.IndicatorMaintenance:
		return yellow(marker)
	default:
		return gray(marker)
	}
}

func parseID(kind, v string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s id must be a positive number, got %q", db.ErrInvalidInput, kind, v)
	}

	return id, nil
}

// loadPhoto processes the photo at path into evidence. An empty path means no photo.
func (a *App) loadPhoto(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening photo: %w", err)
	}
	defer f.Close()

	images := evidence.NewProcessor(a.Config.Images.MaxWidth, a.Config.Images.MaxHeight, a.Config.Images.Quality)

	return images.Process(f)
}
