package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/rivo/tview"
)

func (c *Controller) getDetailGrid() *tview.Grid {
	c.detailView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)

	return c.getTextGrid("Task", c.detailView)
}

func (c *Controller) getStatsGrid() *tview.Grid {
	c.statsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)

	return c.getTextGrid("Statistics", c.statsView)
}

func (c *Controller) getTextGrid(title string, view *tview.TextView) *tview.Grid {
	header := c.getPageHeader(title, c.formEvents)

	grid := tview.NewGrid().SetRows(header.GetRowCount(), 0).SetBorders(true)

	grid.AddItem(header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(view, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) showDetail() {
	if c.selectedTask == nil {
		c.flash("no task selected")

		return
	}

	c.detailView.SetText(renderTask(c.selectedTask, c.session.DB.Today())).ScrollToBeginning()
	c.switchTo(pageDetail, c.handleFormKeys, c.detailView)
}

func (c *Controller) showStats() {
	stats, err := c.session.Stats()
	if err != nil {
		c.showError(err)

		return
	}

	c.statsView.SetText(renderStats(stats)).ScrollToBeginning()
	c.switchTo(pageStats, c.handleFormKeys, c.statsView)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Format(db.DateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}

// renderTask lays out everything known about a task for the detail page.
func renderTask(t *db.Task, today time.Time) string {
	b := &strings.Builder{}

	fmt.Fprintf(b, "[yellow]#%d %s[white]\n\n", t.ID, tview.Escape(t.Name))

	status := t.Status.String()
	if t.RawStatus != "" && !strings.EqualFold(t.RawStatus, status) {
		status = fmt.Sprintf("%s (stored as %q)", status, t.RawStatus)
	}

	fmt.Fprintf(b, "status:     %s\n", tview.Escape(status))
	fmt.Fprintf(b, "priority:   %s\n", orDash(t.Priority.String()))
	fmt.Fprintf(b, "shift:      %s\n", orDash(t.Shift.String()))
	fmt.Fprintf(b, "progress:   %s\n", progressBar(t.Progress))
	fmt.Fprintf(b, "created:    %s by %s\n", dateOrDash(t.Date), orDash(tview.Escape(t.CreatedBy)))
	fmt.Fprintf(b, "start:      %s\n", dateOrDash(t.StartDate))

	due := dateOrDash(t.DueDate)
	switch t.DueState(today) {
	case db.DueOverdue:
		due = "[red]" + due + " (overdue)[white]"
	case db.DueSoon:
		due = "[yellow]" + due + " (due soon)[white]"
	}

	fmt.Fprintf(b, "due:        %s\n", due)
	fmt.Fprintf(b, "completed:  %s\n", dateOrDash(t.CompletionDate))

	names := []string{}
	for _, n := range t.Collaborators {
		names = append(names, fmt.Sprintf("[%s]%s[white]", colorFor(n), tview.Escape(n)))
	}

	fmt.Fprintf(b, "responsible: %s\n", orDash(strings.Join(names, ", ")))

	if t.Description != "" {
		fmt.Fprintf(b, "\n[yellow]description[white]\n%s\n", tview.Escape(t.Description))
	}

	if links := t.DocumentLinks(); len(links) > 0 {
		b.WriteString("\n[yellow]documents[white]\n")

		for _, l := range links {
			fmt.Fprintf(b, "  %s\n", tview.Escape(l))
		}
	}

	if len(t.Items) > 0 {
		b.WriteString("\n[yellow]items[white]\n")

		for _, it := range t.Items {
			fmt.Fprintf(b, "  %-4d %s %-10s %s\n", it.ID, progressBar(it.Progress), it.Status, tview.Escape(it.Name))
		}
	}

	if len(t.Interactions) > 0 {
		b.WriteString("\n[yellow]history[white]\n")

		for _, in := range t.Interactions {
			line := fmt.Sprintf("  %s %s %s", in.Timestamp, tview.Escape(in.Username), in.Action)

			if in.NewStatus != nil {
				line += " -> " + in.NewStatus.String()
			}

			if in.ProgressValue != nil {
				line += fmt.Sprintf(" %d%%", *in.ProgressValue)
			}

			if in.Comment != "" {
				line += ": " + tview.Escape(in.Comment)
			}

			if in.Image != "" {
				line += " [grey](photo attached)[white]"
			}

			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

// renderStats formats the statistics page.
func renderStats(s *db.Stats) string {
	b := &strings.Builder{}

	fmt.Fprintf(b, "[yellow]tasks[white]       %d\n", s.Total)

	for _, st := range db.Statuses() {
		fmt.Fprintf(b, "  %-12s %d\n", st, s.ByStatus[st])
	}

	fmt.Fprintf(b, "[red]overdue[white]     %d\n", s.Overdue)
	fmt.Fprintf(b, "[yellow]due soon[white]    %d\n", s.DueSoon)

	b.WriteString("\n[yellow]by priority[white]\n")

	for _, p := range append(db.Priorities(), db.PriorityNone) {
		n := s.ByPriority[p]
		if n == 0 && p == db.PriorityNone {
			continue
		}

		fmt.Fprintf(b, "  %-12s %d\n", orDash(p.String()), n)
	}

	b.WriteString("\n[yellow]by responsible[white]\n")
	fmt.Fprintf(b, "  %-16s", "")

	for _, st := range db.Statuses() {
		fmt.Fprintf(b, " %12s", st)
	}

	b.WriteString("\n")

	for _, name := range s.Responsibles() {
		fmt.Fprintf(b, "  %-16s", tview.Escape(name))

		for _, st := range db.Statuses() {
			fmt.Fprintf(b, " %12d", s.ByResponsible[name][st])
		}

		b.WriteString("\n")
	}

	return b.String()
}
