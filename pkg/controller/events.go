package controller

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
)

func (c *Controller) initEvents() {
	c.events = map[tcell.Key]KeyEvent{}
	c.formEvents = map[tcell.Key]KeyEvent{}

	c.initBoardEvents(c.events)
	c.initAdminEvents(c.events)
	c.initExitEvent(c.events)

	c.formEvents[tcell.KeyEscape] = KeyEvent{
		Description: "Back",
		Action:      c.getBackAction(),
	}
}

func (c *Controller) getExitAction() func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		log.Info().Msg("terminating application")

		c.app.Stop()

		return nil
	}
}

func (c *Controller) initExitEvent(events map[tcell.Key]KeyEvent) {
	events[KeyQ] = KeyEvent{
		Description: "Exit",
		Action:      c.getExitAction(),
	}
}

// getBackAction leaves a form: back to the board, or out of the program from the login page.
func (c *Controller) getBackAction() func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		if c.session == nil {
			return c.getExitAction()(key)
		}

		c.showBoard()

		return nil
	}
}

func (c *Controller) getColumnAction(step int) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		c.selectColumn((c.selectedColumn + step + len(c.columns)) % len(c.columns))

		return nil
	}
}

func (c *Controller) initBoardEvents(events map[tcell.Key]KeyEvent) {
	events[tcell.KeyLeft] = KeyEvent{
		Description: "Previous column",
		Action:      c.getColumnAction(-1),
	}

	events[tcell.KeyRight] = KeyEvent{
		Description: "Next column",
		Action:      c.getColumnAction(1),
	}

	events[tcell.KeyEnter] = KeyEvent{
		Description: "Task details",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showDetail()

			return nil
		},
	}

	events[KeyP] = KeyEvent{
		Description: "Report progress",
		Available:   c.canReport,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showProgressForm()

			return nil
		},
	}

	events[KeyI] = KeyEvent{
		Description: "Update item",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showItemForm()

			return nil
		},
	}

	events[KeyF] = KeyEvent{
		Description: "Filter by responsible",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.cycleFilter()

			return nil
		},
	}

	events[KeyR] = KeyEvent{
		Description: "Refresh",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if err := c.session.Refresh(c.ctx); err != nil {
				c.showError(err)

				return nil
			}

			c.flash("board refreshed")
			c.showBoard()

			return nil
		},
	}

	events[KeyA] = KeyEvent{
		Description: "Change password",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showPasswordForm()

			return nil
		},
	}

	events[KeyM] = KeyEvent{
		Description: "Plant map",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showMap()

			return nil
		},
	}
}

func (c *Controller) initAdminEvents(events map[tcell.Key]KeyEvent) {
	events[KeyN] = KeyEvent{
		Description: "New task",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showTaskForm()

			return nil
		},
	}

	events[KeyS] = KeyEvent{
		Description: "Statistics",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showStats()

			return nil
		},
	}

	events[KeyShiftM] = KeyEvent{
		Description: "Add machine",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchTo(pageMachine, c.handleFormKeys, c.machineForm)

			return nil
		},
	}

	events[KeyU] = KeyEvent{
		Description: "Users",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showUsers()

			return nil
		},
	}

	events[KeyE] = KeyEvent{
		Description: "Export workbook",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.export()

			return nil
		},
	}

	events[KeyShiftX] = KeyEvent{
		Description: "Clear all data",
		AdminOnly:   true,
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showClearForm()

			return nil
		},
	}
}

// shortcuts lists the bindings the current user can use, sorted by description.
func (c *Controller) shortcuts(events map[tcell.Key]KeyEvent) []string {
	admin := c.session != nil && c.session.IsAdmin()
	texts := []string{}

	for key, event := range events {
		if (event.AdminOnly && !admin) || !event.available() {
			continue
		}

		texts = append(texts, fmt.Sprintf("[orange]<%s>[white] %s", keyName(key), event.Description))
	}

	sort.Slice(texts, func(i, j int) bool {
		return stripTags(texts[i]) < stripTags(texts[j])
	})

	return texts
}

func (c *Controller) export() {
	path := c.opts.ExportPath
	if path == "" {
		path = "kanban_export.xlsx"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.showError(err)

			return
		}
	}

	f, err := os.Create(path)
	if err != nil {
		c.showError(fmt.Errorf("error creating export file: %w", err))

		return
	}
	defer f.Close()

	if err := c.session.Export(c.ctx, f); err != nil {
		c.showError(err)

		return
	}

	c.flash("exported to " + path)
}
