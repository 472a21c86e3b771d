package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/evidence"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	descTitleRatio = 2

	pageLogin    = "login"
	pageBoard    = "board"
	pageDetail   = "detail"
	pageProgress = "progress"
	pageItem     = "item"
	pageNewTask  = "newTask"
	pageStats    = "stats"
	pageMap      = "map"
	pageMachine  = "machine"
	pageUsers    = "users"
	pageClear    = "clear"
	pagePassword = "password"
)

// Options configures the terminal board.
type Options struct {
	DB         db.Options
	Images     *evidence.Processor
	ExportPath string
}

// Controller mediates between the session and the view.
type Controller struct {
	ctx     context.Context
	store   sheet.Store
	opts    Options
	session *session.Session

	app       *tview.Application
	pages     *tview.Pages
	statusBar *tview.TextView

	columns        []*tview.Table
	columnContents []*ColumnContent
	boardHeader    *tview.Table
	selectedColumn int
	selectedTask   *db.Task
	filter         string

	detailView  *tview.TextView
	statsView   *tview.TextView
	mapView     *plantMap
	mapFilter   *tview.Form
	machines    *tview.Table
	machineList []db.Machine
	usersTable  *tview.Table

	loginForm    *tview.Form
	progressForm *tview.Form
	itemForm     *tview.Form
	taskForm     *tview.Form
	machineForm  *tview.Form
	userForm     *tview.Form
	passwordForm *tview.Form
	clearForm    *tview.Form

	events     map[tcell.Key]KeyEvent
	formEvents map[tcell.Key]KeyEvent
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	AdminOnly   bool
	// Available hides and disables the event while it returns false; nil means always.
	Available func() bool
	Action    func(*tcell.EventKey) *tcell.EventKey
}

func (k KeyEvent) available() bool {
	return k.Available == nil || k.Available()
}

// NewController creates a new Controller to run the app.
func NewController(ctx context.Context, store sheet.Store, opts Options) (*Controller, error) {
	if opts.Images == nil {
		opts.Images = evidence.NewProcessor(0, 0, 0)
	}

	c := Controller{
		ctx:   ctx,
		store: store,
		opts:  opts,
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
	}

	initKeys()
	c.initEvents()

	c.statusBar = tview.NewTextView().SetDynamicColors(true)

	c.pages.AddPage(pageLogin, c.getLoginGrid(), true, true)

	return &c, nil
}

// Go runs the app until the user quits.
func (c *Controller) Go() error {
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.pages, 0, 1, true).
		AddItem(c.statusBar, 1, 0, false)

	c.app.SetInputCapture(c.handleFormKeys)

	if err := c.app.SetRoot(root, true).SetFocus(c.loginForm).Run(); err != nil {
		return fmt.Errorf("error running terminal ui: %w", err)
	}

	if c.session != nil {
		c.session.End()
	}

	return nil
}

// start builds the pages that need a session once the user has logged in.
func (c *Controller) start(s *session.Session) {
	c.session = s
	c.filter = s.DefaultFilter()

	c.pages.AddPage(pageBoard, c.getBoardGrid(), true, false)
	c.pages.AddPage(pageDetail, c.getDetailGrid(), true, false)
	c.pages.AddPage(pageProgress, c.getProgressFormGrid(), true, false)
	c.pages.AddPage(pageItem, c.getItemFormGrid(), true, false)
	c.pages.AddPage(pageMap, c.getMapGrid(), true, false)
	c.pages.AddPage(pagePassword, c.getPasswordFormGrid(), true, false)

	if s.IsAdmin() {
		c.pages.AddPage(pageNewTask, c.getTaskFormGrid(), true, false)
		c.pages.AddPage(pageStats, c.getStatsGrid(), true, false)
		c.pages.AddPage(pageMachine, c.getMachineFormGrid(), true, false)
		c.pages.AddPage(pageUsers, c.getUsersGrid(), true, false)
		c.pages.AddPage(pageClear, c.getClearFormGrid(), true, false)
	}

	c.flash(fmt.Sprintf("welcome, %s (%s)", s.Username(), s.User.Role))
	c.showBoard()
}

func (c *Controller) handleKeys(evt *tcell.EventKey) *tcell.EventKey {
	return c.dispatch(c.events, evt)
}

func (c *Controller) handleFormKeys(evt *tcell.EventKey) *tcell.EventKey {
	return c.dispatch(c.formEvents, evt)
}

func (c *Controller) dispatch(events map[tcell.Key]KeyEvent, evt *tcell.EventKey) *tcell.EventKey {
	key := AsKey(evt)

	k, ok := events[key]
	if !ok {
		return evt
	}

	if k.AdminOnly && (c.session == nil || !c.session.IsAdmin()) {
		c.showError(session.ErrForbidden)

		return nil
	}

	if !k.available() {
		c.flash(fmt.Sprintf("%s is not available here", strings.ToLower(k.Description)))

		return nil
	}

	return k.Action(evt)
}

// switchTo shows a page with the given key handler and focus.
func (c *Controller) switchTo(name string, capture func(*tcell.EventKey) *tcell.EventKey, focus tview.Primitive) {
	c.pages.SwitchToPage(name)
	c.app.SetInputCapture(capture)

	if focus != nil {
		c.app.SetFocus(focus)
	}

	log.Debug().Str("page", name).Msg("switched page")
}

func (c *Controller) flash(msg string) {
	c.statusBar.SetText(fmt.Sprintf("[green]%s", tview.Escape(msg)))
}

// showError logs the error and shows it in the status bar. The action that failed is abandoned.
func (c *Controller) showError(err error) {
	log.Warn().Err(err).Msg("action failed")

	msg := err.Error()
	if errors.Is(err, db.ErrInvalidCredentials) {
		msg = "invalid username or password"
	}

	c.statusBar.SetText(fmt.Sprintf("[red]%s", tview.Escape(msg)))
}

// getPageHeader returns a header with the title on the first row followed by the page's key
// bindings, three per row.
func (c *Controller) getPageHeader(title string, events map[tcell.Key]KeyEvent) *tview.Table {
	table := tview.NewTable().SetBorders(false).SetSelectable(false, false)
	table.SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("[yellow]%s", tview.Escape(title))))

	c.setShortcuts(table, events)

	return table
}

// setShortcuts rewrites the shortcut rows of a page header, keeping the title row.
func (c *Controller) setShortcuts(table *tview.Table, events map[tcell.Key]KeyEvent) {
	for table.GetRowCount() > 1 {
		table.RemoveRow(table.GetRowCount() - 1)
	}

	for i, text := range c.shortcuts(events) {
		table.SetCell(1+i/3, i%3, tview.NewTableCell(text).SetExpansion(1))
	}
}

// headerRows is the height a header needs to show every event.
func headerRows(events map[tcell.Key]KeyEvent) int {
	return 1 + (len(events)+2)/3
}
