package controller

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	fieldWidth = 40
	textMax    = 2000
)

func (c *Controller) getFormGrid(title string, form *tview.Form) *tview.Grid {
	header := c.getPageHeader(title, c.formEvents)

	grid := tview.NewGrid().SetRows(header.GetRowCount(), 0).SetBorders(true)

	grid.AddItem(header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(form, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func inputField(form *tview.Form, label string) *tview.InputField {
	field, _ := form.GetFormItemByLabel(label).(*tview.InputField)

	return field
}

func textArea(form *tview.Form, label string) *tview.TextArea {
	field, _ := form.GetFormItemByLabel(label).(*tview.TextArea)

	return field
}

func dropDown(form *tview.Form, label string) *tview.DropDown {
	field, _ := form.GetFormItemByLabel(label).(*tview.DropDown)

	return field
}

func checkbox(form *tview.Form, label string) *tview.Checkbox {
	field, _ := form.GetFormItemByLabel(label).(*tview.Checkbox)

	return field
}

// selected returns the dropdown's current index, or an error naming the field when nothing is
// chosen.
func selected(form *tview.Form, label string) (int, error) {
	idx, _ := dropDown(form, label).GetCurrentOption()
	if idx < 0 {
		return 0, fmt.Errorf("%w: choose a %s", db.ErrInvalidInput, strings.ToLower(label))
	}

	return idx, nil
}

// splitList splits a comma or newline separated field, dropping blanks.
func splitList(s string) []string {
	out := []string{}

	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// parseDateField reads a YYYY-MM-DD field. An empty field is no date.
func parseDateField(label, s string) (*time.Time, error) {
	t, err := db.ParseDay(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	return t, nil
}

func parseNumber(label, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", db.ErrInvalidInput, label, s)
	}

	return n, nil
}

func parsePercent(s string) (int, error) {
	n, err := parseNumber("progress", s)
	if err != nil {
		return 0, err
	}

	if n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: progress must be 0-100, got %d", db.ErrInvalidInput, n)
	}

	return n, nil
}

// loadImage processes the photo at path into evidence. An empty path means no photo.
func (c *Controller) loadImage(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening photo: %w", err)
	}
	defer f.Close()

	return c.opts.Images.Process(f)
}

func (c *Controller) getLoginGrid() *tview.Grid {
	c.loginForm = tview.NewForm().
		AddInputField("Username", "", fieldWidth, nil, nil).
		AddPasswordField("Password", "", fieldWidth, '*', nil)

	c.loginForm.AddButton("Login", c.login)
	c.loginForm.AddButton("Quit", func() { c.app.Stop() })
	c.loginForm.SetBorder(true).SetTitle(" Log in ")

	return c.getFormGrid("kanban-sheets", c.loginForm)
}

func (c *Controller) login() {
	username := strings.TrimSpace(inputField(c.loginForm, "Username").GetText())
	password := inputField(c.loginForm, "Password").GetText()

	inputField(c.loginForm, "Password").SetText("")

	s, err := session.Login(c.ctx, c.store, c.opts.DB, username, password)
	if err != nil {
		c.showError(err)
		c.loginForm.SetFocus(1)
		c.app.SetFocus(c.loginForm)

		return
	}

	c.start(s)
}

// editableTask returns the selected task if the user may report on it.
func (c *Controller) editableTask() *db.Task {
	if c.selectedTask == nil {
		c.flash("no task selected")

		return nil
	}

	if !c.session.CanEdit(c.selectedTask) {
		c.showError(fmt.Errorf("task %d: %w", c.selectedTask.ID, session.ErrForbidden))

		return nil
	}

	return c.selectedTask
}

func (c *Controller) getProgressFormGrid() *tview.Grid {
	c.progressForm = tview.NewForm().
		AddInputField("Progress %", "", 5, tview.InputFieldInteger, nil).
		AddTextArea("Comment", "", 0, 4, textMax, nil).
		AddInputField("Photo file", "", fieldWidth, nil, nil).
		AddCheckbox("Mark complete", false, nil)

	c.progressForm.AddButton("Save", c.saveProgress)

	return c.getFormGrid("Report progress", c.progressForm)
}

func (c *Controller) showProgressForm() {
	task := c.editableTask()
	if task == nil {
		return
	}

	inputField(c.progressForm, "Progress %").SetText(strconv.Itoa(task.Progress))
	textArea(c.progressForm, "Comment").SetText("", false)
	inputField(c.progressForm, "Photo file").SetText("")
	checkbox(c.progressForm, "Mark complete").SetChecked(false)

	c.progressForm.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", tview.Escape(task.Name)))
	c.progressForm.SetFocus(0)

	c.switchTo(pageProgress, c.handleFormKeys, c.progressForm)
}

func (c *Controller) saveProgress() {
	task := c.selectedTask

	report := db.ProgressReport{
		Comment:  textArea(c.progressForm, "Comment").GetText(),
		Complete: checkbox(c.progressForm, "Mark complete").IsChecked(),
	}

	if report.Complete {
		report.Progress = 100
	} else {
		progress, err := parsePercent(inputField(c.progressForm, "Progress %").GetText())
		if err != nil {
			c.showError(err)

			return
		}

		report.Progress = progress
	}

	image, err := c.loadImage(inputField(c.progressForm, "Photo file").GetText())
	if err != nil {
		c.showError(err)

		return
	}

	report.Image = image

	if err := c.session.RecordProgress(c.ctx, task.ID, report); err != nil {
		c.showError(err)

		return
	}

	log.Debug().Int("task", task.ID).Int("progress", report.Progress).Msg("saved progress from form")

	c.flash(fmt.Sprintf("progress saved for %q", task.Name))
	c.showBoard()
}

func (c *Controller) getItemFormGrid() *tview.Grid {
	c.itemForm = tview.NewForm().
		AddDropDown("Item", []string{}, -1, nil).
		AddInputField("Progress %", "", 5, tview.InputFieldInteger, nil).
		AddTextArea("Comment", "", 0, 3, textMax, nil).
		AddInputField("Photo file", "", fieldWidth, nil, nil).
		AddInputField("New items", "", fieldWidth, nil, nil)

	c.itemForm.AddButton("Save item", c.saveItem)
	c.itemForm.AddButton("Add items", c.addItems)

	return c.getFormGrid("Checklist", c.itemForm)
}

func (c *Controller) showItemForm() {
	task := c.editableTask()
	if task == nil {
		return
	}

	options := []string{}
	for _, it := range task.Items {
		options = append(options, fmt.Sprintf("%s (%d%%)", it.Name, it.Progress))
	}

	items := dropDown(c.itemForm, "Item")
	items.SetOptions(options, func(text string, idx int) {
		if idx >= 0 && idx < len(task.Items) {
			inputField(c.itemForm, "Progress %").SetText(strconv.Itoa(task.Items[idx].Progress))
		}
	})

	if len(options) > 0 {
		items.SetCurrentOption(0)
	} else {
		inputField(c.itemForm, "Progress %").SetText("")
	}

	textArea(c.itemForm, "Comment").SetText("", false)
	inputField(c.itemForm, "Photo file").SetText("")
	inputField(c.itemForm, "New items").SetText("")

	c.itemForm.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", tview.Escape(task.Name)))
	c.itemForm.SetFocus(0)

	c.switchTo(pageItem, c.handleFormKeys, c.itemForm)
}

func (c *Controller) saveItem() {
	task := c.selectedTask

	idx, err := selected(c.itemForm, "Item")
	if err != nil || idx >= len(task.Items) {
		c.flash("select an item first")

		return
	}

	item := task.Items[idx]

	progress, err := parsePercent(inputField(c.itemForm, "Progress %").GetText())
	if err != nil {
		c.showError(err)

		return
	}

	image, err := c.loadImage(inputField(c.itemForm, "Photo file").GetText())
	if err != nil {
		c.showError(err)

		return
	}

	comment := textArea(c.itemForm, "Comment").GetText()

	if err := c.session.RecordItemProgress(c.ctx, task.ID, item.ID, progress, comment, image); err != nil {
		c.showError(err)

		return
	}

	c.flash(fmt.Sprintf("item %q at %d%%", item.Name, progress))
	c.showBoard()
}

func (c *Controller) addItems() {
	task := c.selectedTask

	names := splitList(inputField(c.itemForm, "New items").GetText())
	if len(names) == 0 {
		c.flash("enter item names separated by commas")

		return
	}

	added, err := c.session.AddItems(c.ctx, task.ID, names)
	if err != nil {
		c.showError(err)

		return
	}

	c.flash(fmt.Sprintf("added %d items", len(added)))

	if t := c.session.DB.Board().Task(task.ID); t != nil {
		c.selectedTask = t
	}

	c.showItemForm()
}

func labels[T fmt.Stringer](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}

	return out
}

func (c *Controller) getTaskFormGrid() *tview.Grid {
	c.taskForm = tview.NewForm().
		AddInputField("Name", "", fieldWidth, nil, nil).
		AddTextArea("Description", "", 0, 3, textMax, nil).
		AddDropDown("Priority", labels(db.Priorities()), 1, nil).
		AddDropDown("Shift", labels(db.Shifts()), 0, nil).
		AddDropDown("Status", labels([]db.Status{db.StatusTodo, db.StatusInProgress}), 0, nil).
		AddInputField("Created", "", 12, nil, nil).
		AddInputField("Start date", "", 12, nil, nil).
		AddInputField("Due date", "", 12, nil, nil).
		AddInputField("Responsible", "", fieldWidth, nil, nil).
		AddTextArea("Items", "", 0, 3, textMax, nil).
		AddTextArea("Document links", "", 0, 2, textMax, nil)

	c.taskForm.AddButton("Create", c.saveTask)
	c.taskForm.SetBorder(true).SetTitle(" New task ")

	return c.getFormGrid("New task", c.taskForm)
}

func (c *Controller) showTaskForm() {
	users, err := c.session.DB.AssignableUsers(c.ctx)
	if err != nil {
		c.showError(err)

		return
	}

	inputField(c.taskForm, "Name").SetText("")
	textArea(c.taskForm, "Description").SetText("", false)
	inputField(c.taskForm, "Created").SetText(c.session.DB.Today().Format(db.DateLayout))
	inputField(c.taskForm, "Start date").SetText(c.session.DB.Today().Format(db.DateLayout))
	inputField(c.taskForm, "Due date").SetText("").SetPlaceholder("YYYY-MM-DD")
	inputField(c.taskForm, "Responsible").SetText("").SetPlaceholder(strings.Join(users, ", "))
	textArea(c.taskForm, "Items").SetText("", false)
	textArea(c.taskForm, "Document links").SetText("", false)

	c.taskForm.SetFocus(0)

	c.switchTo(pageNewTask, c.handleFormKeys, c.taskForm)
}

func (c *Controller) readTaskForm() (db.NewTask, db.Status, error) {
	nt := db.NewTask{
		Name:        inputField(c.taskForm, "Name").GetText(),
		Description: textArea(c.taskForm, "Description").GetText(),
		Links:       textArea(c.taskForm, "Document links").GetText(),
		Items:       splitList(textArea(c.taskForm, "Items").GetText()),
	}

	priority, err := selected(c.taskForm, "Priority")
	if err != nil {
		return nt, db.StatusTodo, err
	}

	shift, err := selected(c.taskForm, "Shift")
	if err != nil {
		return nt, db.StatusTodo, err
	}

	status, err := selected(c.taskForm, "Status")
	if err != nil {
		return nt, db.StatusTodo, err
	}

	nt.Priority = db.Priorities()[priority]
	nt.Shift = db.Shifts()[shift]

	if nt.Date, err = parseDateField("creation date", inputField(c.taskForm, "Created").GetText()); err != nil {
		return nt, db.StatusTodo, err
	}

	if nt.StartDate, err = parseDateField("start date", inputField(c.taskForm, "Start date").GetText()); err != nil {
		return nt, db.StatusTodo, err
	}

	if nt.DueDate, err = parseDateField("due date", inputField(c.taskForm, "Due date").GetText()); err != nil {
		return nt, db.StatusTodo, err
	}

	return nt, []db.Status{db.StatusTodo, db.StatusInProgress}[status], nil
}

func (c *Controller) saveTask() {
	nt, initial, err := c.readTaskForm()
	if err != nil {
		c.showError(err)

		return
	}

	collaborators := splitList(inputField(c.taskForm, "Responsible").GetText())

	task, err := c.session.CreateTask(c.ctx, nt, initial, collaborators)
	if err != nil {
		c.showError(err)

		return
	}

	c.flash(fmt.Sprintf("created task #%d %q", task.ID, task.Name))
	c.showBoard()
}

func areaNames() []string {
	names := []string{}
	for _, a := range db.Areas() {
		names = append(names, a.Name)
	}

	return names
}

func (c *Controller) getMachineFormGrid() *tview.Grid {
	c.machineForm = tview.NewForm().
		AddInputField("Name", "", fieldWidth, nil, nil).
		AddDropDown("Area", areaNames(), 0, nil).
		AddInputField("X", "", 5, tview.InputFieldInteger, nil).
		AddInputField("Y", "", 5, tview.InputFieldInteger, nil).
		AddDropDown("Type", db.MachineTypes(), 0, nil).
		AddDropDown("Status", labels(db.MachineStatuses()), 0, nil).
		AddInputField("Next maintenance", "", 12, nil, nil)

	c.machineForm.AddButton("Add", c.saveMachine)
	c.machineForm.SetBorder(true).SetTitle(fmt.Sprintf(" Add machine (map is %dx%d) ", db.MapSize, db.MapSize))

	return c.getFormGrid("Add machine", c.machineForm)
}

func (c *Controller) saveMachine() {
	nm := db.NewMachine{Name: inputField(c.machineForm, "Name").GetText()}

	_, nm.Area = dropDown(c.machineForm, "Area").GetCurrentOption()
	_, nm.Type = dropDown(c.machineForm, "Type").GetCurrentOption()

	status, err := selected(c.machineForm, "Status")
	if err != nil {
		c.showError(err)

		return
	}

	nm.Status = db.MachineStatuses()[status]

	if nm.X, err = parseNumber("x", inputField(c.machineForm, "X").GetText()); err != nil {
		c.showError(err)

		return
	}

	if nm.Y, err = parseNumber("y", inputField(c.machineForm, "Y").GetText()); err != nil {
		c.showError(err)

		return
	}

	if nm.NextMaintenance, err = parseDateField("next maintenance", inputField(c.machineForm, "Next maintenance").GetText()); err != nil {
		c.showError(err)

		return
	}

	m, err := c.session.AddMachine(c.ctx, nm)
	if err != nil {
		c.showError(err)

		return
	}

	inputField(c.machineForm, "Name").SetText("")

	c.flash(fmt.Sprintf("added machine %q in %s", m.Name, m.Area))
	c.showMap()
}

func (c *Controller) getUsersGrid() *tview.Grid {
	c.usersTable = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	c.usersTable.SetBorder(true).SetTitle(" Users ")

	c.userForm = tview.NewForm().
		AddInputField("Username", "", fieldWidth, nil, nil).
		AddPasswordField("Password", "", fieldWidth, '*', nil).
		AddPasswordField("Confirm", "", fieldWidth, '*', nil).
		AddDropDown("Role", db.Roles(), len(db.Roles())-1, nil)

	c.userForm.AddButton("Create", c.saveUser)
	c.userForm.SetBorder(true).SetTitle(" New user ")

	header := c.getPageHeader("Users", c.formEvents)

	flex := tview.NewFlex().
		AddItem(c.usersTable, 0, 1, false).
		AddItem(c.userForm, 0, 1, true)

	grid := tview.NewGrid().SetRows(header.GetRowCount(), 0).SetBorders(true)

	grid.AddItem(header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(flex, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) showUsers() {
	users, err := c.session.DB.ListUsers(c.ctx)
	if err != nil {
		c.showError(err)

		return
	}

	c.usersTable.Clear()
	c.usersTable.SetCell(0, 0, tview.NewTableCell("[yellow]username").SetExpansion(1))
	c.usersTable.SetCell(0, 1, tview.NewTableCell("[yellow]role").SetExpansion(1))

	for i, u := range users {
		c.usersTable.SetCell(i+1, 0, tview.NewTableCell(tview.Escape(u.Username)))
		c.usersTable.SetCell(i+1, 1, tview.NewTableCell(tview.Escape(orDash(u.Role))))
	}

	for _, label := range []string{"Username", "Password", "Confirm"} {
		inputField(c.userForm, label).SetText("")
	}

	c.userForm.SetFocus(0)

	c.switchTo(pageUsers, c.handleFormKeys, c.userForm)
}

func (c *Controller) saveUser() {
	_, role := dropDown(c.userForm, "Role").GetCurrentOption()

	u, err := c.session.CreateUser(c.ctx,
		inputField(c.userForm, "Username").GetText(),
		inputField(c.userForm, "Password").GetText(),
		inputField(c.userForm, "Confirm").GetText(),
		role,
	)

	inputField(c.userForm, "Password").SetText("")
	inputField(c.userForm, "Confirm").SetText("")

	if err != nil {
		c.showError(err)

		return
	}

	c.flash(fmt.Sprintf("created user %q (%s)", u.Username, u.Role))
	c.showUsers()
}

func (c *Controller) getPasswordFormGrid() *tview.Grid {
	c.passwordForm = tview.NewForm().
		AddInputField("Username", "", fieldWidth, nil, nil).
		AddPasswordField("New password", "", fieldWidth, '*', nil).
		AddPasswordField("Confirm", "", fieldWidth, '*', nil)

	c.passwordForm.AddButton("Change", c.savePassword)
	c.passwordForm.SetBorder(true).SetTitle(" Change password ")

	return c.getFormGrid("Change password", c.passwordForm)
}

func (c *Controller) showPasswordForm() {
	username := inputField(c.passwordForm, "Username")
	username.SetText(c.session.Username())
	username.SetDisabled(!c.session.IsAdmin())

	inputField(c.passwordForm, "New password").SetText("")
	inputField(c.passwordForm, "Confirm").SetText("")

	c.passwordForm.SetFocus(1)

	c.switchTo(pagePassword, c.handleFormKeys, c.passwordForm)
}

func (c *Controller) savePassword() {
	username := strings.TrimSpace(inputField(c.passwordForm, "Username").GetText())

	err := c.session.ChangePassword(c.ctx, username,
		inputField(c.passwordForm, "New password").GetText(),
		inputField(c.passwordForm, "Confirm").GetText(),
	)

	inputField(c.passwordForm, "New password").SetText("")
	inputField(c.passwordForm, "Confirm").SetText("")

	if err != nil {
		c.showError(err)

		return
	}

	c.flash(fmt.Sprintf("password changed for %q", username))
	c.showBoard()
}

func (c *Controller) getClearFormGrid() *tview.Grid {
	c.clearForm = tview.NewForm().
		AddCheckbox("Erase every sheet, users included", false, nil)

	c.clearForm.AddButton("Clear all data", c.clearAll)
	c.clearForm.SetBorder(true).SetTitle(" [red]Danger zone ")

	return c.getFormGrid("Clear all data", c.clearForm)
}

func (c *Controller) showClearForm() {
	checkbox(c.clearForm, "Erase every sheet, users included").SetChecked(false)
	c.clearForm.SetFocus(0)

	c.switchTo(pageClear, c.handleFormKeys, c.clearForm)
}

func (c *Controller) clearAll() {
	confirmed := checkbox(c.clearForm, "Erase every sheet, users included").IsChecked()

	if err := c.session.ClearAll(c.ctx, confirmed); err != nil {
		c.showError(err)

		return
	}

	c.selectedTask = nil
	c.filter = ""

	c.flash("all data cleared")
	c.showBoard()
}
