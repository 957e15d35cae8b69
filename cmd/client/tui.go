package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ghuser/itemsapi/services/item/client"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

type keyMap struct {
	Up, Down, Add, Edit, Delete, Reload, Logout, Quit key.Binding
	Yes, No, Next, Save, Cancel                       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Logout: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logout")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		No:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "keep")),
		Next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Save:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// opDoneMsg reports that a controller operation returned.
type opDoneMsg struct{}

type model struct {
	ctx   context.Context
	ctrl  *client.Controller
	state client.State

	username, password textinput.Model
	name, description  textinput.Model
	focus              int
	cursor             int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func newModel(ctx context.Context, ctrl *client.Controller, username string) model {
	newInput := func(placeholder string, limit int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Prompt = "> "
		return ti
	}

	m := model{
		ctx:         ctx,
		ctrl:        ctrl,
		state:       ctrl.Snapshot(),
		username:    newInput("username", 128),
		password:    newInput("password", 256),
		name:        newInput("name", 255),
		description: newInput("description", 1000),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.password.EchoMode = textinput.EchoPassword
	m.username.SetValue(username)
	if username != "" {
		m.focus = 1
	}
	m.focusLogin()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// run executes op off the UI goroutine.
func (m model) run(op func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		op(m.ctx)
		return opDoneMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case opDoneMsg:
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Loading {
			return m, nil
		}
		switch {
		case m.state.View == client.ViewLogin:
			return m.updateLogin(msg)
		case m.state.FormVisible:
			return m.updateForm(msg)
		default:
			return m.updateItems(msg)
		}
	}
	return m, nil
}

func (m *model) refresh() {
	m.state = m.ctrl.Snapshot()
	if m.cursor >= len(m.state.Items) {
		m.cursor = max(len(m.state.Items)-1, 0)
	}
}

func (m model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.focus = 1 - m.focus
		m.focusLogin()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		user, pass := strings.TrimSpace(m.username.Value()), m.password.Value()
		m.password.SetValue("")
		m.state.Loading = true
		return m, m.run(func(ctx context.Context) { m.ctrl.Login(ctx, user, pass) })
	case msg.String() == "esc":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m model) updateItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.PendingDelete != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.state.Loading = true
			return m, m.run(m.ctrl.ConfirmDelete)
		case key.Matches(msg, m.keys.No):
			m.ctrl.CancelDelete()
			m.refresh()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Reload):
		m.state.Loading = true
		return m, m.run(m.ctrl.LoadItems)
	case key.Matches(msg, m.keys.Add):
		m.ctrl.ShowForm()
		m.openForm()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.selected(); ok {
			m.ctrl.BeginEdit(it)
			m.openForm()
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			m.ctrl.RequestDelete(it.ID)
			m.refresh()
		}
	case key.Matches(msg, m.keys.Logout):
		m.ctrl.Logout()
		m.refresh()
		m.focus = 0
		m.focusLogin()
	}
	return m, nil
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.CancelForm()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.focus = 1 - m.focus
		m.focusForm()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		m.state.Loading = true
		return m, m.run(m.ctrl.Submit)
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	m.ctrl.SetFormData(client.FormData{Name: m.name.Value(), Description: m.description.Value()})
	return m, cmd
}

func (m *model) openForm() {
	m.refresh()
	m.name.SetValue(m.state.FormData.Name)
	m.description.SetValue(m.state.FormData.Description)
	m.name.CursorEnd()
	m.description.CursorEnd()
	m.focus = 0
	m.focusForm()
}

func (m *model) focusLogin() {
	if m.focus == 0 {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.username.Blur()
	}
}

func (m *model) focusForm() {
	if m.focus == 0 {
		m.name.Focus()
		m.description.Blur()
	} else {
		m.description.Focus()
		m.name.Blur()
	}
}

func (m model) selected() (client.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Items) {
		return client.Item{}, false
	}
	return m.state.Items[m.cursor], true
}

func (m model) View() string {
	var b strings.Builder
	switch {
	case m.state.View == client.ViewLogin:
		b.WriteString(m.loginView())
	case m.state.FormVisible:
		b.WriteString(m.formView())
	default:
		b.WriteString(m.itemsView())
	}

	if m.state.Loading {
		b.WriteString("\n" + m.spinner.View() + mutedStyle.Render(" working..."))
	}
	if m.state.Error != "" {
		b.WriteString("\n" + errorStyle.Render(m.state.Error))
	}
	return panelStyle.Render(b.String())
}

func (m model) loginView() string {
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		titleStyle.Render("Sign in"),
		m.username.View(),
		m.password.View(),
		m.help.ShortHelpView([]key.Binding{m.keys.Next, m.keys.Save}),
	)
}

func (m model) formView() string {
	title := "Add New Item"
	if m.state.EditingItem != nil {
		title = fmt.Sprintf("Edit Item #%d", m.state.EditingItem.ID)
	}
	return fmt.Sprintf("%s\n\nName *\n%s\nDescription\n%s\n\n%s",
		titleStyle.Render(title),
		m.name.View(),
		m.description.View(),
		m.help.ShortHelpView([]key.Binding{m.keys.Next, m.keys.Save, m.keys.Cancel}),
	)
}

func (m model) itemsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Items (%d)", len(m.state.Items))) + "\n\n")

	if len(m.state.Items) == 0 {
		b.WriteString(mutedStyle.Render("No items yet. Press a to add one.") + "\n")
	}
	for i, it := range m.state.Items {
		desc := mutedStyle.Render("-")
		if it.Description != nil && *it.Description != "" {
			desc = *it.Description
		}
		line := fmt.Sprintf("#%-4d %-24s %s  %s", it.ID, it.Name, desc,
			mutedStyle.Render(it.UpdatedAt.Local().Format("2006-01-02 15:04")))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n")
	if m.state.PendingDelete != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete item #%d? ", *m.state.PendingDelete)))
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Yes, m.keys.No}))
		return b.String()
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Add, m.keys.Edit, m.keys.Delete,
		m.keys.Reload, m.keys.Logout, m.keys.Quit,
	}))
	return b.String()
}
