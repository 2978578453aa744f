package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/simforge/guestio/internal/console"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// promptStyle defines the style for the modal input prompt.
	promptStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#F25D94")).
			Padding(0, 1)

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

const (
	maxConsoleLines = 500
	maxLogLines     = 100
)

// OutputMsg is guest console output. It is typed for identification as
// [tea.Msg] within a [tea.Program].
type OutputMsg string

// LogMsg is a regular string containing a log message. It is typed for
// identification as [tea.Msg] within a [tea.Program].
type LogMsg string

// PromptMsg raises the modal input prompt for a pending guest input
// request. The submitted line is delivered over Reply.
type PromptMsg struct {
	Request console.InputRequest
	Reply   chan string
}

// TeaModel is the principal [tea.Model] for the command-line user
// interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders int

	consoleLines    []string
	consoleViewport viewport.Model

	logs         []string
	logsViewport viewport.Model

	input  textinput.Model
	prompt *PromptMsg

	bytesEmitted uint64
	inputsServed uint64

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	consoleViewport := viewport.New(80, 15)
	logsViewport := viewport.New(80, 8)

	input := textinput.New()
	input.Prompt = "> "

	return TeaModel{
		uiHandler:       uiHandler,
		cancel:          cancel,
		consoleLines:    make([]string, 0, maxConsoleLines),
		consoleViewport: consoleViewport,
		logs:            make([]string, 0, maxLogLines),
		logsViewport:    logsViewport,
		input:           input,
		ready:           false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update is the principal message handling method of the model. It sets the
// internal state of the model, for later rendering.
//
//nolint:funlen,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != nil {
			switch msg.String() {
			case "ctrl+c":
				m.cancel()

				return m, tea.Quit
			case "enter":
				m.prompt.Reply <- m.input.Value()
				m.prompt = nil
				m.inputsServed++
				m.input.Blur()
				m.input.SetValue("")
			default:
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
			}

			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2

		// The console pane takes about 60% of the height, logs the rest.
		consoleHeight := m.height * 3 / 5
		logsHeight := m.height - consoleHeight

		m.consoleViewport.Width = m.fullWidthWithBorders
		m.consoleViewport.Height = consoleHeight - 3

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = logsHeight - 4

		m.input.Width = m.fullWidthWithBorders - 4

		m.refreshConsole()
		m.refreshLogs()

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case OutputMsg:
		if len(m.consoleLines) >= maxConsoleLines {
			m.consoleLines = m.consoleLines[1:]
		}

		m.consoleLines = append(m.consoleLines, string(msg))
		m.bytesEmitted += uint64(len(msg))

		m.refreshConsole()

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}

		m.logs = append(m.logs, string(msg))

		m.refreshLogs()

	case PromptMsg:
		prompt := msg
		m.prompt = &prompt

		m.input.SetValue(prompt.Request.Initial)
		m.input.CharLimit = prompt.Request.MaxLength - 1
		cmds = append(cmds, m.input.Focus())
	}

	// Handle viewport updates.
	m.consoleViewport, cmd = m.consoleViewport.Update(msg)
	cmds = append(cmds, cmd)

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refreshConsole re-renders the console pane content and scrolls to the
// bottom.
func (m *TeaModel) refreshConsole() {
	if len(m.consoleLines) == 0 {
		return
	}

	content := lipgloss.NewStyle().
		Width(m.consoleViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.consoleLines, ""), "\n"))

	m.consoleViewport.SetContent(content)
	m.consoleViewport.GotoBottom()
}

// refreshLogs re-renders the log pane content and scrolls to the bottom.
func (m *TeaModel) refreshLogs() {
	if len(m.logs) == 0 {
		return
	}

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the console..."
	}

	var s strings.Builder

	consoleSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Guest Console"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.consoleViewport.View()),
			),
		)

	var middleSection string
	if m.prompt != nil {
		middleSection = promptStyle.
			Width(m.fullWidthWithBorders).
			Render(
				lipgloss.JoinVertical(
					lipgloss.Left,
					infoStyle.Render(fmt.Sprintf("%s: %s", m.prompt.Request.Title, m.prompt.Request.Prompt)),
					m.input.View(),
				),
			)
	} else {
		middleSection = helpStyle.
			Width(m.fullWidthWithBorders).
			Render(fmt.Sprintf(
				"Emitted: %s • Inputs served: %d",
				humanize.Bytes(m.bytesEmitted),
				m.inputsServed,
			))
	}

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Process Information"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit gui • ctrl+c: quit program")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		consoleSection,
		middleSection,
		logsSection,
		helpSection,
	))

	return s.String()
}
