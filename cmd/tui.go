package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/command"
	"github.com/tyrian-games/luthadel/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A3696")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)
)

// sweepTickMsg drives the phase timer while the console is open.
type sweepTickMsg time.Time

func sweepTick() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return sweepTickMsg(t)
	})
}

type consoleModel struct {
	con        *console
	textInput  textinput.Model
	viewport   viewport.Model
	history    []string
	historyIdx int
	logContent string
	width      int
	height     int
}

func newConsoleModel(con *console) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g., !creategame)..."
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60

	welcome := "Welcome to the Luthadel console.\nType 'exit' to quit, !help for game commands."
	vp := viewport.New(0, 0)
	vp.SetContent(welcome)

	return consoleModel{
		con:        con,
		textInput:  ti,
		viewport:   vp,
		history:    []string{},
		historyIdx: -1,
		logContent: welcome,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, sweepTick())
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.history) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.history[m.historyIdx])
			}

		case tea.KeyDown:
			if len(m.history) > 0 && m.historyIdx != -1 {
				if m.historyIdx < len(m.history)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.history[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}

			if val != "" {
				// Prevent duplicate history entries
				if len(m.history) == 0 || m.history[len(m.history)-1] != val {
					m.history = append(m.history, val)
				}
				m.historyIdx = -1
				m.textInput.SetValue("")

				m.appendLog(fmt.Sprintf("\n\n%s@%s> %s", m.con.actor, m.con.where, val))
				for _, line := range m.con.handle(val) {
					m.appendLog("\n" + line)
				}
			}
		default:
			// Normal typing
			m.textInput, tiCmd = m.textInput.Update(msg)
		}

	case sweepTickMsg:
		for _, ev := range m.con.games.Sweep(time.Time(msg)) {
			for _, line := range m.con.renderNotes(ev.Notes) {
				m.appendLog("\n" + line)
			}
			if ev.Transition != nil {
				for _, line := range m.con.renderNotes(ev.Transition.Notes) {
					m.appendLog("\n" + line)
				}
			}
		}
		return m, sweepTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	// Size the log to whatever the fixed components leave over.
	titleH := lipgloss.Height(titleStyle.Render("Dummy"))
	stateH := lipgloss.Height(m.renderState())
	infoH := lipgloss.Height(infoStyle.Render("Dummy"))
	overhead := titleH + stateH + infoH + 8

	m.viewport.Height = m.height - overhead
	if m.viewport.Height < 4 {
		m.viewport.Height = 4
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *consoleModel) appendLog(text string) {
	m.logContent += text
	m.viewport.SetContent(m.logContent)
	m.viewport.GotoBottom()
}

func (m *consoleModel) renderState() string {
	stateView := "=== Game State ===\n\n"

	status, err := m.con.games.GameStatus(consoleGuild)
	if err != nil {
		stateView += "No game yet. Start one with !creategame."
		return stateBoxStyle.Width(m.width - 4).Render(stateView)
	}

	switch status.Status {
	case engine.StatusSetup:
		stateView += fmt.Sprintf("Setting up, %d players signed up.\n", status.Players)
	case engine.StatusActive:
		phase := "Night"
		if status.Phase == engine.PhaseDay {
			phase = "Day"
		}
		stateView += fmt.Sprintf("%s %d, %d of %d alive.\n", phase, status.DayNumber, status.Village+status.Elims, status.Players)
		if !status.PhaseEndsAt.IsZero() {
			stateView += fmt.Sprintf("Phase ends %s.\n", status.PhaseEndsAt.Format("15:04:05"))
		}
	case engine.StatusEnded:
		stateView += fmt.Sprintf("Finished. Winner: %s.\n", status.Winner)
	}

	if roster, err := m.con.games.PlayerList(consoleGuild, true); err == nil {
		stateView += "\n" + roster
	}

	return stateBoxStyle.Width(m.width - 4).Render(stateView)
}

func (m *consoleModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf(" Luthadel | %s @ %s ", m.con.actor, m.con.where))
	stateBox := m.renderState()
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		stateBox,
		logBox,
		"\n",
		m.textInput.View(),
		infoStyle.Render("(esc to quit, up/down history, 'as NAME' and 'in game|private|elim' to switch)"),
	)
}

// RunConsole starts the local moderation TUI.
func RunConsole(games *engine.Registry, log *zap.Logger) error {
	con := &console{
		games:    games,
		commands: command.NewDispatcher(),
		log:      log,
		actor:    "GM",
		where:    placeGame,
	}
	m := newConsoleModel(con)
	con.platform = &consolePlatform{output: func(line string) {
		m.appendLog("\n" + line)
	}}
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
