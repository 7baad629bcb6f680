// Package tui renders the interactive viewer used by the listen command.
// Batches flushed by the server are pushed into a scrollback viewport;
// the viewer follows the tail until the user scrolls up.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxScrollback caps retained lines so a long-running viewer stays bounded.
const maxScrollback = 5000

type batchMsg []string

type connsMsg int

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	followStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Viewer wraps a bubbletea program so the rest of the process can feed it
// without knowing anything about terminal rendering.
type Viewer struct {
	prog *tea.Program
}

func NewViewer(title string) *Viewer {
	return &Viewer{
		prog: tea.NewProgram(newModel(title), tea.WithAltScreen()),
	}
}

// Sink delivers a flushed batch to the viewer. Safe to call from any
// goroutine; batches arriving before Run are queued by the program.
func (v *Viewer) Sink(records []string) {
	v.prog.Send(batchMsg(records))
}

// SetConnections updates the producer count shown in the status bar.
func (v *Viewer) SetConnections(n int) {
	v.prog.Send(connsMsg(n))
}

// Run blocks until the user quits or Quit is called.
func (v *Viewer) Run() error {
	_, err := v.prog.Run()
	return err
}

// Quit asks the program to exit. Run returns shortly after.
func (v *Viewer) Quit() {
	v.prog.Quit()
}

type model struct {
	title  string
	vp     viewport.Model
	ready  bool
	follow bool
	lines  []string
	total  int
	conns  int
	width  int
}

func newModel(title string) model {
	return model{title: title, follow: true}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 1
		footerHeight := 1
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.vp.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - headerHeight - footerHeight
		}
		if m.follow {
			m.vp.GotoBottom()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f", "end":
			m.follow = true
			m.vp.GotoBottom()
			return m, nil
		case "up", "pgup", "k", "home":
			m.follow = false
		}

	case batchMsg:
		m.lines = append(m.lines, msg...)
		m.total += len(msg)
		if len(m.lines) > maxScrollback {
			m.lines = m.lines[len(m.lines)-maxScrollback:]
		}
		if m.ready {
			m.vp.SetContent(strings.Join(m.lines, "\n"))
			if m.follow {
				m.vp.GotoBottom()
			}
		}
		return m, nil

	case connsMsg:
		m.conns = int(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "starting viewer..."
	}
	return m.headerView() + "\n" + m.vp.View() + "\n" + m.footerView()
}

func (m model) headerView() string {
	return titleStyle.Render(m.title)
}

func (m model) footerView() string {
	mode := followStyle.Render("following")
	if !m.follow {
		mode = pausedStyle.Render("paused (f to follow)")
	}
	stats := statusStyle.Render(fmt.Sprintf("  %d lines  %d producers  q to quit", m.total, m.conns))
	return mode + stats
}
