package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/sharedptr/shared"
)

const maxLogLines = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// logWriter collects constructor and destructor messages line by line.
type logWriter struct {
	lines   []string
	partial string
}

func (w *logWriter) Write(p []byte) (int, error) {
	text := w.partial + string(p)
	parts := strings.Split(text, "\n")
	w.partial = parts[len(parts)-1]
	w.lines = append(w.lines, parts[:len(parts)-1]...)
	return len(p), nil
}

func (w *logWriter) tail(n int) []string {
	if len(w.lines) <= n {
		return w.lines
	}
	return w.lines[len(w.lines)-n:]
}

type modelState int

const (
	stateBrowse modelState = iota
	stateNaming
)

type interactiveModel struct {
	err      error
	log      *logWriter
	handles  []*shared.Handle[Base]
	input    textinput.Model
	selected int
	marked   int
	state    modelState
}

func newInteractiveModel() *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "label"
	ti.Prompt = "new value: "
	ti.Width = 30

	return &interactiveModel{
		log:    &logWriter{},
		input:  ti,
		marked: -1,
		state:  stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateNaming {
		switch key.String() {
		case "enter":
			m.create(strings.TrimSpace(m.input.Value()))
			m.input.Reset()
			m.input.Blur()
			m.state = stateBrowse
			return m, nil
		case "esc":
			m.input.Reset()
			m.input.Blur()
			m.state = stateBrowse
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.err = nil
	switch key.String() {
	case "ctrl+c", "q":
		for _, h := range m.handles {
			h.Release()
		}
		m.handles = nil
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.handles)-1 {
			m.selected++
		}

	case "n":
		m.state = stateNaming
		return m, m.input.Focus()

	case "e":
		m.handles = append(m.handles, &shared.Handle[Base]{})
		m.selected = len(m.handles) - 1

	case "c":
		if h := m.current(); h != nil {
			m.handles = append(m.handles, h.Clone())
			m.selected = len(m.handles) - 1
		}

	case "m":
		if m.current() != nil {
			m.marked = m.selected
		}

	case "a":
		if h := m.current(); h != nil && m.marked >= 0 && m.marked < len(m.handles) {
			h.Assign(m.handles[m.marked])
		}

	case "r":
		if h := m.current(); h != nil {
			h.Reset()
		}

	case "d":
		m.drop()
	}

	return m, nil
}

func (m *interactiveModel) current() *shared.Handle[Base] {
	if m.selected < 0 || m.selected >= len(m.handles) {
		return nil
	}
	return m.handles[m.selected]
}

func (m *interactiveModel) create(label string) {
	if label == "" {
		label = fmt.Sprintf("value-%d", len(m.handles)+1)
	}
	h, err := shared.MakeAs[Base](NewDerived(m.log, label))
	if err != nil {
		m.err = err
		return
	}
	m.handles = append(m.handles, h)
	m.selected = len(m.handles) - 1
}

func (m *interactiveModel) drop() {
	h := m.current()
	if h == nil {
		return
	}
	h.Release()
	m.handles = append(m.handles[:m.selected], m.handles[m.selected+1:]...)

	switch {
	case m.marked == m.selected:
		m.marked = -1
	case m.marked > m.selected:
		m.marked--
	}
	if m.selected >= len(m.handles) && m.selected > 0 {
		m.selected--
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Shared Handles"))
	b.WriteString("\n\n")

	if len(m.handles) == 0 {
		b.WriteString("No handles. Press n to create a value.\n")
	}
	for i, h := range m.handles {
		line := m.formatHandle(i, h)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.state == stateNaming {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\nLifecycle:\n")
	for _, line := range m.log.tail(maxLogLines) {
		b.WriteString(logStyle.Render("  " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateNaming {
		b.WriteString(helpStyle.Render("enter create • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("n new • e empty • c clone • m mark • a assign marked • r reset • d drop • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatHandle(i int, h *shared.Handle[Base]) string {
	mark := " "
	if i == m.marked {
		mark = "*"
	}
	v, ok := h.Value()
	if !ok {
		return fmt.Sprintf("%s#%d %s", mark, i+1, countStyle.Render("(empty)"))
	}
	return fmt.Sprintf("%s#%d %s %s", mark, i+1,
		nameStyle.Render(v.Name()),
		countStyle.Render(fmt.Sprintf("use_count=%d", h.UseCount())))
}

func runInteractive() error {
	p := tea.NewProgram(newInteractiveModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
