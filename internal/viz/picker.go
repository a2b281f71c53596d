package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

const (
	stateMenu = iota
	stateSim
)

// picker lists presets and hands the chosen one to a live Model.
type picker struct {
	state, cursor int
	presets       []string
	launch        func(preset string) (Model, error)
	live          Model
	err           error
}

// NewPicker returns a menu over presets; launch builds the live view for
// the selected one.
func NewPicker(presets []string, launch func(preset string) (Model, error)) tea.Model {
	return picker{presets: presets, launch: launch}
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ", "space":
		if len(p.presets) == 0 {
			return p, nil
		}
		live, err := p.launch(p.presets[p.cursor])
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live, p.state, p.err = live, stateSim, nil
		return p, p.live.Init()
	}
	return p, nil
}

func (p picker) View() string {
	if p.state == stateSim {
		return p.live.View()
	}

	var b strings.Builder
	b.WriteString(headerStyle().Render("SPHERRO") + "\n")
	for i, name := range p.presets {
		if i == p.cursor {
			b.WriteString(cyan.Render("> "+name) + "\n")
		} else {
			b.WriteString(dim.Render("  "+name) + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n" + statusStyle(CurrentTheme.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("↑↓:Select Enter:Run Q:Quit"))
	return b.String()
}
