package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/scenes"
)

type menuItem struct {
	scene, preset, description string
}

// Menu lists every scene preset and opens the chosen one in a live view.
type Menu struct {
	opts   Options
	items  []menuItem
	cursor int
	live   *Model
	err    error
}

func NewMenu(opts Options) Menu {
	if opts.Registry == nil {
		opts.Registry = scenes.NewRegistry()
	}
	m := Menu{opts: opts}
	for _, scene := range opts.Registry.List() {
		for _, preset := range config.ListPresets(scene) {
			m.items = append(m.items, menuItem{scene, preset, opts.Registry.Describe(scene)})
		}
	}
	return m
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		next, cmd := m.live.Update(msg)
		live := next.(Model)
		m.live = &live
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) == 0 {
			return m, nil
		}
		it := m.items[m.cursor]
		opts := m.opts
		opts.Config = config.GetPreset(it.scene, it.preset)
		live, err := NewModel(opts)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live = &live
		return m, tea.Batch(tea.WindowSize(), live.Init())
	}
	return m, nil
}

func (m Menu) View() string {
	if m.live != nil {
		return m.live.View()
	}
	st := Themes[0].styles()
	var b strings.Builder
	b.WriteString("\n\n    " + st.title.Render("PHYSYNC") + "\n")
	b.WriteString("    " + st.muted.Render("rigid bodies bound to scene nodes") + "\n\n")
	for i, it := range m.items {
		name := fmt.Sprintf("%-10s %-10s", it.scene, it.preset)
		if i == m.cursor {
			b.WriteString("    " + st.key.Render("▸ ") + lipgloss.NewStyle().Bold(true).Render(name) + "  " + st.muted.Render(it.description) + "\n")
		} else {
			b.WriteString("      " + st.muted.Render(name) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + st.warn.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + st.key.Render("j/k") + st.muted.Render(" navigate  ") + st.key.Render("enter") + st.muted.Render(" open  ") + st.key.Render("q") + st.muted.Render(" quit") + "\n")
	return b.String()
}

// RunMenu starts the scene picker and blocks until it quits.
func RunMenu(opts Options) error {
	_, err := tea.NewProgram(NewMenu(opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
