package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/squirreljetpack/matchmaker"
)

// keysModel echoes the normalized trigger for each input until ctrl-c.
// Lets users discover the exact trigger strings the [binds] table expects.
type keysModel struct {
	last []string
}

func (m keysModel) Init() tea.Cmd {
	return nil
}

func (m keysModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		t := matchmaker.KeyOf(msg.String())
		if t.Key == "ctrl-c" {
			return m, tea.Quit
		}
		m.last = append(m.last, t.String())
		if len(m.last) > 20 {
			m.last = m.last[len(m.last)-20:]
		}
	}
	return m, nil
}

func (m keysModel) View() string {
	out := "press keys to see their trigger names; ctrl-c quits\n\n"
	for _, l := range m.last {
		out += "  " + l + "\n"
	}
	return out
}

// runKeysTest starts the key test screen.
func runKeysTest() int {
	p := tea.NewProgram(keysModel{})
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return matchmaker.ExitQuit
	}
	return matchmaker.ExitAccept
}
