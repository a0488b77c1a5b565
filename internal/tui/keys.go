package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jask/signalfromnoise/internal/wizard"
)

type keyMap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Toggle  key.Binding
	Back    key.Binding
	Filter  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Zip     key.Binding
	Dismiss key.Binding
	Help    key.Binding

	step wizard.Step
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		Prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Zip:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zip")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// forStep returns a copy whose help lists only the bindings of step.
func (k keyMap) forStep(step wizard.Step) keyMap {
	k.step = step
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	switch k.step {
	case wizard.StepCategories:
		return []key.Binding{k.Toggle, k.Enter, k.Back, k.Quit}
	case wizard.StepDashboard:
		return []key.Binding{k.Zip, k.Refresh, k.Next, k.Prev, k.Back, k.Quit}
	default:
		return []key.Binding{k.Filter, k.Enter, k.Quit}
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Filter, k.Toggle, k.Next, k.Prev},
		{k.Refresh, k.Zip, k.Dismiss, k.Help, k.Quit},
	}
}
