// Package keymap defines keybindings for the run browser.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the run browser's full set of bindings.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Delete key.Binding
	Reload key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-flavoured defaults.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:   binding("q", "quit", "q", "ctrl+c"),
		Help:   binding("?", "help", "?"),
		Back:   binding("esc", "back", "esc"),
		Up:     binding("↑/k", "up", "up", "k"),
		Down:   binding("↓/j", "down", "down", "j"),
		Select: binding("enter", "open", "enter"),
		Delete: binding("d", "delete", "d", "delete"),
		Reload: binding("r", "reload", "r"),
	}
}

// ShortHelp is shown when a view has no bindings of its own.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// RunsHelp is the status-bar hint for the runs list.
func (k *KeyMap) RunsHelp() []key.Binding {
	return []key.Binding{k.Select, k.Delete, k.Reload, k.Quit}
}

// DetailHelp is the status-bar hint for a single run.
func (k *KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back, k.Quit}
}

// FullHelp groups every binding into columns for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Delete, k.Reload, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr is one of b's keys.
func Matches(keyStr string, b key.Binding) bool {
	return slices.Contains(b.Keys(), keyStr)
}
