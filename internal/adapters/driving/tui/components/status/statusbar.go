// Package status provides the status bar of the run browser.
package status

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
)

// State selects what the left side of the bar shows.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
	StateHelp    State = "help"
)

const defaultWidth = 80

// Bar shows the app state on the left and key hints on the right.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	help     help.Model
	bindings []key.Binding
	state    State
	message  string
	count    int
	noun     string
	width    int
}

// NewBar falls back to the default styles and keymap when given nil.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Muted
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles:   s,
		keymap:   km,
		help:     h,
		bindings: km.ShortHelp(),
		state:    StateReady,
		width:    defaultWidth,
	}
}

// View pads between the two halves so the hints sit flush right.
func (s *Bar) View() string {
	left, right := s.status(), s.help.ShortHelpView(s.bindings)
	gap := max(1, s.width-lipgloss.Width(left)-lipgloss.Width(right))
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateError:
		text := "Error"
		if s.message != "" {
			text += ": " + s.message
		}
		return s.styles.Error.Render(text)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	}
	switch {
	case s.message != "":
		return s.styles.Success.Render(s.message)
	case s.noun != "":
		return s.styles.Normal.Render(strconv.Itoa(s.count) + " " + s.noun)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State { return s.state }

// SetMessage replaces the ready or error text.
func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string { return s.message }

// SetCount shows "<count> <noun>" while ready and no message is set.
func (s *Bar) SetCount(count int, noun string) {
	s.count, s.noun = count, noun
}

// SetBindings replaces the key hints.
func (s *Bar) SetBindings(bindings []key.Binding) { s.bindings = bindings }

func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int { return s.width }

// Clear returns to the initial ready state with the short help hints.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.count, s.noun = 0, ""
	s.bindings = s.keymap.ShortHelp()
}
