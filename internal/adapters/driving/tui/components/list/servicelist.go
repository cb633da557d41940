// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/core/domain"
)

// ServiceList displays the services of a graph in a navigable list.
// The highlighted service shows what it depends on and what uses it.
type ServiceList struct {
	graph    *domain.ServiceGraph
	services []domain.Service
	usedBy   map[string][]string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewServiceList creates a new service list component.
func NewServiceList(s *styles.Styles) *ServiceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ServiceList{
		styles: s,
		width:  80,
		height: 20,
	}
}

// Update handles list navigation messages.
func (l *ServiceList) Update(msg tea.Msg) (*ServiceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.services) > 0 {
				l.selected = len(l.services) - 1
			}
		}
	}
	return l, nil
}

// View renders the service list.
func (l *ServiceList) View() string {
	if len(l.services) == 0 {
		return l.styles.Muted.Render("No services")
	}

	// Two lines per service plus detail lines for the selected one.
	visible := (l.height - 4) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.services) {
		end = len(l.services)
	}

	lines := make([]string, 0, end-start+2)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderService(i, l.services[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *ServiceList) renderService(index int, s domain.Service) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := truncate(s.Label(), l.width-30)
	kind := "internal"
	kindStyle := l.styles.Internal
	if s.IsExternal() {
		kind = "external"
		kindStyle = l.styles.External
	}

	var line string
	if index == l.selected {
		line = l.styles.Selected.Render(fmt.Sprintf("%s%-*s", indicator, l.width-30, name))
	} else {
		line = l.styles.Normal.Render(fmt.Sprintf("%s%-*s", indicator, l.width-30, name))
	}
	line += " " + kindStyle.Render(fmt.Sprintf("[%s]", kind))
	if s.RootPath != "" {
		line += " " + l.styles.Muted.Render(s.RootPath)
	}

	if index != l.selected {
		return line
	}

	details := make([]string, 0, 3)
	if s.Description != "" {
		details = append(details, l.styles.Muted.Render("    "+truncate(s.Description, l.width-6)))
	}
	details = append(details,
		l.styles.Subtitle.Render("    depends on: ")+l.styles.Normal.Render(l.dependsOn(s.ID)),
		l.styles.Subtitle.Render("    used by:    ")+l.styles.Normal.Render(orDash(l.usedBy[s.ID])),
	)
	return line + "\n" + strings.Join(details, "\n")
}

func (l *ServiceList) dependsOn(id string) string {
	deps := l.graph.DependenciesOf(id)
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Label())
	}
	return orDash(names)
}

// SetGraph replaces the listed services and resets the selection.
func (l *ServiceList) SetGraph(g *domain.ServiceGraph) {
	l.graph = g
	l.services = nil
	l.usedBy = map[string][]string{}
	l.selected = 0
	if g == nil {
		return
	}
	l.services = g.SortedServices()
	for _, e := range g.Edges() {
		label := e.From
		if from, ok := g.Get(e.From); ok {
			label = from.Label()
		}
		l.usedBy[e.To] = append(l.usedBy[e.To], label)
	}
	for id := range l.usedBy {
		sort.Strings(l.usedBy[id])
	}
}

// Services returns the listed services in display order.
func (l *ServiceList) Services() []domain.Service {
	return l.services
}

// Selected returns the index of the selected service.
func (l *ServiceList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *ServiceList) SetSelected(index int) {
	if index >= 0 && index < len(l.services) {
		l.selected = index
	}
}

// SelectedService returns the highlighted service, or nil if the list is empty.
func (l *ServiceList) SelectedService() *domain.Service {
	if len(l.services) == 0 {
		return nil
	}
	return &l.services[l.selected]
}

// MoveUp moves selection up.
func (l *ServiceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ServiceList) MoveDown() {
	if l.selected < len(l.services)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ServiceList) SetDimensions(width, height int) {
	if width < 40 {
		width = 40
	}
	l.width = width
	l.height = height
}

// Count returns the number of services.
func (l *ServiceList) Count() int {
	return len(l.services)
}

func truncate(s string, n int) string {
	if n < 10 {
		n = 10
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
