package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/domain"
)

func shopGraph() *domain.ServiceGraph {
	g := domain.NewServiceGraph()
	api := domain.NewService("API", "Public REST API", "services/api")
	worker := domain.NewService("Worker", "", "services/worker")
	pg := domain.NewService("PostgreSQL", "", "")
	g.AddDependency(api, pg)
	g.AddDependency(worker, pg)
	g.AddDependency(api, worker)
	return g
}

func TestNewServiceList(t *testing.T) {
	l := NewServiceList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedService())
	assert.Contains(t, l.View(), "No services")
}

func TestServiceList_SetGraph(t *testing.T) {
	l := NewServiceList(nil)
	l.SetSelected(2)

	l.SetGraph(shopGraph())

	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, "api", l.SelectedService().ID)

	l.SetGraph(nil)
	assert.Equal(t, 0, l.Count())
}

func TestServiceList_Navigation(t *testing.T) {
	l := NewServiceList(nil)
	l.SetGraph(shopGraph())

	key := func(s string) tea.KeyMsg {
		if s == "down" {
			return tea.KeyMsg{Type: tea.KeyDown}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	l.Update(key("j"))
	assert.Equal(t, 1, l.Selected())
	l.Update(key("down"))
	assert.Equal(t, 2, l.Selected())
	l.Update(key("j"))
	assert.Equal(t, 2, l.Selected(), "stops at the last service")
	l.Update(key("k"))
	assert.Equal(t, 1, l.Selected())
	l.Update(key("g"))
	assert.Equal(t, 0, l.Selected())
	l.Update(key("G"))
	assert.Equal(t, 2, l.Selected())
	l.MoveUp()
	l.MoveUp()
	l.MoveUp()
	assert.Equal(t, 0, l.Selected())
}

func TestServiceList_SetSelected_OutOfRange(t *testing.T) {
	l := NewServiceList(nil)
	l.SetGraph(shopGraph())

	l.SetSelected(7)
	assert.Equal(t, 0, l.Selected())
	l.SetSelected(-1)
	assert.Equal(t, 0, l.Selected())
}

func TestServiceList_View(t *testing.T) {
	l := NewServiceList(nil)
	l.SetDimensions(100, 30)
	l.SetGraph(shopGraph())

	view := l.View()

	assert.Contains(t, view, "> API")
	assert.Contains(t, view, "[internal] services/api")
	assert.Contains(t, view, "[external]")
	assert.Contains(t, view, "Public REST API")
	assert.Contains(t, view, "depends on: PostgreSQL, Worker")
	assert.Contains(t, view, "used by:    -")

	l.MoveDown()
	view = l.View()
	assert.Contains(t, view, "used by:    API, Worker")
}

func TestServiceList_ViewScrolls(t *testing.T) {
	l := NewServiceList(nil)
	l.SetDimensions(80, 6)
	l.SetGraph(shopGraph())
	l.SetSelected(2)

	view := l.View()

	assert.Contains(t, view, "> Worker")
	assert.NotContains(t, view, "services/api")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 3))
}
