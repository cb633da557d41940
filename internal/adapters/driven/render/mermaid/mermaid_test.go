package mermaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

func TestRenderer_Render(t *testing.T) {
	g := domain.NewServiceGraph()
	api := domain.NewService("API", "", "services/api")
	web := domain.NewService(`Web "App"`, "", "web")
	stripe := domain.NewService("Stripe API", "", "")
	g.AddDependency(web, api)
	g.AddDependency(api, stripe)

	out, err := New().Render(g, driven.RenderOptions{})

	require.NoError(t, err)
	want := `graph LR
    api["API"]
    stripe_api(["Stripe API"])
    web_app["Web #quot;App#quot;"]
    api --> stripe_api
    web_app --> api
    classDef external fill:#eef,stroke:#669,stroke-dasharray:4 3
    class stripe_api external
`
	assert.Equal(t, want, string(out))
}

func TestRenderer_Render_Options(t *testing.T) {
	g := domain.NewServiceGraph()
	g.AddService(domain.NewService("API", "", "api"))

	tests := []struct {
		name    string
		opts    driven.RenderOptions
		want    string
		wantErr bool
	}{
		{name: "default direction", want: "graph LR\n    api[\"API\"]\n"},
		{name: "lower-case direction", opts: driven.RenderOptions{Direction: "td"}, want: "graph TD\n    api[\"API\"]\n"},
		{name: "title", opts: driven.RenderOptions{Title: "shop\nv2", Direction: "BT"}, want: "---\ntitle: shop v2\n---\ngraph BT\n    api[\"API\"]\n"},
		{name: "bad direction", opts: driven.RenderOptions{Direction: "sideways"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Render(g, tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestRenderer_Render_EmptyAndNil(t *testing.T) {
	out, err := New().Render(domain.NewServiceGraph(), driven.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "graph LR\n", string(out))

	_, err = New().Render(nil, driven.RenderOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderer_Render_EdgeToUnknownService(t *testing.T) {
	g := domain.NewServiceGraph()
	g.AddService(domain.NewService("API", "", "api"))
	g.Dependencies["api"] = map[string]domain.Service{"queue": {ID: "queue"}}

	out, err := New().Render(g, driven.RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, string(out), "    queue([\"queue\"])\n    api --> queue\n")
	assert.Contains(t, string(out), "class queue external")
}

func TestNodeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "api", want: "api"},
		{in: "end", want: "_end"},
		{in: "End", want: "_End"},
		{in: "3scale", want: "_3scale"},
		{in: "", want: "_"},
		{in: "svc_end", want: "svc_end"},
		{in: "a-b.c", want: "a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NodeID(tt.in))
		})
	}
}

func TestRenderer_ReservedIDDoesNotMergeNodes(t *testing.T) {
	g := domain.NewServiceGraph()
	g.AddDependency(
		domain.NewService("end", "", "end"),
		domain.NewService("svc end", "", "svc"),
	)

	out, err := New().Render(g, driven.RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, string(out), "_end --> svc_end")
	assert.Contains(t, string(out), `_end["end"]`)
	assert.Contains(t, string(out), `svc_end["svc end"]`)
}

func TestRenderer_Format(t *testing.T) {
	assert.Equal(t, domain.OutputFormatMermaid, New().Format())
}
