package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// mockLLMService implements driven.LLMService for testing.
// respond decides the answer from the user message of each call.
type mockLLMService struct {
	mu      sync.Mutex
	respond func(user string) (string, error)
	calls   []string
	model   string
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	user := ""
	for _, msg := range messages {
		if msg.Role == driven.RoleUser {
			user = msg.Content
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, user)
	m.mu.Unlock()

	if m.respond == nil {
		return "{}", nil
	}
	return m.respond(user)
}

func (m *mockLLMService) ModelName() string {
	if m.model == "" {
		return "mock-llm"
	}
	return m.model
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockRepoSource implements driven.RepoSource over an in-memory file map.
type mockRepoSource struct {
	root     string
	files    map[string]string
	readErrs map[string]error
	walkErr  error
	filter   driven.WalkFilter
}

func (m *mockRepoSource) Root() string {
	return m.root
}

func (m *mockRepoSource) Hierarchy(_ context.Context, filter driven.WalkFilter) (*domain.FileNode, error) {
	m.filter = filter
	if m.walkErr != nil {
		return nil, m.walkErr
	}
	return buildTree(m.files), nil
}

func (m *mockRepoSource) ReadFile(_ context.Context, path string) (string, error) {
	if err, ok := m.readErrs[path]; ok {
		return "", err
	}
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return content, nil
}

// buildTree turns slash-separated paths into a hierarchy.
func buildTree(files map[string]string) *domain.FileNode {
	root := domain.NewDirNode("", "")
	for p := range files {
		parts := strings.Split(p, "/")
		node := root
		for i, part := range parts {
			childPath := strings.Join(parts[:i+1], "/")
			if i == len(parts)-1 {
				node.AddChild(&domain.FileNode{Name: part, Path: childPath, Size: int64(len(files[p]))})
				break
			}
			next := node.Find(childPath)
			if next == nil {
				next = domain.NewDirNode(part, childPath)
				node.AddChild(next)
			}
			node = next
		}
	}
	return root
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRenderer implements driven.Renderer by listing service IDs.
type mockRenderer struct {
	format domain.OutputFormat
	opts   driven.RenderOptions
}

func (m *mockRenderer) Format() domain.OutputFormat {
	return m.format
}

func (m *mockRenderer) Render(graph *domain.ServiceGraph, opts driven.RenderOptions) ([]byte, error) {
	m.opts = opts
	ids := make([]string, 0, graph.Len())
	for _, s := range graph.SortedServices() {
		ids = append(ids, s.ID)
	}
	return []byte(string(m.format) + ":" + strings.Join(ids, ",")), nil
}

// mockRendererRegistry implements driven.RendererRegistry.
type mockRendererRegistry struct {
	renderers map[domain.OutputFormat]*mockRenderer
}

func (m *mockRendererRegistry) Get(format domain.OutputFormat) (driven.Renderer, error) {
	r, ok := m.renderers[format]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return r, nil
}

func (m *mockRendererRegistry) Formats() []domain.OutputFormat {
	formats := make([]domain.OutputFormat, 0, len(m.renderers))
	for f := range m.renderers {
		formats = append(formats, f)
	}
	return formats
}

// mockAIConfigValidator implements driven.AIConfigValidator.
type mockAIConfigValidator struct {
	err    error
	called *domain.LLMSettings
}

func (m *mockAIConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.called = cfg
	return m.err
}

// statusErr mimics an adapter error that knows whether to retry.
type statusErr struct {
	retry bool
	after time.Duration
	base  error
}

func (e *statusErr) Error() string             { return "status error" }
func (e *statusErr) Retryable() bool           { return e.retry }
func (e *statusErr) RetryAfter() time.Duration { return e.after }
func (e *statusErr) Unwrap() error             { return e.base }

// noSleep makes a retrier return immediately between attempts.
func noSleep(r *Retrier) *Retrier {
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}
