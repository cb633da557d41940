package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const (
	promptExt  = ".txt"
	readmeName = "README.md"
)

// promptHelp documents the placeholders each known prompt receives.
var promptHelp = map[string]string{
	driven.PromptSystem:            "system message sent before every request (no placeholders)",
	driven.PromptInferServices:     "lists services; `%s` is the directory hierarchy",
	driven.PromptInferDependencies: "owner and dependencies of one file; `%s` known services, `%s` path, `%s` content",
	driven.PromptDescribeService:   "one-sentence description; `%s` service name, `%s` hierarchy below its root",
}

// PromptStore serves prompt templates from <dir>/<name>.txt so users can
// tune what the model is asked. The directory is seeded with the defaults
// on first Load, never overwriting a file that already exists. A file that
// is empty or changes the number of %s placeholders is ignored in favour of
// the default.
type PromptStore struct {
	dir      string
	defaults map[string]string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore does no I/O. An empty dir means ~/.archer/prompts.
func NewPromptStore(dir string, defaults map[string]string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".archer", "prompts")
	}
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &PromptStore{dir: dir, defaults: defaults, cache: map[string]string{}}, nil
}

// Dir is where prompt files live.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	def, hasDefault := s.defaults[name]
	if s.seedErr != nil {
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, s.seedErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.cache[name]; ok {
		return p, nil
	}

	p, err := s.read(name)
	switch {
	case err != nil && !hasDefault:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		logger.Debug("prompt %s: %v, using default", name, err)
		p = def
	case hasDefault && strings.Count(p, "%s") != strings.Count(def, "%s"):
		logger.Warn("prompt %s: expected %d %%s placeholders, using default",
			name, strings.Count(def, "%s"))
		p = def
	}
	s.cache[name] = p
	return p, nil
}

// Reload drops cached templates so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	p := strings.TrimSpace(string(data))
	if p == "" {
		return "", fmt.Errorf("%s is empty", s.path(name))
	}
	return p, nil
}

func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, content := range s.defaults {
		if err := writeIfMissing(s.path(name), content); err != nil {
			return fmt.Errorf("create default prompt %q: %w", name, err)
		}
	}
	return writeIfMissing(filepath.Join(s.dir, readmeName), s.readme())
}

func (s *PromptStore) readme() string {
	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# archer prompts\n\n")
	sb.WriteString("These templates are sent to the model during `archer analyze`.\n")
	sb.WriteString("Edit a file to change the model's instructions. Delete it to restore the default.\n\n")
	sb.WriteString("## Files\n\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "- `%s%s`", name, promptExt)
		if help, ok := promptHelp[name]; ok {
			sb.WriteString(" - " + help)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nKeep every `%s` placeholder, in order. Answers must stay JSON.\n")
	return sb.String()
}

// writeIfMissing uses O_EXCL so a file created concurrently is left alone.
func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if os.IsExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
