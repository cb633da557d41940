package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/archer/internal/adapters/driven/config"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// ConfigFileName is the settings file inside the archer home directory.
const ConfigFileName = "config.toml"

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a TOML file. Keys are read and written in
// dot notation; on disk they are grouped into tables:
//
//	[llm]
//	provider = 'ollama'
//
//	[analysis]
//	exclude = ['vendor/**']
type ConfigStore struct {
	*config.Values

	// writeMu serialises file writes.
	writeMu  sync.Mutex
	filePath string
}

// NewConfigStore opens config.toml under configDir, creating the directory
// if needed. An empty configDir means ~/.archer.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".archer")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		Values:   config.NewValues(),
		filePath: filepath.Join(configDir, ConfigFileName),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores a value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return s.Save()
}

// Save writes all values to disk, readable only by the owner since the
// file may hold API keys.
func (s *ConfigStore) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := toml.Marshal(s.Nested())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ConfigFileName, err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load replaces the in-memory values with the file's contents. A missing
// file loads as empty.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.Replace(nested)
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
