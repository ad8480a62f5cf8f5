package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFile is returned for config files with an unknown
// extension.
var ErrUnsupportedFile = errors.New("unsupported config file")

// configExtensions are tried in order when looking up a config file.
var configExtensions = []string{".yaml", ".yml", ".json", ".jsonc"}

// MemoryStore is a ConfigStore keyed by endpoint name.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

var _ ConfigStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]*Config)}
}

// Put validates cfg and stores it for endpoint, replacing any previous
// configuration.
func (m *MemoryStore) Put(endpoint string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.configs[endpoint] = cfg
	m.mu.Unlock()
	return nil
}

// Remove deletes the configuration of endpoint.
func (m *MemoryStore) Remove(endpoint string) {
	m.mu.Lock()
	delete(m.configs, endpoint)
	m.mu.Unlock()
}

// Endpoints returns the configured endpoint names, sorted.
func (m *MemoryStore) Endpoints() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the configuration for the session's endpoint.
func (m *MemoryStore) Get(_ context.Context, s *Session) (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configs[s.Endpoint], nil
}

// FileStore is a ConfigStore reading one file per endpoint from a
// directory. The file for endpoint "dev1" is the first of dev1.yaml,
// dev1.yml, dev1.json and dev1.jsonc that exists. Files are read on every
// lookup.
type FileStore struct {
	dir string
}

var _ ConfigStore = (*FileStore)(nil)

// NewFileStore creates a store over dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Get loads the configuration for the session's endpoint.
func (f *FileStore) Get(_ context.Context, s *Session) (*Config, error) {
	if s.Endpoint == "" || s.Endpoint != filepath.Base(s.Endpoint) || strings.HasPrefix(s.Endpoint, ".") {
		return nil, nil
	}
	for _, ext := range configExtensions {
		path := filepath.Join(f.dir, s.Endpoint+ext)
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return nil, nil
}

// LoadFile reads and validates a config file. The format follows the file
// extension: YAML for .yaml and .yml, JSON with comments for .json and
// .jsonc.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a config in the format named by ext.
func ParseConfig(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
