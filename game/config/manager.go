package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Info describes one available preset.
type Info struct {
	ConfigID string `json:"config_id"`
	Filename string `json:"filename"`
	Name     string `json:"name"`
}

// Manager loads, caches, and saves game-configuration presets.
type Manager struct {
	configDir string
	configs   map[string]json.RawMessage
	mu        sync.RWMutex
}

// NewManager creates a preset manager rooted at configDir. The directory
// must exist.
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	return &Manager{
		configDir: configDir,
		configs:   make(map[string]json.RawMessage),
	}, nil
}

// Load returns the preset with the given id, reading it from disk on first
// use.
func (m *Manager) Load(id string) (json.RawMessage, error) {
	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := validate(data)
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	return config, nil
}

// List returns information about every preset in the config directory.
// Files that fail validation are skipped.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		config, err := m.Load(id)
		if err != nil {
			continue
		}

		var fields struct {
			Name string `json:"name"`
		}
		json.Unmarshal(config, &fields)

		infos = append(infos, Info{
			ConfigID: id,
			Filename: entry.Name(),
			Name:     fields.Name,
		})
	}

	return infos, nil
}

// Save validates and writes a preset to disk, replacing any previous file
// and cache entry under the same id.
func (m *Manager) Save(id string, data json.RawMessage) error {
	config, err := validate(data)
	if err != nil {
		return err
	}

	var pretty json.RawMessage
	if indented, err := json.MarshalIndent(json.RawMessage(config), "", "  "); err == nil {
		pretty = indented
	} else {
		pretty = config
	}

	path := filepath.Join(m.configDir, id+".json")
	if err := os.WriteFile(path, pretty, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	return nil
}

// validate checks that a preset is a JSON object carrying a non-empty
// "name" field. Everything else in the blob is opaque to the hub.
func validate(data []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var name string
	if raw, ok := fields["name"]; ok {
		json.Unmarshal(raw, &name)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}

	return json.RawMessage(data), nil
}
