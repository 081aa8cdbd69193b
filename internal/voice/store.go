// Package voice persists metadata for voices this client has referenced.
//
// The store is a cache, not the source of truth: the remote server decides
// which voices actually exist. One JSON file per voice keeps the format
// inspectable and the lifecycle independent from the server's.
package voice

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound means no metadata is cached under the name.
	ErrNotFound = errors.New("voice not found")

	// ErrInvalidName means the name cannot double as a file name.
	ErrInvalidName = errors.New("invalid voice name")
)

// Metadata is the locally cached record of a voice.
type Metadata struct {
	Name       string `json:"name"`
	Transcript string `json:"transcript"`
	Model      string `json:"model"`
	CreatedAt  string `json:"created_at"`
}

// Store keeps one <name>.json file per voice under a single directory.
// The directory is injected at construction; the default location is
// computed once at the CLI edge, never read lazily in here.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on the
// first save, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the voices directory.
func (s *Store) Dir() string { return s.dir }

// validateName rejects names that would escape the voices directory.
// Cache keys double as file names.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains path separators", ErrInvalidName, name)
	}
	return nil
}

func (s *Store) metadataPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the metadata record, creating the directory if needed.
func (s *Store) Save(meta *Metadata) error {
	if err := validateName(meta.Name); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create voices dir: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataPath(meta.Name), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Load reads the metadata record for name.
func (s *Store) Load(name string) (*Metadata, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.metadataPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", name, err)
	}
	return &meta, nil
}

// Delete removes the metadata record for name.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.metadataPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}

// List returns every readable metadata record in the directory. Entries
// that fail to parse are skipped rather than failing the whole listing.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read voices dir: %w", err)
	}

	var voices []Metadata
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		voices = append(voices, meta)
	}
	return voices, nil
}
