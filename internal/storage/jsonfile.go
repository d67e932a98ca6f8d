package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt file")
)

// file locks are shared by every jsonFile pointing at the same path
var (
	locksMu   sync.Mutex
	fileLocks = make(map[string]*sync.Mutex)
)

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	locksMu.Lock()
	defer locksMu.Unlock()

	mu, ok := fileLocks[abs]
	if !ok {
		mu = &sync.Mutex{}
		fileLocks[abs] = mu
	}
	return mu
}

// jsonFile reads and rewrites a whole JSON document
type jsonFile struct {
	path string
	mu   *sync.Mutex
}

func newJSONFile(path string) *jsonFile {
	return &jsonFile{path: path, mu: lockFor(path)}
}

// load decodes the file into v. A missing or blank file returns os.ErrNotExist,
// undecodable content returns ErrCorrupt.
func (f *jsonFile) load(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return os.ErrNotExist
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return nil
}

// save writes v to a temp file next to the target and renames it into place
func (f *jsonFile) save(v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", f.path, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
