package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/logging"
)

// FileBackend stores each collection as <dir>/<name>.json.
// Saves rewrite the whole file through a temporary file and rename.
type FileBackend struct {
	dir string
	log logging.Logger

	mu sync.Mutex
}

// NewFileBackend creates the data directory if needed and returns the backend.
func NewFileBackend(dir string, log logging.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errm.Wrap(err, "create data dir")
	}
	return &FileBackend{
		dir: dir,
		log: log,
	}, nil
}

// Load reads the collection file. A missing file means the collection does
// not exist yet. A corrupt file is logged and treated as absent, so a bad
// snapshot never takes the bot down.
func (f *FileBackend) Load(_ context.Context, name string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errm.Wrap(err, "read file")
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		f.log.Warn("corrupt collection file, starting empty", "collection", name, "error", err)
		return false, nil
	}

	return true, nil
}

// Save rewrites the collection file with a pretty-printed snapshot.
func (f *FileBackend) Save(_ context.Context, name string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errm.Wrap(err, "encode")
	}

	path := f.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errm.Wrap(err, "write file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errm.Wrap(err, "rename")
	}

	return nil
}

func (f *FileBackend) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}
