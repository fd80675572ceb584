package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
)

// FileDal keeps every mapping in one JSON document that is rewritten on each mutation.
type FileDal struct {
	l    *slog.Logger
	path string

	mu      sync.Mutex
	records map[string]*entities.RoleMapping
}

// NewFileDal creates a file backed dal.
func NewFileDal(l *slog.Logger, path string) *FileDal {
	return &FileDal{
		l:    l.With(slog.String(logging.KeyDal, roleMappingDalName), slog.String("path", path)),
		path: path,
	}
}

func (d *FileDal) Load(_ context.Context) (records map[string]*entities.RoleMapping, err error) {
	done := observe(BackendFile, "load")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	records = make(map[string]*entities.RoleMapping)

	data, err := os.ReadFile(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.l.Info("Reaction role file does not exist, starting empty")
	case err != nil:
		return nil, fmt.Errorf("error reading reaction roles: %w", err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("error decoding reaction roles: %w", err)
		}
	}

	d.records = records

	out := make(map[string]*entities.RoleMapping, len(records))
	for id, m := range records {
		out[id] = m.Clone()
	}
	return out, nil
}

func (d *FileDal) Save(_ context.Context, messageID string, mapping *entities.RoleMapping) (err error) {
	done := observe(BackendFile, "save")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	next := maps.Clone(d.records)
	if next == nil {
		next = make(map[string]*entities.RoleMapping)
	}
	next[messageID] = mapping.Clone()

	if err := d.write(next); err != nil {
		return err
	}
	d.records = next
	return nil
}

func (d *FileDal) Delete(_ context.Context, messageID string) (err error) {
	done := observe(BackendFile, "delete")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[messageID]; !ok {
		return nil
	}

	next := maps.Clone(d.records)
	delete(next, messageID)

	if err := d.write(next); err != nil {
		return err
	}
	d.records = next
	return nil
}

// write replaces the file through a temporary file in the same directory so a failed write leaves the old document.
func (d *FileDal) write(records map[string]*entities.RoleMapping) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding reaction roles: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating reaction role directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing reaction roles: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error syncing reaction roles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing reaction roles: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("error replacing reaction roles: %w", err)
	}
	return nil
}

func (d *FileDal) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(d.path))
	if err != nil {
		return fmt.Errorf("error checking reaction role directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(d.path))
	}
	return nil
}

func (d *FileDal) Close(_ context.Context) error {
	return nil
}
