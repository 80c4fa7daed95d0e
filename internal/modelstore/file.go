package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-sod/vtml/internal/predictor"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps every kind in <dir>/<kind>_model.xdr.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Path(kind predictor.Kind) string {
	return filepath.Join(s.dir, kind.String()+"_model.xdr")
}

func (s *FileStore) Load(_ context.Context, kind predictor.Kind) ([]byte, error) {
	data, err := os.ReadFile(s.Path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s model: %w", kind, err)
	}
	return data, nil
}

// Save replaces the whole file: the payload goes to a temp file in the same
// directory which is then renamed over the target.
func (s *FileStore) Save(_ context.Context, kind predictor.Kind, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, kind.String()+"_model.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s model: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(kind)); err != nil {
		return fmt.Errorf("replace %s model: %w", kind, err)
	}
	return nil
}

func (s *FileStore) Close(context.Context) error {
	return nil
}
