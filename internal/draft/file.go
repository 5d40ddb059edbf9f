package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore хранит каждый черновик в отдельном JSON файле.
//
// Запись атомарна: временный файл, fsync, rename.
type FileStore struct {
	dir string
}

// NewFileStore создаёт хранилище в директории dir (создаётся при необходимости).
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path возвращает имя файла для ключа: двоеточия заменяются на "_".
func (s *FileStore) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}

// Load читает файл черновика.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read draft: %w", err)
	}
	return data, nil
}

// Save атомарно перезаписывает файл черновика.
func (s *FileStore) Save(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".draft-tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
