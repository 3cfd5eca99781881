package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultTempDirName is the directory created under os.TempDir when no
// scratch directory is configured.
const DefaultTempDirName = "openshorts"

// LocalStorage hands out scratch paths for files that live only for one
// render, such as hook card PNGs, and removes them afterwards.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates tempDir (or os.TempDir()/openshorts when empty).
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), DefaultTempDirName)
	}
	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the scratch directory.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// TempPath returns an unused path named prefix + UUID + ext. The file is not
// created.
func (s *LocalStorage) TempPath(prefix, ext string) string {
	return filepath.Join(s.tempDir, prefix+uuid.NewString()+ext)
}

// CleanupTemp removes every path, skipping ones that are already gone.
// All removal failures are joined into the returned error. A cancelled ctx
// stops before the next removal.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("cleanup interrupted: %w", err))
			break
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove temp file %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
