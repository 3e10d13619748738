package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStore keeps attachment files under a base directory on disk.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

func (s *LocalStore) abs(path string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(path))
}

func (s *LocalStore) Write(ctx context.Context, path string, r io.Reader) error {
	target := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(target)
		return err
	}
	return f.Close()
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.abs(path))
	if os.IsNotExist(err) {
		return ErrNotExist
	}
	return err
}

func (s *LocalStore) Copy(ctx context.Context, src, dst string) error {
	in, err := s.Open(ctx, src)
	if err != nil {
		return err
	}
	defer in.Close()
	return s.Write(ctx, dst, in)
}
