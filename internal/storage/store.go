package storage

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
)

// ErrNotExist reports a missing object regardless of backend.
var ErrNotExist = errors.New("storage: object does not exist")

// FileStore abstracts attachment byte storage. Paths are relative,
// slash-separated keys of the form <variant>/<case-number>/<stored-name>.
type FileStore interface {
	Write(ctx context.Context, path string, r io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	Copy(ctx context.Context, src, dst string) error
}

// NewFileStore selects a backend from configuration.
func NewFileStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (FileStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg, logger)
	case "", "local":
		return NewLocalStore(cfg.LocalDir, logger)
	default:
		return nil, errors.New("storage: unknown backend " + cfg.Backend)
	}
}
