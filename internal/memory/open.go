package memory

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend ("file" by default) at path.
func Open(ctx context.Context, backend, path string, logger zerolog.Logger) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileStore(path, logger), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, errors.Errorf("unknown memory backend %q", backend)
	}
}
