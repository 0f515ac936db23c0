// Package contextidx reads the breadcrumb index built at ingestion time.
package contextidx

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/db"
)

// store is the consumer interface for breadcrumb lookups (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo looks up a chunk's breadcrumb by file reference.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a context repository. prefix is the store key namespace.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, prefix: prefix, logger: logger}
}

// ContextOf returns the breadcrumb for a file reference, if one exists.
// This lookup never fails: store errors are logged and read as absent.
func (r *Repo) ContextOf(ctx context.Context, fileRef string) (string, bool) {
	data, err := r.store.Get(ctx, r.prefix+"ctx:"+fileRef)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Breadcrumb lookup failed",
				zap.String("file_ref", fileRef), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}
