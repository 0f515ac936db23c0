// Package status reads corpus health info owned by the ingestion pipeline.
package status

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// store is the consumer interface for status reads (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Report is the pass-through health info exposed by the engine.
type Report struct {
	Collections   []string `json:"collections"`
	DocumentCount int      `json:"documentCount"`
}

// Repo reads collection names and document counts from the store.
type Repo struct {
	store  store
	prefix string
}

// New creates a status repository. prefix is the store key namespace.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Status lists collections and counts indexed chunks.
func (r *Repo) Status(ctx context.Context) (Report, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"col:*")
	if err != nil {
		return Report{}, fmt.Errorf("scan collections: %w: %w", domain.ErrIndexUnavailable, err)
	}

	collections := make([]string, 0, len(keys))
	for _, key := range keys {
		collections = append(collections, strings.TrimPrefix(key, r.prefix+"col:"))
	}
	sort.Strings(collections)

	count, err := r.store.SearchCount(ctx, r.prefix+"idx", "*")
	if err != nil {
		return Report{}, fmt.Errorf("count documents: %w: %w", domain.ErrIndexUnavailable, err)
	}

	return Report{Collections: collections, DocumentCount: count}, nil
}
