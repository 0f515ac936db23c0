// Package search maps chunk index hits from the store onto domain candidates.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docdex/internal/db"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
)

// returnFields are the chunk hash fields hydrated with every hit.
var returnFields = []string{"__body", "__title", "__path", "__vector_score"}

// store is the consumer interface for chunk index lookups (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the engine's keyword and vector index contracts.
type Repo struct {
	store  store
	prefix string
}

// New creates a search repository. prefix is the store key namespace.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// SearchKeyword performs a BM25 lookup, bounded by limit.
func (r *Repo) SearchKeyword(
	ctx context.Context, query string, limit int, collection string,
) ([]candidate.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName(),
		Query:        query,
		Collection:   collection,
		TopK:         limit,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w: %w", domain.ErrIndexUnavailable, err)
	}

	return r.toCandidates(sr, candidate.Keyword), nil
}

// SearchVector performs a KNN similarity lookup, bounded by limit.
func (r *Repo) SearchVector(
	ctx context.Context, vector []float32, limit int, collection string,
) ([]candidate.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Collection:   collection,
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w: %w", domain.ErrIndexUnavailable, err)
	}

	return r.toCandidates(sr, candidate.Vector), nil
}

func (r *Repo) indexName() string {
	return r.prefix + "idx"
}

// toCandidates converts store entries to channel-tagged candidates. Entries
// with unparseable keys are skipped; the index owns the key scheme and a
// malformed key means the entry was not written by the ingestion pipeline.
func (r *Repo) toCandidates(sr *db.SearchResult, ch candidate.Channel) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		docID, chunkPos, ok := r.parseKey(entry.Key)
		if !ok {
			continue
		}

		out = append(out, candidate.Candidate{
			DocID:       docID,
			ChunkPos:    chunkPos,
			DisplayPath: entry.Fields["__path"],
			Title:       entry.Fields["__title"],
			Body:        entry.Fields["__body"],
			RawScore:    entry.Score,
			Channel:     ch,
		})
	}
	return out
}

// parseKey splits "<prefix>chunk:<collection>:<docid>:<chunkPos>".
// The docid is opaque and may itself contain colons, so the chunk position
// is taken from the rightmost segment and the collection from the leftmost.
func (r *Repo) parseKey(key string) (string, int, bool) {
	rest, ok := strings.CutPrefix(key, r.prefix+"chunk:")
	if !ok {
		return "", 0, false
	}

	// Drop the collection segment.
	_, rest, ok = strings.Cut(rest, ":")
	if !ok {
		return "", 0, false
	}

	sep := strings.LastIndex(rest, ":")
	if sep < 0 {
		return "", 0, false
	}

	pos, err := strconv.Atoi(rest[sep+1:])
	if err != nil || pos < 0 {
		return "", 0, false
	}

	docID := rest[:sep]
	if docID == "" {
		return "", 0, false
	}
	return docID, pos, true
}
