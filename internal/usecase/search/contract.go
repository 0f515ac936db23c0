package search

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/docdex/internal/repository/status"
	"github.com/kailas-cloud/docdex/internal/usecase/expand"
)

// KeywordIndex is the BM25 retrieval contract. Never returns more than
// limit candidates; an empty collection means all collections.
type KeywordIndex interface {
	SearchKeyword(ctx context.Context, query string, limit int, collection string) ([]candidate.Candidate, error)
}

// VectorIndex is the similarity retrieval contract.
type VectorIndex interface {
	SearchVector(ctx context.Context, vector []float32, limit int, collection string) ([]candidate.Candidate, error)
}

// Embedder vectorizes query text through the shared inference resource.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ContextIndex is the breadcrumb lookup contract. Pure read, never fails;
// absent breadcrumbs report false.
type ContextIndex interface {
	ContextOf(ctx context.Context, fileRef string) (string, bool)
}

// StatusReader reads pass-through corpus health info.
type StatusReader interface {
	Status(ctx context.Context) (status.Report, error)
}

// Expander is the best-effort query expansion stage.
type Expander interface {
	Expand(ctx context.Context, query string, enabled bool) expand.Expansion
}

// Reranker is the best-effort rescoring stage. The returned reason is
// non-empty when the stage degraded and kept the input order.
type Reranker interface {
	Rerank(ctx context.Context, query string, fused []candidate.Fused, skip bool) ([]candidate.Fused, string)
}
