// Package search implements the hybrid query engine: expansion, dual-channel
// retrieval, fusion, reranking, threshold filtering and snippet attachment.
package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/domain/search/result"
	"github.com/kailas-cloud/docdex/internal/repository/status"
	"github.com/kailas-cloud/docdex/internal/snippet"
)

// Service orchestrates document search across keyword, vector, and hybrid modes.
type Service struct {
	keyword    KeywordIndex
	vector     VectorIndex
	embed      Embedder
	contexts   ContextIndex
	statusRepo StatusReader
	expander   Expander
	reranker   Reranker
	snippetLen int
}

// New creates a search service. snippetLen bounds result excerpts.
func New(
	keyword KeywordIndex,
	vector VectorIndex,
	embed Embedder,
	contexts ContextIndex,
	statusRepo StatusReader,
	expander Expander,
	reranker Reranker,
	snippetLen int,
) *Service {
	if snippetLen <= 0 {
		snippetLen = snippet.DefaultMaxLength
	}
	return &Service{
		keyword:    keyword,
		vector:     vector,
		embed:      embed,
		contexts:   contexts,
		statusRepo: statusRepo,
		expander:   expander,
		reranker:   reranker,
		snippetLen: snippetLen,
	}
}

// Search executes a search in the request's mode. The returned list is
// sorted by score descending (ties: docid, then chunk position ascending),
// holds at most req.Limit() entries, and every entry clears req.MinScore().
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	var fused []candidate.Fused
	var err error

	switch req.Mode() {
	case mode.Keyword:
		fused, err = s.searchKeyword(ctx, req)
	case mode.Vector:
		fused, err = s.searchVector(ctx, req)
	case mode.Hybrid:
		fused, err = s.searchHybrid(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, req, fused), nil
}

// Status returns pass-through corpus health info.
func (s *Service) Status(ctx context.Context) (status.Report, error) {
	return s.statusRepo.Status(ctx)
}

// searchKeyword runs pure BM25 retrieval. No inference call is made on this
// path: it stays usable when the inference resource is entirely unavailable.
// Scores are raw BM25, so no over-fetch or normalization is needed.
func (s *Service) searchKeyword(ctx context.Context, req *request.Request) ([]candidate.Fused, error) {
	cands, err := s.keyword.SearchKeyword(ctx, req.Query(), req.Limit(), req.Collection())
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return singleChannel(cands), nil
}

// searchVector embeds the query and runs KNN retrieval. The embedding is
// mandatory: without it no semantic signal is possible, so failure is fatal.
func (s *Service) searchVector(ctx context.Context, req *request.Request) ([]candidate.Fused, error) {
	vec, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	cands, err := s.vector.SearchVector(ctx, vec, req.Limit(), req.Collection())
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return singleChannel(cands), nil
}

// searchHybrid expands the query, retrieves both channels concurrently,
// fuses, and reranks. Expansion and reranking degrade gracefully; retrieval
// and embedding failures are fatal. The fast path skips both optional
// stages and caps the candidate fetch.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) ([]candidate.Fused, error) {
	expansion := s.expander.Expand(ctx, req.Query(), !req.Fast())

	var kwCands, vecCands []candidate.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// One keyword lookup per expansion variant, original included.
		for _, q := range expansion.Queries() {
			cands, err := s.keyword.SearchKeyword(gctx, q, req.CandidateLimit(), req.Collection())
			if err != nil {
				return fmt.Errorf("keyword channel: %w", err)
			}
			kwCands = append(kwCands, cands...)
		}
		return nil
	})
	g.Go(func() error {
		// Only the original query is embedded: semantic retrieval already
		// generalizes over phrasings.
		vec, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		cands, err := s.vector.SearchVector(gctx, vec, req.CandidateLimit(), req.Collection())
		if err != nil {
			return fmt.Errorf("vector channel: %w", err)
		}
		vecCands = cands
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuse(append(kwCands, vecCands...))
	fused, _ = s.reranker.Rerank(ctx, req.Query(), fused, req.Fast())
	return fused, nil
}

// finish filters by the pre-rounding final score, sorts, truncates to the
// request limit, and attaches snippets and breadcrumbs.
func (s *Service) finish(ctx context.Context, req *request.Request, fused []candidate.Fused) []result.Result {
	sortFused(fused)

	results := make([]result.Result, 0, req.Limit())
	for _, f := range fused {
		if f.FinalScore < req.MinScore() {
			continue
		}

		snip := snippet.Extract(f.Body, req.Query(), s.snippetLen, snippet.NoHint)
		res := result.New(f.DocID, f.FinalScore, f.DisplayPath, f.Title, snip)
		if breadcrumb, ok := s.contexts.ContextOf(ctx, f.DisplayPath); ok {
			res = res.WithContext(breadcrumb)
		}

		results = append(results, res)
		if len(results) == req.Limit() {
			break
		}
	}
	return results
}

// singleChannel wraps one channel's candidates as fused entries keeping raw
// scores: single-mode thresholds are defined on the channel's native scale.
func singleChannel(cands []candidate.Candidate) []candidate.Fused {
	fused := make([]candidate.Fused, 0, len(cands))
	for _, c := range cands {
		f := candidate.Fused{
			DocID:       c.DocID,
			ChunkPos:    c.ChunkPos,
			DisplayPath: c.DisplayPath,
			Title:       c.Title,
			Body:        c.Body,
			FinalScore:  c.RawScore,
		}
		switch c.Channel {
		case candidate.Keyword:
			f.KeywordScore = c.RawScore
			f.HasKeyword = true
		case candidate.Vector:
			f.VectorScore = c.RawScore
			f.HasVector = true
		}
		fused = append(fused, f)
	}
	sortFused(fused)
	return fused
}
