// Package rerank rescores fused candidates against the query via the shared
// inference resource. Reranking is a best-effort stage: a reranker outage
// keeps the fused order instead of failing the request.
package rerank

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// DefaultTimeout bounds a single batched rerank call.
const DefaultTimeout = 10 * time.Second

// Inference is the rerank capability of the shared model resource.
type Inference interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Adapter scores fused candidates with the cross-encoder model.
type Adapter struct {
	inference Inference
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a reranker adapter. A zero timeout falls back to DefaultTimeout.
func New(inference Inference, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{inference: inference, timeout: timeout, logger: logger}
}

// Rerank replaces each candidate's final score with the model's relevance
// score, obtained in one batched call so the whole set costs a single
// acquisition of the inference gate. The returned reason is non-empty when
// the stage degraded and the input order was kept.
func (a *Adapter) Rerank(
	ctx context.Context, query string, fused []candidate.Fused, skip bool,
) ([]candidate.Fused, string) {
	if skip || len(fused) == 0 || a.inference == nil {
		return fused, ""
	}

	texts := make([]string, len(fused))
	for i := range fused {
		texts[i] = fused[i].Body
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	scores, err := a.inference.Rerank(ctx, query, texts)
	if err != nil {
		a.logger.Warn("Reranking degraded, keeping fused order",
			zap.String("stage", "rerank"), zap.Int("candidates", len(fused)), zap.Error(err))
		metrics.StageDegradedTotal.WithLabelValues("rerank").Inc()
		return fused, err.Error()
	}

	out := make([]candidate.Fused, len(fused))
	copy(out, fused)
	for i := range out {
		out[i].RerankScore = scores[i]
		out[i].HasRerank = true
		out[i].FinalScore = scores[i]
	}
	return out, ""
}
