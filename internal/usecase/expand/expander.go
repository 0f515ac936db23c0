// Package expand turns a query into related query strings via the shared
// inference resource. Expansion is a best-effort stage: it never fails a
// request.
package expand

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/metrics"
)

// DefaultTimeout bounds a single expansion call.
const DefaultTimeout = 5 * time.Second

// Inference is the expansion capability of the shared model resource.
type Inference interface {
	Expand(ctx context.Context, query string) ([]string, error)
}

// Expansion is the tagged outcome of the expansion stage. Degraded carries
// the reason when the stage fell back to the original query alone.
type Expansion struct {
	Original string
	Variants []string
	Degraded string
}

// Queries returns the original query followed by its variants.
func (e Expansion) Queries() []string {
	out := make([]string, 0, len(e.Variants)+1)
	out = append(out, e.Original)
	out = append(out, e.Variants...)
	return out
}

// Expander produces query expansions with a bounded timeout.
type Expander struct {
	inference Inference
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an expander. A zero timeout falls back to DefaultTimeout.
func New(inference Inference, timeout time.Duration, logger *zap.Logger) *Expander {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Expander{inference: inference, timeout: timeout, logger: logger}
}

// Expand returns the query plus related variants. When enabled is false the
// inference resource is never touched (cost-avoidance fast path). Any
// expansion failure degrades to the original query alone.
func (e *Expander) Expand(ctx context.Context, query string, enabled bool) Expansion {
	if !enabled || e.inference == nil {
		return Expansion{Original: query}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	variants, err := e.inference.Expand(ctx, query)
	if err != nil {
		e.logger.Warn("Query expansion degraded",
			zap.String("stage", "expand"), zap.Error(err))
		metrics.StageDegradedTotal.WithLabelValues("expand").Inc()
		return Expansion{Original: query, Degraded: err.Error()}
	}

	return Expansion{Original: query, Variants: dedupe(query, variants)}
}

// dedupe drops variants that repeat the original query or one another,
// case-insensitively.
func dedupe(original string, variants []string) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(original)): true}

	var out []string
	for _, v := range variants {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
