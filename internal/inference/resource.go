// Package inference manages the process-wide on-device model resource.
//
// The underlying model state is not safely shareable across concurrent
// invocations, so every call is serialized through a weight-1 semaphore.
// The provider is created lazily on first use and disposed exactly once;
// disposal waits for the in-flight call to drain.
package inference

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Provider is the underlying model client contract.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Rerank scores each text against the query in one batched call.
	// Returns one score per input text, in input order.
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
	// Expand returns related query strings for the given query.
	Expand(ctx context.Context, query string) ([]string, error)
	Close() error
}

// Resource is the single shared inference resource. Callers queue behind the
// access gate; a caller whose context is cancelled while queued releases its
// place immediately without affecting others.
type Resource struct {
	newProvider func() (Provider, error)
	gate        *semaphore.Weighted
	provider    Provider
	closed      bool
	logger      *zap.Logger
}

// NewResource creates a resource that will build its provider on first use.
func NewResource(newProvider func() (Provider, error), logger *zap.Logger) *Resource {
	return &Resource{
		newProvider: newProvider,
		gate:        semaphore.NewWeighted(1),
		logger:      logger,
	}
}

// Embed vectorizes text through the shared model.
func (r *Resource) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := r.withProvider(ctx, "embed", func(ctx context.Context, p Provider) error {
		var err error
		vec, err = p.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// Rerank scores texts against the query in one batched call.
func (r *Resource) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	var scores []float64
	err := r.withProvider(ctx, "rerank", func(ctx context.Context, p Provider) error {
		var err error
		scores, err = p.Rerank(ctx, query, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Expand returns related query strings.
func (r *Resource) Expand(ctx context.Context, query string) ([]string, error) {
	var variants []string
	err := r.withProvider(ctx, "expand", func(ctx context.Context, p Provider) error {
		var err error
		variants, err = p.Expand(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// Close disposes the provider after draining the in-flight call. Idempotent:
// the second and later calls are no-ops.
func (r *Resource) Close() error {
	// Acquiring the full gate weight waits out any active call.
	if err := r.gate.Acquire(context.Background(), 1); err != nil {
		return fmt.Errorf("acquire inference gate: %w", err)
	}
	defer r.gate.Release(1)

	if r.closed {
		return nil
	}
	r.closed = true

	if r.provider == nil {
		return nil
	}
	p := r.provider
	r.provider = nil
	if err := p.Close(); err != nil {
		return fmt.Errorf("close inference provider: %w", err)
	}
	return nil
}

// withProvider runs fn with exclusive access to the provider, initializing
// it first if needed. Initialization failures are not cached: the next call
// retries, so a transient startup failure does not poison the resource.
func (r *Resource) withProvider(ctx context.Context, op string, fn func(context.Context, Provider) error) error {
	waitStart := time.Now()
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire inference gate: %w", err)
	}
	defer r.gate.Release(1)
	metrics.InferenceGateWait.Observe(time.Since(waitStart).Seconds())

	if r.closed {
		return fmt.Errorf("inference resource: %w", domain.ErrEngineClosed)
	}

	if r.provider == nil {
		p, err := r.newProvider()
		if err != nil {
			metrics.InferenceCallsTotal.WithLabelValues(op, "error").Inc()
			return fmt.Errorf("initialize inference provider: %w: %w", domain.ErrInference, err)
		}
		r.logger.Info("Inference provider initialized")
		r.provider = p
	}

	callStart := time.Now()
	err := fn(ctx, r.provider)
	metrics.InferenceCallDuration.WithLabelValues(op).Observe(time.Since(callStart).Seconds())

	if err != nil {
		metrics.InferenceCallsTotal.WithLabelValues(op, "error").Inc()
		return err
	}
	metrics.InferenceCallsTotal.WithLabelValues(op, "success").Inc()
	return nil
}
