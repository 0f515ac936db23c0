// Package docdex is a local hybrid document-search engine over a corpus of
// chunked text documents organized into collections. It answers keyword
// (BM25), vector (embedding similarity), and hybrid (fused and reranked)
// queries against a Redis-backed chunk index, using a single shared
// on-device inference resource for embeddings, query expansion, and
// reranking.
//
// The engine is the composition root consumed by an external serving façade:
// it owns the store connection and the inference resource lifecycle, and
// exposes Search, VSearch, Query, Status, and Shutdown.
package docdex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	"github.com/kailas-cloud/docdex/internal/db"
	dbredis "github.com/kailas-cloud/docdex/internal/db/redis"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/inference"
	infopenai "github.com/kailas-cloud/docdex/internal/inference/openai"
	"github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/repository/contextidx"
	"github.com/kailas-cloud/docdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/docdex/internal/repository/search"
	statusrepo "github.com/kailas-cloud/docdex/internal/repository/status"
	"github.com/kailas-cloud/docdex/internal/usecase/expand"
	"github.com/kailas-cloud/docdex/internal/usecase/rerank"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
)

// Engine is the hybrid query engine. Safe for concurrent use; requests
// contend only for the single inference resource.
type Engine struct {
	store    db.Store
	resource *inference.Resource
	search   *searchuc.Service
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New connects to the index store and wires the engine from configuration.
// A nil logger builds one from config.GetEnv() and the configured level.
// The inference provider is not contacted here: it initializes lazily on the
// first vector or hybrid query.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		var err error
		log, err = logger.NewLogger(config.GetEnv(), cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	metrics.Register()

	infCfg := cfg.Inference
	resource := inference.NewResource(func() (inference.Provider, error) {
		return infopenai.NewClient(&infopenai.Config{
			APIKey:         infCfg.APIKey,
			BaseURL:        infCfg.BaseURL,
			EmbeddingModel: infCfg.EmbeddingModel,
			ChatModel:      infCfg.ChatModel,
			Logger:         log,
		}), nil
	}, log)

	prefix := cfg.Search.KeyPrefix
	embedder := embcache.New(resource, store, prefix, metrics.EmbeddingCacheTotal, log)

	svc := searchuc.New(
		searchrepo.New(store, prefix),
		searchrepo.New(store, prefix),
		embedder,
		contextidx.New(store, prefix, log),
		statusrepo.New(store, prefix),
		expand.New(resource, time.Duration(infCfg.ExpandTimeoutSec)*time.Second, log),
		rerank.New(resource, time.Duration(infCfg.RerankTimeoutSec)*time.Second, log),
		cfg.Search.SnippetMaxLength,
	)

	return &Engine{
		store:    store,
		resource: resource,
		search:   svc,
		logger:   log,
	}, nil
}

// Search runs a keyword (BM25) query. This path never touches the inference
// resource and stays available when the model server is down.
func (e *Engine) Search(
	ctx context.Context, query string, limit int, minScore float64, collection string,
) ([]Result, error) {
	return e.run(ctx, query, mode.Keyword, collection, limit, minScore, false, 0)
}

// VSearch runs an embedding-similarity query. A zero minScore applies the
// default similarity threshold.
func (e *Engine) VSearch(
	ctx context.Context, query string, limit int, minScore float64, collection string,
) ([]Result, error) {
	return e.run(ctx, query, mode.Vector, collection, limit, minScore, false, 0)
}

// Query runs a hybrid query: expansion, dual-channel retrieval, fusion, and
// reranking. fast skips expansion and reranking and caps the candidate fetch
// to bound latency at the cost of recall. candidateLimit overrides the
// per-channel fetch depth when positive.
func (e *Engine) Query(
	ctx context.Context, query string, limit int, minScore float64,
	collection string, fast bool, candidateLimit int,
) ([]Result, error) {
	return e.run(ctx, query, mode.Hybrid, collection, limit, minScore, fast, candidateLimit)
}

// Status returns pass-through corpus health info from the index store.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	if err := e.checkOpen(); err != nil {
		return Status{}, err
	}
	report, err := e.search.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Collections: report.Collections, DocumentCount: report.DocumentCount}, nil
}

// Shutdown disposes the inference resource (draining any in-flight call)
// and closes the store. Idempotent: later calls are no-ops.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.resource.Close()
	e.store.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	e.logger.Info("Engine shut down")
	return nil
}

func (e *Engine) run(
	ctx context.Context, query string, m mode.Mode,
	collection string, limit int, minScore float64, fast bool, candidateLimit int,
) ([]Result, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	req, err := request.New(query, m, collection, limit, minScore, fast, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	start := time.Now()
	results, err := e.search.Search(ctx, &req)
	metrics.SearchRequestDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(m), "success").Inc()

	return resultsFromDomain(results), nil
}

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}
	return nil
}
