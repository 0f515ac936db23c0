package request

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100

	// CandidateMultiplier is the over-fetch factor for hybrid retrieval:
	// each channel fetches multiplier*limit candidates to give fusion and
	// reranking enough headroom.
	CandidateMultiplier = 5
	// FastCandidateLimit caps per-channel retrieval in fast mode.
	FastCandidateLimit = 5
	MaxCandidateLimit  = 500

	// DefaultVectorMinScore is applied in vector mode when the caller passes
	// no threshold: raw similarity near zero is not meaningfully relevant.
	DefaultVectorMinScore = 0.3
)

// Request is a validated search query.
type Request struct {
	query          string
	searchMode     mode.Mode
	collection     string
	limit          int
	minScore       float64
	fast           bool
	candidateLimit int
}

// New validates and normalizes search parameters.
// Defaults: limit=10, candidateLimit=5*limit (5 in fast mode).
// An empty collection means "all collections".
func New(
	query string,
	m mode.Mode,
	collection string,
	limit int,
	minScore float64,
	fast bool,
	candidateLimit int,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// Vector similarity may legitimately be negative for some metrics, so
	// negative thresholds are allowed; only non-finite values are rejected.
	if math.IsNaN(minScore) || math.IsInf(minScore, 0) {
		return Request{}, fmt.Errorf("min_score must be finite")
	}
	if m == mode.Vector && minScore == 0 {
		minScore = DefaultVectorMinScore
	}
	if candidateLimit <= 0 {
		if fast {
			candidateLimit = FastCandidateLimit
		} else {
			candidateLimit = CandidateMultiplier * limit
		}
	}
	if candidateLimit > MaxCandidateLimit {
		candidateLimit = MaxCandidateLimit
	}
	if candidateLimit < limit {
		candidateLimit = limit
	}

	return Request{
		query:          query,
		searchMode:     m,
		collection:     collection,
		limit:          limit,
		minScore:       minScore,
		fast:           fast,
		candidateLimit: candidateLimit,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Collection returns the collection filter; empty means all collections.
func (r *Request) Collection() string { return r.collection }

// Limit returns the maximum number of results to return.
func (r *Request) Limit() int { return r.limit }

// MinScore returns the relevance threshold applied to the final score.
func (r *Request) MinScore() float64 { return r.minScore }

// Fast reports whether the request asked for the low-latency path
// (expansion and reranking skipped, candidate fetch capped).
func (r *Request) Fast() bool { return r.fast }

// CandidateLimit returns the per-channel retrieval depth.
func (r *Request) CandidateLimit() int { return r.candidateLimit }
