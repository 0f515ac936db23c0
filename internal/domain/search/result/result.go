package result

import (
	"encoding/json"
	"math"
)

// Result is a single externally visible search hit. It is a value object
// constructed fresh per request and holds no reference into index storage.
type Result struct {
	docID       string
	score       float64
	displayPath string
	title       string
	snippet     string
	context     string
	hasContext  bool
}

// New creates a search result. The score is rounded to two decimal places
// for display; threshold filtering happens upstream on the raw final score.
func New(docID string, score float64, displayPath, title, snippet string) Result {
	return Result{
		docID:       docID,
		score:       math.Round(score*100) / 100,
		displayPath: displayPath,
		title:       title,
		snippet:     snippet,
	}
}

// WithContext returns a copy carrying a breadcrumb context.
func (r Result) WithContext(context string) Result {
	r.context = context
	r.hasContext = true
	return r
}

// DocID returns the document identifier.
func (r *Result) DocID() string { return r.docID }

// Score returns the relevance score rounded to two decimal places.
func (r *Result) Score() float64 { return r.score }

// DisplayPath returns the document's display path.
func (r *Result) DisplayPath() string { return r.displayPath }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// Snippet returns the query-centered excerpt.
func (r *Result) Snippet() string { return r.snippet }

// Context returns the breadcrumb context and whether one is present.
func (r *Result) Context() (string, bool) { return r.context, r.hasContext }

// MarshalJSON renders the wire shape. The context key is omitted entirely
// when no breadcrumb is present, never serialized as null.
func (r Result) MarshalJSON() ([]byte, error) {
	var ctx *string
	if r.hasContext {
		ctx = &r.context
	}
	return json.Marshal(struct {
		DocID       string  `json:"docid"`
		Score       float64 `json:"score"`
		DisplayPath string  `json:"displayPath"`
		Title       string  `json:"title"`
		Snippet     string  `json:"snippet"`
		Context     *string `json:"context,omitempty"`
	}{
		DocID:       r.docID,
		Score:       r.score,
		DisplayPath: r.displayPath,
		Title:       r.title,
		Snippet:     r.snippet,
		Context:     ctx,
	})
}
