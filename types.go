package docdex

import "github.com/kailas-cloud/docdex/internal/domain/search/result"

// Result is a single search hit in the wire shape the façade serializes.
// Context is omitted from JSON entirely when no breadcrumb is present.
type Result struct {
	DocID       string  `json:"docid"`
	Score       float64 `json:"score"`
	DisplayPath string  `json:"displayPath"`
	Title       string  `json:"title"`
	Snippet     string  `json:"snippet"`
	Context     *string `json:"context,omitempty"`
}

// Status is pass-through corpus health info owned by the ingestion pipeline.
type Status struct {
	Collections   []string `json:"collections"`
	DocumentCount int      `json:"documentCount"`
}

func resultsFromDomain(in []result.Result) []Result {
	out := make([]Result, 0, len(in))
	for i := range in {
		r := &in[i]
		item := Result{
			DocID:       r.DocID(),
			Score:       r.Score(),
			DisplayPath: r.DisplayPath(),
			Title:       r.Title(),
			Snippet:     r.Snippet(),
		}
		if ctx, ok := r.Context(); ok {
			item.Context = &ctx
		}
		out = append(out, item)
	}
	return out
}
