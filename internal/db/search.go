package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	// Collection restricts the search to one collection tag; empty = all.
	Collection   string
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Collection   string
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single chunk hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
