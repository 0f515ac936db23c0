package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docdex/internal/db"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
)

type mockStore struct {
	knnQuery  *db.KNNQuery
	textQuery *db.TextQuery
	result    *db.SearchResult
	err       error
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQuery = q
	return m.result, m.err
}

func (m *mockStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.textQuery = q
	return m.result, m.err
}

func TestParseKey(t *testing.T) {
	r := New(&mockStore{}, "docdex:")

	tests := []struct {
		name  string
		key   string
		docID string
		pos   int
		ok    bool
	}{
		{"plain", "docdex:chunk:notes:readme.md:0", "readme.md", 0, true},
		{"docid with colons", "docdex:chunk:notes:a:b:c.md:12", "a:b:c.md", 12, true},
		{"wrong prefix", "other:chunk:notes:a:0", "", 0, false},
		{"missing collection", "docdex:chunk:a", "", 0, false},
		{"missing position", "docdex:chunk:notes:a", "", 0, false},
		{"non-numeric position", "docdex:chunk:notes:a:first", "", 0, false},
		{"negative position", "docdex:chunk:notes:a:-1", "", 0, false},
		{"empty docid", "docdex:chunk:notes::3", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docID, pos, ok := r.parseKey(tt.key)
			if ok != tt.ok || docID != tt.docID || pos != tt.pos {
				t.Errorf("parseKey(%q) = (%q, %d, %t), want (%q, %d, %t)",
					tt.key, docID, pos, ok, tt.docID, tt.pos, tt.ok)
			}
		})
	}
}

func TestSearchKeyword(t *testing.T) {
	store := &mockStore{result: &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{
				Key:   "docdex:chunk:notes:guide.md:0",
				Score: 7.5,
				Fields: map[string]string{
					"__body":  "install the service",
					"__title": "Guide",
					"__path":  "docs/guide.md",
				},
			},
			{Key: "garbage", Score: 1.0}, // not ours, skipped
		},
	}}
	r := New(store, "docdex:")

	cands, err := r.SearchKeyword(context.Background(), "install", 10, "notes")
	if err != nil {
		t.Fatal(err)
	}

	if store.textQuery.IndexName != "docdex:idx" {
		t.Errorf("index name = %q", store.textQuery.IndexName)
	}
	if store.textQuery.Collection != "notes" || store.textQuery.TopK != 10 {
		t.Errorf("query not forwarded: %+v", store.textQuery)
	}

	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	want := candidate.Candidate{
		DocID:       "guide.md",
		ChunkPos:    0,
		DisplayPath: "docs/guide.md",
		Title:       "Guide",
		Body:        "install the service",
		RawScore:    7.5,
		Channel:     candidate.Keyword,
	}
	if cands[0] != want {
		t.Errorf("candidate = %+v, want %+v", cands[0], want)
	}
}

func TestSearchVector(t *testing.T) {
	store := &mockStore{result: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{
			{
				Key:    "docdex:chunk:notes:guide.md:2",
				Score:  0.87,
				Fields: map[string]string{"__body": "b", "__title": "t", "__path": "p"},
			},
		},
	}}
	r := New(store, "docdex:")

	cands, err := r.SearchVector(context.Background(), []float32{0.1, 0.2}, 5, "")
	if err != nil {
		t.Fatal(err)
	}

	if store.knnQuery.K != 5 || len(store.knnQuery.Vector) != 2 {
		t.Errorf("query not forwarded: %+v", store.knnQuery)
	}
	if len(cands) != 1 || cands[0].Channel != candidate.Vector || cands[0].ChunkPos != 2 {
		t.Errorf("unexpected candidates: %+v", cands)
	}
}

func TestSearch_WrapsIndexUnavailable(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	r := New(store, "docdex:")

	if _, err := r.SearchKeyword(context.Background(), "q", 10, ""); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("keyword error not tagged: %v", err)
	}
	if _, err := r.SearchVector(context.Background(), []float32{1}, 10, ""); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("vector error not tagged: %v", err)
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	r := New(&mockStore{result: &db.SearchResult{}}, "docdex:")

	cands, err := r.SearchKeyword(context.Background(), "q", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if cands != nil {
		t.Errorf("expected nil candidates, got %v", cands)
	}
}
