package contextidx

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/db"
)

type mockStore struct {
	data map[string][]byte
	err  error
	key  string
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.key = key
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func TestContextOf(t *testing.T) {
	store := &mockStore{data: map[string][]byte{
		"docdex:ctx:docs/guide.md": []byte("Guide > Setup"),
	}}
	r := New(store, "docdex:", zap.NewNop())

	bc, ok := r.ContextOf(context.Background(), "docs/guide.md")
	if !ok || bc != "Guide > Setup" {
		t.Errorf("ContextOf = %q (%t)", bc, ok)
	}
	if store.key != "docdex:ctx:docs/guide.md" {
		t.Errorf("unexpected key: %q", store.key)
	}
}

func TestContextOf_Absent(t *testing.T) {
	r := New(&mockStore{data: map[string][]byte{}}, "docdex:", zap.NewNop())

	if _, ok := r.ContextOf(context.Background(), "docs/other.md"); ok {
		t.Error("absent breadcrumb reported as present")
	}
}

func TestContextOf_StoreErrorReadsAsAbsent(t *testing.T) {
	r := New(&mockStore{err: errors.New("connection refused")}, "docdex:", zap.NewNop())

	if _, ok := r.ContextOf(context.Background(), "docs/guide.md"); ok {
		t.Error("store error must read as absent, never fail the request")
	}
}

func TestContextOf_EmptyValueIsAbsent(t *testing.T) {
	store := &mockStore{data: map[string][]byte{"docdex:ctx:a": {}}}
	r := New(store, "docdex:", zap.NewNop())

	if _, ok := r.ContextOf(context.Background(), "a"); ok {
		t.Error("empty breadcrumb reported as present")
	}
}
