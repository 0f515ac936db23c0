package rerank

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
)

type mockInference struct {
	scores []float64
	err    error
	called bool
	texts  []string
}

func (m *mockInference) Rerank(_ context.Context, _ string, texts []string) ([]float64, error) {
	m.called = true
	m.texts = texts
	return m.scores, m.err
}

func fusedSet() []candidate.Fused {
	return []candidate.Fused{
		{DocID: "a", Body: "first body", FinalScore: 0.9},
		{DocID: "b", Body: "second body", FinalScore: 0.4},
	}
}

func TestRerank_Skip(t *testing.T) {
	inf := &mockInference{scores: []float64{0.1, 0.2}}
	a := New(inf, 0, zap.NewNop())

	got, reason := a.Rerank(context.Background(), "q", fusedSet(), true)

	if inf.called {
		t.Error("skip must not touch inference")
	}
	if reason != "" {
		t.Errorf("unexpected degradation reason: %q", reason)
	}
	if got[0].FinalScore != 0.9 {
		t.Error("skip must keep fused scores")
	}
}

func TestRerank_EmptyInput(t *testing.T) {
	inf := &mockInference{}
	a := New(inf, 0, zap.NewNop())

	got, reason := a.Rerank(context.Background(), "q", nil, false)
	if inf.called || got != nil || reason != "" {
		t.Error("empty input must be a no-op")
	}
}

func TestRerank_ReplacesFinalScores(t *testing.T) {
	inf := &mockInference{scores: []float64{0.3, 0.8}}
	a := New(inf, time.Second, zap.NewNop())

	in := fusedSet()
	got, reason := a.Rerank(context.Background(), "q", in, false)
	if reason != "" {
		t.Fatalf("unexpected degradation: %q", reason)
	}

	if len(inf.texts) != 2 || inf.texts[0] != "first body" {
		t.Errorf("expected one batched call over candidate bodies, got %v", inf.texts)
	}
	if got[0].FinalScore != 0.3 || got[1].FinalScore != 0.8 {
		t.Errorf("final scores not replaced: %v %v", got[0].FinalScore, got[1].FinalScore)
	}
	if !got[0].HasRerank || got[0].RerankScore != 0.3 {
		t.Error("rerank score not recorded")
	}
	// The input slice stays untouched.
	if in[0].FinalScore != 0.9 || in[0].HasRerank {
		t.Error("input slice was mutated")
	}
}

func TestRerank_DegradesOnError(t *testing.T) {
	inf := &mockInference{err: errors.New("model unavailable")}
	a := New(inf, time.Second, zap.NewNop())

	in := fusedSet()
	got, reason := a.Rerank(context.Background(), "q", in, false)

	if reason == "" {
		t.Error("expected a degradation reason")
	}
	if len(got) != 2 || got[0].FinalScore != 0.9 || got[1].FinalScore != 0.4 {
		t.Error("degraded rerank must keep the fused order and scores")
	}
}

func TestRerank_NilInference(t *testing.T) {
	a := New(nil, 0, zap.NewNop())

	got, reason := a.Rerank(context.Background(), "q", fusedSet(), false)
	if reason != "" || got[0].FinalScore != 0.9 {
		t.Error("nil inference must pass fused candidates through")
	}
}
