package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

type fakeProvider struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int

	embedVec []float32
	closed   atomic.Int32
	block    chan struct{} // when non-nil, calls wait here
}

func (p *fakeProvider) enter() {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxSeen {
		p.maxSeen = p.inFlight
	}
	p.mu.Unlock()
	if p.block != nil {
		<-p.block
	}
}

func (p *fakeProvider) leave() {
	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
}

func (p *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	p.enter()
	defer p.leave()
	return p.embedVec, nil
}

func (p *fakeProvider) Rerank(_ context.Context, _ string, texts []string) ([]float64, error) {
	p.enter()
	defer p.leave()
	return make([]float64, len(texts)), nil
}

func (p *fakeProvider) Expand(_ context.Context, _ string) ([]string, error) {
	p.enter()
	defer p.leave()
	return nil, nil
}

func (p *fakeProvider) Close() error {
	p.closed.Add(1)
	return nil
}

func TestResource_LazyInitOnce(t *testing.T) {
	var inits atomic.Int32
	provider := &fakeProvider{embedVec: []float32{1, 2}}
	r := NewResource(func() (Provider, error) {
		inits.Add(1)
		return provider, nil
	}, zap.NewNop())

	if inits.Load() != 0 {
		t.Fatal("provider built before first use")
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Embed(context.Background(), "x"); err != nil {
			t.Fatal(err)
		}
	}
	if inits.Load() != 1 {
		t.Errorf("expected exactly one init, got %d", inits.Load())
	}
}

func TestResource_InitFailureIsRetried(t *testing.T) {
	var attempts atomic.Int32
	provider := &fakeProvider{embedVec: []float32{1}}
	r := NewResource(func() (Provider, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("model file locked")
		}
		return provider, nil
	}, zap.NewNop())

	_, err := r.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}

	// A transient startup failure must not poison the resource.
	if _, err := r.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("retry after init failure: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 init attempts, got %d", attempts.Load())
	}
}

func TestResource_SerializesCalls(t *testing.T) {
	provider := &fakeProvider{embedVec: []float32{1}}
	r := NewResource(func() (Provider, error) { return provider, nil }, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Embed(context.Background(), "x"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if provider.maxSeen != 1 {
		t.Errorf("saw %d concurrent provider calls, want 1", provider.maxSeen)
	}
}

func TestResource_CancelledWaiterReleasesQueuePlace(t *testing.T) {
	provider := &fakeProvider{embedVec: []float32{1}, block: make(chan struct{})}
	r := NewResource(func() (Provider, error) { return provider, nil }, zap.NewNop())

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = r.Embed(context.Background(), "x")
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the call reach the provider

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Embed(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for a cancelled waiter, got %v", err)
	}

	// The gate must still be usable after the waiter gave up. Later calls
	// pass straight through the closed channel.
	close(provider.block)
	if _, err := r.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("gate unusable after cancelled waiter: %v", err)
	}
}

func TestResource_CloseIsIdempotent(t *testing.T) {
	provider := &fakeProvider{embedVec: []float32{1}}
	r := NewResource(func() (Provider, error) { return provider, nil }, zap.NewNop())

	if _, err := r.Embed(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if provider.closed.Load() != 1 {
		t.Errorf("provider closed %d times, want 1", provider.closed.Load())
	}

	if _, err := r.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEngineClosed) {
		t.Errorf("expected ErrEngineClosed after Close, got %v", err)
	}
}

func TestResource_CloseWithoutUse(t *testing.T) {
	r := NewResource(func() (Provider, error) {
		t.Fatal("provider must not be built by Close")
		return nil, nil
	}, zap.NewNop())

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
