package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/supply-chain/internal/adapter/storage"
	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/metrics"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(nil, nil, NamedSink{Name: "recording", Sink: sink})

	queue := make(chan domain.Event, 4)
	now := time.Now()
	for state := domain.StateForSale; state <= domain.StateReceived; state++ {
		queue <- domain.NewEvent(state, 9, seller, now)
	}
	close(queue)

	d.Run(queue)

	require.Len(t, sink.events, 4)
	for i, e := range sink.events {
		assert.Equal(t, domain.State(i), e.Kind)
	}
}

func TestDispatcher_FailingSinkDoesNotBlockOthers(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	broken := &recordingSink{err: errors.New("broker down")}
	healthy := &recordingSink{}
	d := NewDispatcher(nil, m,
		NamedSink{Name: "broken", Sink: broken},
		NamedSink{Name: "healthy", Sink: healthy},
	)

	queue := make(chan domain.Event, 2)
	queue <- domain.NewEvent(domain.StateForSale, 0, seller, time.Now())
	queue <- domain.NewEvent(domain.StateForSale, 1, seller, time.Now())
	close(queue)

	d.Run(queue)

	assert.Len(t, healthy.events, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishFailures.WithLabelValues("broken")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Published.WithLabelValues("healthy")))
}

func TestService_EventsFlowThroughDispatcher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, buyer, 100)

	sink := &recordingSink{}
	done := make(chan struct{})
	go func() {
		NewDispatcher(nil, nil, NamedSink{Name: "recording", Sink: sink}).Run(f.svc.Events())
		close(done)
	}()

	sku := f.list(t, 100)
	require.NoError(t, f.svc.BuyItem(ctx, BuyRequest{Caller: buyer, Sku: sku, Amount: 100}))
	f.svc.Close()
	<-done

	require.Len(t, sink.events, 2)
	assert.Equal(t, domain.StateSold, sink.events[1].Kind)
	assert.Equal(t, buyer, sink.events[1].Actor)
}

// blockingSink holds every publish until release is closed.
type blockingSink struct {
	release chan struct{}
	recordingSink
}

func (s *blockingSink) Publish(ctx context.Context, event domain.Event) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.recordingSink.Publish(ctx, event)
}

func TestService_SlowSinkDoesNotStallRegistry(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryLedger(), owner, escrow, 1)

	sink := &blockingSink{release: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		NewDispatcher(nil, nil, NamedSink{Name: "slow", Sink: sink}).Run(svc.Events())
		close(done)
	}()

	const listings = 20
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < listings; i++ {
			_, err := svc.AddItem(ctx, seller, "Widget", 1)
			assert.NoError(t, err)
		}
		_, err := svc.FetchItem(ctx, 0)
		assert.NoError(t, err)
		svc.Owner()
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("registry operations blocked behind a slow notification sink")
	}

	close(sink.release)
	svc.Close()
	<-done

	// Nothing is dropped and order is preserved.
	require.Len(t, sink.events, listings)
	for i, e := range sink.events {
		assert.Equal(t, uint64(i), e.Sku)
	}
}
