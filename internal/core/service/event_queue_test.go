package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/metrics"
)

func TestEventQueue_PushNeverBlocks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	q := newEventQueue(0, m)

	now := time.Now()
	for sku := uint64(0); sku < 100; sku++ {
		q.push(domain.NewEvent(domain.StateForSale, sku, seller, now))
	}

	// The pump may already hold one event while it waits for a receiver.
	assert.GreaterOrEqual(t, q.pending(), 99)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.QueueDepth), 99.0)

	q.close()
	var skus []uint64
	for e := range q.out {
		skus = append(skus, e.Sku)
	}
	require.Len(t, skus, 100)
	for i, sku := range skus {
		assert.Equal(t, uint64(i), sku)
	}
	assert.Zero(t, q.pending())
	assert.Zero(t, testutil.ToFloat64(m.QueueDepth))
}

func TestEventQueue_CloseEmpty(t *testing.T) {
	q := newEventQueue(4, nil)
	q.close()

	select {
	case _, open := <-q.out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("queue output was not closed")
	}
}
