package obs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

func TestObserveOperation(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation(schema.OpPurchaseAsset, 2*time.Millisecond, nil)
	m.ObserveOperation(schema.OpPurchaseAsset, 4*time.Millisecond, fmt.Errorf("x: %w", exception.ErrInsufficientBalance))
	m.ObserveOperation(schema.OpGiftAsset, time.Millisecond, exception.ErrPlayerNotFound)
	m.ObserveOperation(schema.Operation(250), time.Millisecond, nil)

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.OpSuccess[schema.OpPurchaseAsset])
	assert.Equal(t, uint64(1), s.OpFailure[schema.OpPurchaseAsset])
	assert.Equal(t, uint64(1), s.OpFailure[schema.OpGiftAsset])
	assert.Equal(t, uint64(1), s.ErrorCounts[exception.CodeInsufficientBalance])
	assert.Equal(t, uint64(1), s.ErrorCounts[exception.CodePlayerNotFound])

	lat := s.OpLatency[schema.OpPurchaseAsset]
	assert.Equal(t, uint64(2), lat.Count)
	assert.Equal(t, 2*time.Millisecond, lat.Min)
	assert.Equal(t, 4*time.Millisecond, lat.Max)
	assert.Equal(t, 3*time.Millisecond, lat.Avg)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation(schema.OpGetPlayer, time.Second, nil)
	m.ObserveEvent(schema.EventAssetGifted)
	m.IncSinkDrop()
	m.IncSinkClosed()
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestLatencyConcurrent(t *testing.T) {
	var l LatencyStats
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			l.Observe(d)
		}(time.Duration(i))
	}
	wg.Wait()

	s := l.Snapshot()
	assert.Equal(t, uint64(50), s.Count)
	assert.Equal(t, time.Duration(1), s.Min)
	assert.Equal(t, time.Duration(50), s.Max)
}

func TestSeqGenerator(t *testing.T) {
	g := NewSeqGenerator(41)
	assert.Equal(t, uint64(42), g.Next())
	assert.Equal(t, uint64(43), g.Next())
	assert.Equal(t, uint64(43), g.Last())

	var nilGen *SeqGenerator
	assert.Zero(t, nilGen.Next())
}

func TestExporter(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation(schema.OpPurchaseAsset, time.Millisecond, nil)
	m.ObserveOperation(schema.OpPurchaseAsset, time.Millisecond, nil)
	m.ObserveOperation(schema.OpRemoveAsset, time.Millisecond, exception.ErrAssetNotFound)
	m.ObserveEvent(schema.EventAssetPurchased)
	m.IncSinkDrop()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewExporter("test", m)))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	ops := byName["test_operation_total"]
	require.NotNil(t, ops)
	assert.Equal(t, 2.0, counterWith(ops, "operation", "purchase_asset", "result", "ok"))
	assert.Equal(t, 1.0, counterWith(ops, "operation", "remove_asset", "result", "error"))

	errs := byName["test_operation_errors_total"]
	require.NotNil(t, errs)
	assert.Equal(t, 1.0, counterWith(errs, "code", "asset_not_found"))

	require.NotNil(t, byName["test_events_dropped_total"])
	assert.Equal(t, 1.0, byName["test_events_dropped_total"].GetMetric()[0].GetCounter().GetValue())

	assert.Equal(t, 1, testutil.CollectAndCount(NewExporter("test", m), "test_events_emitted_total"))
}

func counterWith(f *dto.MetricFamily, labels ...string) float64 {
	for _, metric := range f.GetMetric() {
		got := make(map[string]string)
		for _, lp := range metric.GetLabel() {
			got[lp.GetName()] = lp.GetValue()
		}
		match := true
		for i := 0; i+1 < len(labels); i += 2 {
			if got[labels[i]] != labels[i+1] {
				match = false
				break
			}
		}
		if match {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}
