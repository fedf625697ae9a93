package obs

import (
	"sync/atomic"
	"time"

	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

const (
	maxOperation = int(schema.MaxOperation)
	maxEventType = int(schema.MaxEventType)
	maxCode      = int(exception.MaxCode)
)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	opSuccess   [maxOperation + 1]uint64
	opFailure   [maxOperation + 1]uint64
	errorCounts [maxCode + 1]uint64
	eventCounts [maxEventType + 1]uint64
	sinkDrops   uint64
	sinkClosed  uint64

	opLatency [maxOperation + 1]LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Sum   time.Duration
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	OpSuccess   map[schema.Operation]uint64
	OpFailure   map[schema.Operation]uint64
	ErrorCounts map[exception.Code]uint64
	EventCounts map[schema.EventType]uint64
	SinkDrops   uint64
	SinkClosed  uint64
	OpLatency   map[schema.Operation]LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveOperation records the outcome and duration of one public operation.
func (m *Metrics) ObserveOperation(op schema.Operation, d time.Duration, err error) {
	if m == nil {
		return
	}
	idx := int(op)
	if idx < 0 || idx >= len(m.opSuccess) {
		return
	}
	m.opLatency[idx].Observe(d)
	if err == nil {
		atomic.AddUint64(&m.opSuccess[idx], 1)
		return
	}
	atomic.AddUint64(&m.opFailure[idx], 1)
	if code := int(exception.CodeOf(err)); code < len(m.errorCounts) {
		atomic.AddUint64(&m.errorCounts[code], 1)
	}
}

// ObserveEvent counts an emitted event.
func (m *Metrics) ObserveEvent(t schema.EventType) {
	if m == nil {
		return
	}
	idx := int(t)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// IncSinkDrop records an event the sink refused because it was full.
func (m *Metrics) IncSinkDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkDrops, 1)
}

// IncSinkClosed records an event emitted after the sink closed.
func (m *Metrics) IncSinkClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkClosed, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	s := Snapshot{
		OpSuccess:   make(map[schema.Operation]uint64),
		OpFailure:   make(map[schema.Operation]uint64),
		ErrorCounts: make(map[exception.Code]uint64),
		EventCounts: make(map[schema.EventType]uint64),
		SinkDrops:   atomic.LoadUint64(&m.sinkDrops),
		SinkClosed:  atomic.LoadUint64(&m.sinkClosed),
		OpLatency:   make(map[schema.Operation]LatencySnapshot),
	}
	for i := range m.opSuccess {
		op := schema.Operation(i)
		if v := atomic.LoadUint64(&m.opSuccess[i]); v > 0 {
			s.OpSuccess[op] = v
		}
		if v := atomic.LoadUint64(&m.opFailure[i]); v > 0 {
			s.OpFailure[op] = v
		}
		if l := m.opLatency[i].Snapshot(); l.Count > 0 {
			s.OpLatency[op] = l
		}
	}
	for i := range m.errorCounts {
		if v := atomic.LoadUint64(&m.errorCounts[i]); v > 0 {
			s.ErrorCounts[exception.Code(i)] = v
		}
	}
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			s.EventCounts[schema.EventType(i)] = v
		}
	}
	return s
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Sum:   time.Duration(sum),
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
