// Package ledger is the transaction engine. Every public operation resolves
// catalog and account state, validates every precondition and only then
// writes, so a rejected call leaves the store untouched.
package ledger

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"assetverse/internal/account"
	"assetverse/internal/catalog"
	"assetverse/internal/errors"
	"assetverse/internal/obs"
	"assetverse/internal/schema"
	"assetverse/internal/store"
	"assetverse/pkg/exception"
)

// Sink receives every emitted event. Emit must not block; a failed emit is
// logged and counted, never surfaced to the caller.
type Sink interface {
	Emit(schema.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(schema.Event) error

// Emit calls f.
func (f SinkFunc) Emit(e schema.Event) error {
	return f(e)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the event sink.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithMetrics sets the metrics container.
func WithMetrics(m *obs.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithAccountOptions sets the registration policy.
func WithAccountOptions(opts account.Options) Option {
	return func(e *Engine) {
		e.accountOpts = opts
	}
}

// WithLastSeq continues event numbering after seq, typically the last
// sequence found in the journal.
func WithLastSeq(seq uint64) Option {
	return func(e *Engine) {
		e.seq = obs.NewSeqGenerator(seq)
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine serializes ledger operations over one store.
type Engine struct {
	mu sync.Mutex

	store       store.Store
	catalog     *catalog.Catalog
	accounts    *account.Registry
	accountOpts account.Options

	sink    Sink
	metrics *obs.Metrics
	seq     *obs.SeqGenerator
	now     func() time.Time
}

// New builds an engine over s.
func New(s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, exception.ErrNilStore
	}
	e := &Engine{
		store:       s,
		accountOpts: account.DefaultOptions(),
		seq:         obs.NewSeqGenerator(0),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.catalog = catalog.New(s)
	e.accounts = account.NewRegistry(s, e.accountOpts)
	return e, nil
}

// LastSeq returns the sequence number of the most recent event.
func (e *Engine) LastSeq() uint64 {
	return e.seq.Last()
}

// Metrics returns the engine's metrics container, possibly nil.
func (e *Engine) Metrics() *obs.Metrics {
	return e.metrics
}

func (e *Engine) observe(op schema.Operation, start time.Time, err error) {
	e.metrics.ObserveOperation(op, time.Since(start), err)
	if err != nil {
		logs.Errorf("%s rejected, err: %+v", op, err)
	}
}

func (e *Engine) emit(rec schema.Record) {
	ev := schema.NewEvent(e.seq.Next(), e.now().UnixNano(), rec)
	e.metrics.ObserveEvent(ev.Type())
	if e.sink == nil {
		return
	}
	if err := e.sink.Emit(ev); err != nil {
		switch {
		case errors.Is(err, exception.ErrSinkClosed):
			e.metrics.IncSinkClosed()
		default:
			e.metrics.IncSinkDrop()
		}
		logs.Errorf("emit %s seq %d, err: %+v", ev.Type(), ev.Seq, err)
	}
}

func requirePositive(counts ...schema.Quantity) error {
	for _, c := range counts {
		if c <= 0 {
			return errors.Wrapf(exception.ErrInvalidAmount, "got %d", c)
		}
	}
	return nil
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return errors.Wrap(exception.ErrInvalidArgument, "empty identifier")
		}
	}
	return nil
}
