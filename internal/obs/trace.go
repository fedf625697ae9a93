package obs

import (
	"sync/atomic"
)

// SeqGenerator hands out monotonically increasing event sequence numbers.
type SeqGenerator struct {
	next uint64
}

// NewSeqGenerator returns a generator whose first Next is last+1.
func NewSeqGenerator(last uint64) *SeqGenerator {
	return &SeqGenerator{next: last}
}

// Next returns the next sequence number.
func (g *SeqGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}

// Last returns the most recently issued sequence number.
func (g *SeqGenerator) Last() uint64 {
	if g == nil {
		return 0
	}
	return atomic.LoadUint64(&g.next)
}
