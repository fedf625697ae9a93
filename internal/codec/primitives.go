package codec

import (
	"encoding/binary"

	"assetverse/internal/schema"
)

// BalanceSize is the fixed width of an encoded balance.
const BalanceSize = 16

// PutBalance writes b as two little-endian words, low word first.
func PutBalance(dst []byte, b schema.Balance) {
	_ = dst[BalanceSize-1]
	hi, lo := b.Parts()
	binary.LittleEndian.PutUint64(dst[0:8], lo)
	binary.LittleEndian.PutUint64(dst[8:16], hi)
}

// ReadBalance parses a fixed-width balance.
func ReadBalance(src []byte) (schema.Balance, bool) {
	if len(src) < BalanceSize {
		return schema.Balance{}, false
	}
	lo := binary.LittleEndian.Uint64(src[0:8])
	hi := binary.LittleEndian.Uint64(src[8:16])
	return schema.BalanceFromParts(hi, lo), true
}

func appendBalance(dst []byte, b schema.Balance) []byte {
	var buf [BalanceSize]byte
	PutBalance(buf[:], b)
	return append(dst, buf[:]...)
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// cursor walks a compact payload. Any short or malformed read latches ok=false.
type cursor struct {
	src []byte
	ok  bool
}

func newCursor(src []byte) *cursor {
	return &cursor{src: src, ok: true}
}

func (c *cursor) readByte() byte {
	if !c.ok || len(c.src) < 1 {
		c.ok = false
		return 0
	}
	b := c.src[0]
	c.src = c.src[1:]
	return b
}

func (c *cursor) readUvarint() uint64 {
	if !c.ok {
		return 0
	}
	v, n := binary.Uvarint(c.src)
	if n <= 0 {
		c.ok = false
		return 0
	}
	c.src = c.src[n:]
	return v
}

func (c *cursor) readString() string {
	n := c.readUvarint()
	if !c.ok || uint64(len(c.src)) < n {
		c.ok = false
		return ""
	}
	s := string(c.src[:n])
	c.src = c.src[n:]
	return s
}

func (c *cursor) readBalance() schema.Balance {
	if !c.ok {
		return schema.Balance{}
	}
	b, ok := ReadBalance(c.src)
	if !ok {
		c.ok = false
		return schema.Balance{}
	}
	c.src = c.src[BalanceSize:]
	return b
}

func (c *cursor) done() bool {
	return c.ok && len(c.src) == 0
}
