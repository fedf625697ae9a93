package schema

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
)

// Balance is an unsigned 128-bit token amount. Prices and totals share the
// type so price times count never narrows.
type Balance struct {
	hi uint64
	lo uint64
}

// MaxBalance is the largest representable amount.
var MaxBalance = Balance{hi: ^uint64(0), lo: ^uint64(0)}

// NewBalance converts a 64-bit amount.
func NewBalance(v uint64) Balance {
	return Balance{lo: v}
}

// BalanceFromParts builds a balance from its high and low words.
func BalanceFromParts(hi, lo uint64) Balance {
	return Balance{hi: hi, lo: lo}
}

// Parts returns the high and low 64-bit words.
func (b Balance) Parts() (hi, lo uint64) {
	return b.hi, b.lo
}

func (b Balance) IsZero() bool {
	return b.hi == 0 && b.lo == 0
}

// Cmp returns -1, 0 or 1.
func (b Balance) Cmp(o Balance) int {
	switch {
	case b.hi < o.hi:
		return -1
	case b.hi > o.hi:
		return 1
	case b.lo < o.lo:
		return -1
	case b.lo > o.lo:
		return 1
	default:
		return 0
	}
}

// Add returns b+o and false when the sum does not fit.
func (b Balance) Add(o Balance) (Balance, bool) {
	lo, carry := bits.Add64(b.lo, o.lo, 0)
	hi, carry := bits.Add64(b.hi, o.hi, carry)
	if carry != 0 {
		return Balance{}, false
	}
	return Balance{hi: hi, lo: lo}, true
}

// Sub returns b-o and false when o is larger than b.
func (b Balance) Sub(o Balance) (Balance, bool) {
	lo, borrow := bits.Sub64(b.lo, o.lo, 0)
	hi, borrow := bits.Sub64(b.hi, o.hi, borrow)
	if borrow != 0 {
		return Balance{}, false
	}
	return Balance{hi: hi, lo: lo}, true
}

// MulUint64 returns b*m and false when the product does not fit.
func (b Balance) MulUint64(m uint64) (Balance, bool) {
	carryLo, lo := bits.Mul64(b.lo, m)
	overflow, hiPart := bits.Mul64(b.hi, m)
	if overflow != 0 {
		return Balance{}, false
	}
	hi, carry := bits.Add64(carryLo, hiPart, 0)
	if carry != 0 {
		return Balance{}, false
	}
	return Balance{hi: hi, lo: lo}, true
}

// String renders the amount in base 10.
func (b Balance) String() string {
	if b.hi == 0 {
		return strconv.FormatUint(b.lo, 10)
	}
	var buf [40]byte
	i := len(buf)
	hi, lo := b.hi, b.lo
	for hi != 0 || lo != 0 {
		var rem uint64
		hi, rem = bits.Div64(0, hi, 10)
		lo, rem = bits.Div64(rem, lo, 10)
		i--
		buf[i] = byte('0' + rem)
	}
	return string(buf[i:])
}

// ParseBalance parses a base 10 amount.
func ParseBalance(s string) (Balance, error) {
	if len(s) == 0 {
		return Balance{}, fmt.Errorf("balance is empty")
	}
	var out Balance
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Balance{}, fmt.Errorf("invalid balance digit %q in %q", c, s)
		}
		next, ok := out.MulUint64(10)
		if !ok {
			return Balance{}, fmt.Errorf("balance out of range: %s", s)
		}
		next, ok = next.Add(NewBalance(uint64(c - '0')))
		if !ok {
			return Balance{}, fmt.Errorf("balance out of range: %s", s)
		}
		out = next
	}
	return out, nil
}

// MarshalJSON encodes the amount as a decimal string so 128-bit values survive
// JSON consumers that parse numbers as float64.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (b *Balance) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("balance is empty")
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseBalance(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
