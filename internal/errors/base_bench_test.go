package errors

import (
	"testing"

	"assetverse/pkg/exception"
)

func BenchmarkLedgerErrors(b *testing.B) {
	b.Run("wrapf sentinel", func(b *testing.B) {
		for b.Loop() {
			err := Wrapf(exception.ErrInsufficientAssetCount, "have %d %s, need %d", 2, "sword", 3)
			_ = err.Error()
		}
	})

	b.Run("is through wrap", func(b *testing.B) {
		err := Wrap(Wrapf(exception.ErrPlayerNotFound, "principal %s", "alice"), "gift receiver")
		for b.Loop() {
			_ = Is(err, exception.ErrPlayerNotFound)
		}
	})

	b.Run("code of wrapped", func(b *testing.B) {
		err := Wrapf(exception.ErrArithmeticOverflow, "price %d times %d", 10, 3)
		for b.Loop() {
			_ = exception.CodeOf(err)
		}
	})

	b.Run("code of unknown", func(b *testing.B) {
		err := New("disk full")
		for b.Loop() {
			_ = exception.CodeOf(err)
		}
	})
}
