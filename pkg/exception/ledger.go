package exception

import "github.com/yanun0323/errors"

// Ledger errors
var (
	ErrAssetNotFound          = errors.New("ledger: asset not found")
	ErrGameWithoutAssets      = errors.New("ledger: game has no registered assets")
	ErrPlayerNotFound         = errors.New("ledger: player not found")
	ErrPlayerExists           = errors.New("ledger: player already registered")
	ErrInsufficientBalance    = errors.New("ledger: insufficient balance")
	ErrInsufficientAssetCount = errors.New("ledger: insufficient asset count")
	ErrInvalidAmount          = errors.New("ledger: amount must be positive")
	ErrArithmeticOverflow     = errors.New("ledger: arithmetic overflow")
)

// Store errors
var (
	// ErrStoreCorrupt is returned when a stored value cannot be decoded.
	ErrStoreCorrupt = errors.New("store: corrupt value")

	// ErrNilStore is returned when a component is built without a store.
	ErrNilStore = errors.New("store: nil store")
)

// Sink errors
var (
	ErrSinkFull   = errors.New("sink: queue full")
	ErrSinkClosed = errors.New("sink: closed")
)
