package exception

import stderrors "errors"

// Code is a stable, machine readable error kind.
type Code uint8

const (
	CodeOK Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeAssetNotFound
	CodeGameWithoutAssets
	CodePlayerNotFound
	CodePlayerExists
	CodeInsufficientBalance
	CodeInsufficientAssetCount
	CodeInvalidAmount
	CodeArithmeticOverflow
	CodeStoreCorrupt
)

// MaxCode is the highest defined code.
const MaxCode = CodeStoreCorrupt

var codeNames = [...]string{
	CodeOK:                     "ok",
	CodeInternal:               "internal",
	CodeInvalidArgument:        "invalid_argument",
	CodeAssetNotFound:          "asset_not_found",
	CodeGameWithoutAssets:      "game_without_assets",
	CodePlayerNotFound:         "player_not_found",
	CodePlayerExists:           "player_exists",
	CodeInsufficientBalance:    "insufficient_balance",
	CodeInsufficientAssetCount: "insufficient_asset_count",
	CodeInvalidAmount:          "invalid_amount",
	CodeArithmeticOverflow:     "arithmetic_overflow",
	CodeStoreCorrupt:           "store_corrupt",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return codeNames[CodeInternal]
}

var codeOf = []struct {
	err  error
	code Code
}{
	{ErrAssetNotFound, CodeAssetNotFound},
	{ErrGameWithoutAssets, CodeGameWithoutAssets},
	{ErrPlayerNotFound, CodePlayerNotFound},
	{ErrPlayerExists, CodePlayerExists},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrInsufficientAssetCount, CodeInsufficientAssetCount},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrArithmeticOverflow, CodeArithmeticOverflow},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrStoreCorrupt, CodeStoreCorrupt},
}

// CodeOf classifies err by the first sentinel found in its chain.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, c := range codeOf {
		if stderrors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
