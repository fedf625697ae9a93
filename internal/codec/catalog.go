package codec

import (
	"encoding/binary"

	"assetverse/internal/schema"
)

const (
	assetListVersion byte = 1
	gameListVersion  byte = 1
)

// EncodeAssetList serializes a game's asset definitions in registration order.
// The game id itself is carried by the store key.
func EncodeAssetList(dst []byte, defs []schema.AssetDef) []byte {
	dst = dst[:0]
	dst = append(dst, assetListVersion)
	dst = binary.AppendUvarint(dst, uint64(len(defs)))
	for _, def := range defs {
		dst = appendString(dst, string(def.Asset))
		dst = appendBalance(dst, def.Price)
	}
	return dst
}

// DecodeAssetList parses an asset list and stamps every entry with game.
func DecodeAssetList(game schema.GameID, src []byte) ([]schema.AssetDef, bool) {
	c := newCursor(src)
	if c.readByte() != assetListVersion {
		return nil, false
	}
	count := c.readUvarint()
	if !c.ok || count > uint64(len(c.src)) {
		return nil, false
	}
	defs := make([]schema.AssetDef, 0, count)
	for i := uint64(0); i < count; i++ {
		defs = append(defs, schema.AssetDef{
			Game:  game,
			Asset: schema.AssetID(c.readString()),
			Price: c.readBalance(),
		})
	}
	if !c.done() {
		return nil, false
	}
	return defs, true
}

// EncodeGameList serializes the registered games list, duplicates included.
func EncodeGameList(dst []byte, games []schema.GameID) []byte {
	dst = dst[:0]
	dst = append(dst, gameListVersion)
	dst = binary.AppendUvarint(dst, uint64(len(games)))
	for _, g := range games {
		dst = appendString(dst, string(g))
	}
	return dst
}

// DecodeGameList parses the registered games list.
func DecodeGameList(src []byte) ([]schema.GameID, bool) {
	c := newCursor(src)
	if c.readByte() != gameListVersion {
		return nil, false
	}
	count := c.readUvarint()
	if !c.ok || count > uint64(len(c.src)) {
		return nil, false
	}
	games := make([]schema.GameID, 0, count)
	for i := uint64(0); i < count; i++ {
		games = append(games, schema.GameID(c.readString()))
	}
	if !c.done() {
		return nil, false
	}
	return games, true
}
