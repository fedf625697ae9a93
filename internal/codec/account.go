package codec

import (
	"encoding/binary"
	"math"

	"assetverse/internal/schema"
)

const accountVersion byte = 1

// EncodeAccount serializes an account into its compact stored form:
//
//	version | balance(16) | principal | name | count | (asset, qty)*
//
// Strings are uvarint length prefixed and quantities are uvarints, so a typical
// inventory entry costs a few bytes plus the asset id. Entries are written in
// asset order to keep the encoding deterministic.
func EncodeAccount(dst []byte, acc schema.Account) []byte {
	dst = dst[:0]
	dst = append(dst, accountVersion)
	dst = appendBalance(dst, acc.Balance)
	dst = appendString(dst, string(acc.Principal))
	dst = appendString(dst, acc.Name)
	ids := acc.Inventory.Assets()
	dst = binary.AppendUvarint(dst, uint64(len(ids)))
	for _, id := range ids {
		dst = appendString(dst, string(id))
		dst = binary.AppendUvarint(dst, uint64(acc.Inventory[id]))
	}
	return dst
}

// DecodeAccount parses a stored account. Entries with a zero or out of range
// quantity, duplicated assets and trailing bytes are all rejected.
func DecodeAccount(src []byte) (schema.Account, bool) {
	c := newCursor(src)
	if c.readByte() != accountVersion {
		return schema.Account{}, false
	}
	acc := schema.Account{
		Balance:   c.readBalance(),
		Principal: schema.Principal(c.readString()),
		Name:      c.readString(),
	}
	count := c.readUvarint()
	if !c.ok || count > uint64(len(c.src)) {
		return schema.Account{}, false
	}
	acc.Inventory = make(schema.Inventory, count)
	for i := uint64(0); i < count; i++ {
		id := schema.AssetID(c.readString())
		qty := c.readUvarint()
		if !c.ok || qty == 0 || qty > math.MaxInt64 {
			return schema.Account{}, false
		}
		if _, dup := acc.Inventory[id]; dup {
			return schema.Account{}, false
		}
		acc.Inventory[id] = schema.Quantity(qty)
	}
	if !c.done() {
		return schema.Account{}, false
	}
	return acc, true
}
