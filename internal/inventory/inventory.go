// Package inventory holds the quantity transforms applied to one account's
// inventory. The transforms never touch balances and never leave an entry
// with a zero quantity behind.
package inventory

import (
	"math"

	"assetverse/internal/errors"
	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

// Increase adds amount units of id, creating the entry when absent.
func Increase(inv schema.Inventory, id schema.AssetID, amount schema.Quantity) (schema.Quantity, error) {
	if amount <= 0 {
		return 0, exception.ErrInvalidAmount
	}
	current := inv[id]
	if current > math.MaxInt64-amount {
		return 0, errors.Wrapf(exception.ErrArithmeticOverflow, "increase %s by %d", id, amount)
	}
	next := current + amount
	inv[id] = next
	return next, nil
}

// Decrease removes amount units of id. The entry must exist and hold at least
// amount units; an entry brought to zero is deleted.
func Decrease(inv schema.Inventory, id schema.AssetID, amount schema.Quantity) (schema.Quantity, error) {
	if amount <= 0 {
		return 0, exception.ErrInvalidAmount
	}
	current, ok := inv[id]
	if !ok {
		return 0, errors.Wrapf(exception.ErrAssetNotFound, "inventory has no %s", id)
	}
	if current < amount {
		return 0, errors.Wrapf(exception.ErrInsufficientAssetCount, "have %d %s, need %d", current, id, amount)
	}
	next := current - amount
	if next == 0 {
		delete(inv, id)
		return 0, nil
	}
	inv[id] = next
	return next, nil
}

// Lookup returns the held quantity, 0 when absent.
func Lookup(inv schema.Inventory, id schema.AssetID) schema.Quantity {
	return inv[id]
}

// Set overwrites the quantity of id. A zero quantity removes the entry.
func Set(inv schema.Inventory, id schema.AssetID, qty schema.Quantity) error {
	if qty < 0 {
		return exception.ErrInvalidAmount
	}
	if qty == 0 {
		delete(inv, id)
		return nil
	}
	inv[id] = qty
	return nil
}

// Validate reports whether every entry holds a positive quantity.
func Validate(inv schema.Inventory) error {
	for id, qty := range inv {
		if qty <= 0 {
			return errors.Wrapf(exception.ErrInvalidAmount, "entry %s holds %d", id, qty)
		}
	}
	return nil
}
