package schema

import "sort"

// Principal is an opaque, already authenticated account identifier.
type Principal string

// GameID identifies a game in the catalog.
type GameID string

// AssetID identifies an asset. Matching is always exact.
type AssetID string

// Quantity is a count of asset units. Stored quantities are always > 0.
type Quantity int64

// Inventory maps an asset to the owned quantity.
type Inventory map[AssetID]Quantity

// Clone returns an independent copy.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for id, qty := range inv {
		out[id] = qty
	}
	return out
}

// Assets returns the asset ids in ascending order.
func (inv Inventory) Assets() []AssetID {
	ids := make([]AssetID, 0, len(inv))
	for id := range inv {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Account is a player's balance and inventory record.
type Account struct {
	Principal Principal `json:"principal"`
	Name      string    `json:"name"`
	Balance   Balance   `json:"balance"`
	Inventory Inventory `json:"inventory"`
}

// Clone returns a copy whose inventory can be mutated without touching a.
func (a Account) Clone() Account {
	a.Inventory = a.Inventory.Clone()
	return a
}

// AssetDef is one catalog entry.
type AssetDef struct {
	Game  GameID  `json:"game"`
	Asset AssetID `json:"asset"`
	Price Balance `json:"price"`
}
