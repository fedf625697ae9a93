package schema

// PlayerCreated is emitted by a player registration. Balance is the grant the
// account started with.
type PlayerCreated struct {
	Account Principal `json:"account"`
	Name    string    `json:"name"`
	Balance Balance   `json:"balance"`
}

// AssetCreated is emitted by an asset registration.
type AssetCreated struct {
	Game  GameID  `json:"game"`
	Name  AssetID `json:"name"`
	Price Balance `json:"price"`
}

// AssetPurchased is emitted by a successful purchase.
type AssetPurchased struct {
	Account    Principal `json:"account"`
	Asset      AssetID   `json:"asset"`
	Count      Quantity  `json:"count"`
	TotalPrice Balance   `json:"total_price"`
}

// AssetGifted is emitted when units move between two accounts.
type AssetGifted struct {
	From  Principal `json:"from"`
	To    Principal `json:"to"`
	Asset AssetID   `json:"asset"`
	Count Quantity  `json:"count"`
}

// AssetExchanged is emitted by a one-for-one exchange.
type AssetExchanged struct {
	Account   Principal `json:"account"`
	FromAsset AssetID   `json:"from_asset"`
	ToAsset   AssetID   `json:"to_asset"`
	FromCount Quantity  `json:"from_count"`
	ToCount   Quantity  `json:"to_count"`
	Refund    Balance   `json:"refund"`
}

// AssetModified is emitted by removals and administrative adjustments.
// NewCount is the quantity left after the change, 0 when the entry was removed.
type AssetModified struct {
	Account   Principal `json:"account"`
	Asset     AssetID   `json:"asset"`
	NewCount  Quantity  `json:"new_count"`
	Increased bool      `json:"increased"`
}

func (PlayerCreated) EventType() EventType  { return EventPlayerCreated }
func (AssetCreated) EventType() EventType   { return EventAssetCreated }
func (AssetPurchased) EventType() EventType { return EventAssetPurchased }
func (AssetGifted) EventType() EventType    { return EventAssetGifted }
func (AssetExchanged) EventType() EventType { return EventAssetExchanged }
func (AssetModified) EventType() EventType  { return EventAssetModified }
