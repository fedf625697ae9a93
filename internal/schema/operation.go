package schema

// Operation names a public ledger operation.
type Operation uint8

const (
	OpUnknown Operation = iota
	OpRegisterPlayer
	OpGetPlayer
	OpRegisterAsset
	OpListGames
	OpListAssets
	OpPurchaseAsset
	OpRemoveAsset
	OpGiftAsset
	OpExchangeAsset
	OpModifyAsset
)

// MaxOperation is the highest defined operation.
const MaxOperation = OpModifyAsset

var operationNames = [...]string{
	OpUnknown:        "unknown",
	OpRegisterPlayer: "register_player",
	OpGetPlayer:      "get_player",
	OpRegisterAsset:  "register_asset",
	OpListGames:      "list_games",
	OpListAssets:     "list_assets",
	OpPurchaseAsset:  "purchase_asset",
	OpRemoveAsset:    "remove_asset",
	OpGiftAsset:      "gift_asset",
	OpExchangeAsset:  "exchange_asset",
	OpModifyAsset:    "modify_asset",
}

func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return operationNames[OpUnknown]
}
