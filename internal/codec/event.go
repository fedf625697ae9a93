package codec

import (
	"encoding/json"
	"fmt"

	"assetverse/internal/schema"
)

// EncodeRecord serializes an event payload for the journal.
func EncodeRecord(rec schema.Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("record is nil")
	}
	return json.Marshal(rec)
}

// DecodeRecord parses a journal payload of the given type.
func DecodeRecord(t schema.EventType, data []byte) (schema.Record, error) {
	switch t {
	case schema.EventPlayerCreated:
		return decodeInto[schema.PlayerCreated](data)
	case schema.EventAssetCreated:
		return decodeInto[schema.AssetCreated](data)
	case schema.EventAssetPurchased:
		return decodeInto[schema.AssetPurchased](data)
	case schema.EventAssetGifted:
		return decodeInto[schema.AssetGifted](data)
	case schema.EventAssetExchanged:
		return decodeInto[schema.AssetExchanged](data)
	case schema.EventAssetModified:
		return decodeInto[schema.AssetModified](data)
	default:
		return nil, fmt.Errorf("unknown event type: %d", t)
	}
}

func decodeInto[T schema.Record](data []byte) (schema.Record, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
