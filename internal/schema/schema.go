package schema

import "github.com/google/uuid"

// SchemaVersion is the current event schema version.
const SchemaVersion uint16 = 1

// EventType defines the category of a ledger event.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventPlayerCreated
	EventAssetCreated
	EventAssetPurchased
	EventAssetGifted
	EventAssetExchanged
	EventAssetModified
)

// MaxEventType is the highest defined event type.
const MaxEventType = EventAssetModified

var eventTypeNames = [...]string{
	EventUnknown:        "unknown",
	EventPlayerCreated:  "player_created",
	EventAssetCreated:   "asset_created",
	EventAssetPurchased: "asset_purchased",
	EventAssetGifted:    "asset_gifted",
	EventAssetExchanged: "asset_exchanged",
	EventAssetModified:  "asset_modified",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return eventTypeNames[EventUnknown]
}

// Record is implemented by every event payload.
type Record interface {
	EventType() EventType
}

// Event is the auditable envelope around a record.
type Event struct {
	ID      uuid.UUID
	Seq     uint64
	Time    int64
	Version uint16
	Payload Record
}

// Type returns the payload's event type.
func (e Event) Type() EventType {
	if e.Payload == nil {
		return EventUnknown
	}
	return e.Payload.EventType()
}

// NewEvent wraps a record with a fresh id and the current schema version.
func NewEvent(seq uint64, ts int64, payload Record) Event {
	return Event{
		ID:      uuid.New(),
		Seq:     seq,
		Time:    ts,
		Version: SchemaVersion,
		Payload: payload,
	}
}
