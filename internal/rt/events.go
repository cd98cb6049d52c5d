package rt

import "encoding/json"

// Event names pushed to observers. Snapshot events are sent on connect and
// on an explicit refresh request; the rest follow ledger mutations.
const (
	EventInitialMachines  = "initial-machines"
	EventInitialAvailable = "initial-available"
	EventInitialConsumed  = "initial-consumed"

	EventCreated        = "created"
	EventUpdated        = "updated"
	EventDeleted        = "deleted"
	EventExhausted      = "exhausted"
	EventStillAvailable = "still-available"

	EventMachineCreated = "machine-created"
	EventMachineDeleted = "machine-deleted"

	EventClientCreated        = "client-created"
	EventClientUpdated        = "client-updated"
	EventClientDeleted        = "client-deleted"
	EventClientExhausted      = "client-exhausted"
	EventClientStillAvailable = "client-still-available"
)

// requestRefresh is the only inbound message an observer may send; it
// carries no payload and triggers a fresh snapshot push.
const requestRefresh = "refresh"

// envelope is the wire format of every frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func marshalFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: raw})
}
