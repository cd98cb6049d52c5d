package rt

import (
	"context"
	"log"

	"remnant-inventory-backend/internal/model"
	"remnant-inventory-backend/internal/store"
)

// SnapshotSource provides the data pushed to an observer on connect and on
// refresh. store.Store satisfies it.
type SnapshotSource interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	ListRemnants(ctx context.Context, filter store.RemnantFilter) ([]model.Remnant, error)
}

// Hub owns the registry of connected observers and fans ledger events out
// to all of them. Registration, refresh requests and broadcasts are all
// serialized through the run loop, so a connecting observer always receives
// its snapshot frames before any broadcast that follows the registration.
type Hub struct {
	source SnapshotSource

	register   chan *Client
	unregister chan *Client
	refresh    chan *Client
	broadcast  chan []byte

	clients map[*Client]struct{}
}

// NewHub creates a hub reading snapshots from the given source.
func NewHub(source SnapshotSource) *Hub {
	return &Hub{
		source:     source,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes registry changes and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Printf("observer connected (%d total)", len(h.clients))
			h.pushSnapshot(ctx, client)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("observer disconnected (%d total)", len(h.clients))
			}
		case client := <-h.refresh:
			if _, ok := h.clients[client]; ok {
				h.pushSnapshot(ctx, client)
			}
		case frame := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, frame)
			}
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Broadcast sends a typed event with the given payload to every connected
// observer. Delivery is fire-and-forget: there is no acknowledgement and no
// replay for observers that miss it.
func (h *Hub) Broadcast(event string, data any) {
	frame, err := marshalFrame(event, data)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", event, err)
		return
	}
	h.broadcast <- frame
}

// deliver enqueues a frame for one observer. An observer whose send buffer
// is full is considered dead and dropped; deliver reports whether the
// observer is still attached.
func (h *Hub) deliver(client *Client, frame []byte) bool {
	select {
	case client.send <- frame:
		return true
	default:
		delete(h.clients, client)
		close(client.send)
		return false
	}
}

// pushSnapshot sends the full current state to one observer: the machine
// list, the available remnants (newest creation first) and the consumed
// remnants (newest update first).
func (h *Hub) pushSnapshot(ctx context.Context, client *Client) {
	machines, err := h.source.ListMachines(ctx)
	if err != nil {
		log.Printf("snapshot: failed to list machines: %v", err)
		return
	}

	available := true
	availableRemnants, err := h.source.ListRemnants(ctx, store.RemnantFilter{Available: &available})
	if err != nil {
		log.Printf("snapshot: failed to list available remnants: %v", err)
		return
	}

	consumed := false
	consumedRemnants, err := h.source.ListRemnants(ctx, store.RemnantFilter{Available: &consumed})
	if err != nil {
		log.Printf("snapshot: failed to list consumed remnants: %v", err)
		return
	}

	frames := []struct {
		event string
		data  any
	}{
		{EventInitialMachines, machines},
		{EventInitialAvailable, availableRemnants},
		{EventInitialConsumed, consumedRemnants},
	}
	for _, f := range frames {
		frame, err := marshalFrame(f.event, f.data)
		if err != nil {
			log.Printf("snapshot: failed to marshal %s: %v", f.event, err)
			return
		}
		if !h.deliver(client, frame) {
			return
		}
	}
}
