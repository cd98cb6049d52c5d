package rt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remnant-inventory-backend/internal/model"
	"remnant-inventory-backend/internal/store"
)

// fakeSource is a canned SnapshotSource.
type fakeSource struct {
	machines  []model.Machine
	available []model.Remnant
	consumed  []model.Remnant
}

func (f *fakeSource) ListMachines(ctx context.Context) ([]model.Machine, error) {
	return f.machines, nil
}

func (f *fakeSource) ListRemnants(ctx context.Context, filter store.RemnantFilter) ([]model.Remnant, error) {
	if filter.Available != nil && !*filter.Available {
		return f.consumed, nil
	}
	return f.available, nil
}

func newTestHub(t *testing.T, source SnapshotSource) *Hub {
	t.Helper()
	hub := NewHub(source)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newFakeClient(buffer int) *Client {
	return &Client{send: make(chan []byte, buffer)}
}

// recvFrame reads one frame off a client's send queue or fails the test.
func recvFrame(t *testing.T, client *Client) envelope {
	t.Helper()
	select {
	case frame, ok := <-client.send:
		require.True(t, ok, "send channel closed unexpectedly")
		var env envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return envelope{}
	}
}

func testSource() *fakeSource {
	return &fakeSource{
		machines: []model.Machine{{ID: "m1", Name: "CNC-1"}},
		available: []model.Remnant{
			{ID: "r2", MachineID: "m1", Quantity: 3, Available: true},
			{ID: "r1", MachineID: "m1", Quantity: 1, Available: true},
		},
		consumed: []model.Remnant{{ID: "r0", MachineID: "m1", Available: false}},
	}
}

func TestSnapshotOnConnect(t *testing.T) {
	hub := newTestHub(t, testSource())

	client := newFakeClient(sendBufferSize)
	hub.register <- client

	// The three snapshot frames arrive in a fixed order.
	first := recvFrame(t, client)
	assert.Equal(t, EventInitialMachines, first.Event)
	var machines []model.Machine
	require.NoError(t, json.Unmarshal(first.Data, &machines))
	require.Len(t, machines, 1)
	assert.Equal(t, "CNC-1", machines[0].Name)

	second := recvFrame(t, client)
	assert.Equal(t, EventInitialAvailable, second.Event)
	var available []model.Remnant
	require.NoError(t, json.Unmarshal(second.Data, &available))
	assert.Len(t, available, 2)

	third := recvFrame(t, client)
	assert.Equal(t, EventInitialConsumed, third.Event)
	var consumed []model.Remnant
	require.NoError(t, json.Unmarshal(third.Data, &consumed))
	require.Len(t, consumed, 1)
	assert.Equal(t, "r0", consumed[0].ID)
}

func TestSnapshotOnRefresh(t *testing.T) {
	hub := newTestHub(t, testSource())

	client := newFakeClient(sendBufferSize)
	hub.register <- client
	for i := 0; i < 3; i++ {
		recvFrame(t, client)
	}

	hub.refresh <- client
	assert.Equal(t, EventInitialMachines, recvFrame(t, client).Event)
	assert.Equal(t, EventInitialAvailable, recvFrame(t, client).Event)
	assert.Equal(t, EventInitialConsumed, recvFrame(t, client).Event)
}

func TestBroadcastFanOut(t *testing.T) {
	hub := newTestHub(t, testSource())

	a := newFakeClient(sendBufferSize)
	b := newFakeClient(sendBufferSize)
	hub.register <- a
	hub.register <- b
	for i := 0; i < 3; i++ {
		recvFrame(t, a)
		recvFrame(t, b)
	}

	remnant := model.Remnant{ID: "r9", MachineID: "m1", Quantity: 2, Available: true}
	hub.Broadcast(EventCreated, remnant)

	for _, client := range []*Client{a, b} {
		env := recvFrame(t, client)
		assert.Equal(t, EventCreated, env.Event)
		var got model.Remnant
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "r9", got.ID)
	}
}

func TestDeletionBroadcastCarriesBareID(t *testing.T) {
	hub := newTestHub(t, testSource())

	client := newFakeClient(sendBufferSize)
	hub.register <- client
	for i := 0; i < 3; i++ {
		recvFrame(t, client)
	}

	hub.Broadcast(EventDeleted, "r1")

	env := recvFrame(t, client)
	assert.Equal(t, EventDeleted, env.Event)
	var id string
	require.NoError(t, json.Unmarshal(env.Data, &id))
	assert.Equal(t, "r1", id)
}

func TestSlowObserverIsDropped(t *testing.T) {
	hub := newTestHub(t, testSource())

	// A buffer of two cannot hold the three snapshot frames; the third
	// delivery drops the observer and closes its queue.
	slow := newFakeClient(2)
	hub.register <- slow

	recvFrame(t, slow)
	recvFrame(t, slow)

	select {
	case _, ok := <-slow.send:
		assert.False(t, ok, "expected the send channel to be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the send channel to close")
	}

	// A healthy observer registered afterwards is unaffected.
	healthy := newFakeClient(sendBufferSize)
	hub.register <- healthy
	for i := 0; i < 3; i++ {
		recvFrame(t, healthy)
	}
	hub.Broadcast(EventUpdated, model.Remnant{ID: "r1"})
	assert.Equal(t, EventUpdated, recvFrame(t, healthy).Event)
}

func TestUnregisterClosesSendQueue(t *testing.T) {
	hub := newTestHub(t, testSource())

	client := newFakeClient(sendBufferSize)
	hub.register <- client
	for i := 0; i < 3; i++ {
		recvFrame(t, client)
	}

	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		assert.False(t, ok, "expected the send channel to be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the send channel to close")
	}
}

func TestMarshalFrame(t *testing.T) {
	frame, err := marshalFrame(EventExhausted, map[string]string{"id": "r1"})
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventExhausted, env.Event)
	assert.JSONEq(t, `{"id":"r1"}`, string(env.Data))
}
