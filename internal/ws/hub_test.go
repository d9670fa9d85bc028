package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, channel string) *Client {
	return &Client{
		hub:     hub,
		channel: channel,
		send:    make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, ChannelTables)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[ChannelTables] == nil {
		t.Fatal("channel room not created")
	}
	if !hub.rooms[ChannelTables][client] {
		t.Fatal("client not registered in channel room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, ChannelKitchen)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[ChannelKitchen] != nil {
		t.Fatal("channel room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, ChannelOrders)
	client2 := mockClient(hub, ChannelKitchen)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast to the orders channel only
	testPayload := json.RawMessage(`{"order_id":"test-123"}`)
	event := Event{
		Type:    "order.created",
		Payload: testPayload,
	}
	hub.Broadcast(ChannelOrders, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received a message for another channel")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, ChannelTables)
	client2 := mockClient(hub, ChannelTables)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.Notify(ChannelTables, "table.updated", map[string]string{"table_id": "t-1"})

	for i, client := range []*Client{client1, client2} {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal message: %v", i+1, err)
			}
			if received.Type != "table.updated" {
				t.Errorf("client%d: expected type 'table.updated', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestValidChannel(t *testing.T) {
	for _, name := range []string{ChannelOrders, ChannelTables, ChannelKitchen} {
		if !ValidChannel(name) {
			t.Errorf("ValidChannel(%q) = false, want true", name)
		}
	}
	if ValidChannel("payments") {
		t.Error("ValidChannel(\"payments\") = true, want false")
	}
}
