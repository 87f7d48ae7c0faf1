package wshub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRegisterAndBroadcast(t *testing.T) {
	h := NewHub()

	c1 := &Client{ID: "c1", Send: make(chan []byte, 16)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 16)}

	h.Register(c1)
	h.Register(c2)

	msg := ServerMessage{Type: "state", State: &StateView{Round: 2, Score: 7, Targets: []TargetView{{ID: 1, X: 10, Y: 40}}}}
	h.Broadcast(msg)

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.Send:
			var got ServerMessage
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "state" || got.State == nil || got.State.Round != 2 || got.State.Score != 7 {
				t.Fatalf("unexpected message: %+v", got)
			}
			if len(got.State.Targets) != 1 || got.State.Targets[0].Y != 40 {
				t.Fatalf("unexpected targets: %+v", got.State.Targets)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s did not receive message", c.ID)
		}
	}
}

func TestSend(t *testing.T) {
	h := NewHub()
	c1 := &Client{ID: "c1", Send: make(chan []byte, 16)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 16)}
	h.Register(c1)
	h.Register(c2)

	if !h.Send("c1", ServerMessage{Type: "outcome", Outcome: "rejected", Error: "overlap"}) {
		t.Fatal("Send to registered client should succeed")
	}

	select {
	case data := <-c1.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Outcome != "rejected" {
			t.Errorf("Outcome = %q, want rejected", got.Outcome)
		}
	default:
		t.Fatal("c1 did not receive message")
	}

	select {
	case <-c2.Send:
		t.Fatal("c2 should not receive a direct message for c1")
	default:
	}

	if h.Send("missing", ServerMessage{Type: "outcome"}) {
		t.Error("Send to unknown client should fail")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()

	c1 := &Client{ID: "c1", Send: make(chan []byte, 16)}
	h.Register(c1)
	h.Unregister("c1")

	if h.Count() != 0 {
		t.Errorf("Count = %d, want 0", h.Count())
	}
	if _, ok := <-c1.Send; ok {
		t.Fatal("c1.Send should be closed")
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister("nonexistent")
}

func TestCloseAll(t *testing.T) {
	h := NewHub()
	c1 := &Client{ID: "c1", Send: make(chan []byte, 1)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 1)}
	h.Register(c1)
	h.Register(c2)

	h.CloseAll()

	if h.Count() != 0 {
		t.Errorf("Count = %d, want 0", h.Count())
	}
	if _, ok := <-c2.Send; ok {
		t.Fatal("c2.Send should be closed")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()

	// Channel with capacity 1
	c := &Client{ID: "c1", Send: make(chan []byte, 1)}
	h.Register(c)

	// Fill the channel
	c.Send <- []byte("filler")

	// This should not block; the message is dropped
	h.Broadcast(ServerMessage{Type: "state"})

	// Only the filler should be in the channel
	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
		// expected
	}
}
