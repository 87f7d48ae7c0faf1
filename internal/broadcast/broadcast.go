package broadcast

import (
	"bubblerush/internal/events"
	"encoding/json"
	"log"
	"sync"
)

// EventMessage is one Server-Sent Event: an event name and a data payload.
type EventMessage struct {
	Event string
	Msg   string
}

type transitionPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Round int    `json:"round"`
	Score int    `json:"score"`
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan EventMessage]bool
}

// NewBroadcaster forwards every transition on bus to subscribers as a
// "transition" event until the bus is closed.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan EventMessage]bool),
	}
	go func() {
		for ev := range bus.Transitions {
			data, err := json.Marshal(transitionPayload{
				From:  ev.From,
				To:    ev.To,
				Round: ev.Round,
				Score: ev.Score,
			})
			if err != nil {
				log.Printf("[Broadcast] marshal error: %v\n", err)
				continue
			}
			b.Broadcast("transition", string(data))
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan EventMessage {
	ch := make(chan EventMessage, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan EventMessage) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[ch] {
		delete(b.Clients, ch)
		close(ch)
	}
}

// CloseAll unsubscribes every client, ending their streams.
func (b *Broadcaster) CloseAll() {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		delete(b.Clients, ch)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(event string, message string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- EventMessage{Event: event, Msg: message}:
		default:
			// skip clients with full data channels
		}
	}
}
