package events

// TransitionEvent records one state-machine transition of a game session.
type TransitionEvent struct {
	From  string
	To    string
	Round int
	Score int
}

type Bus struct {
	Transitions chan TransitionEvent
}

func NewBus() *Bus {
	return &Bus{
		Transitions: make(chan TransitionEvent, 10),
	}
}

// Publish queues ev without blocking. It reports false when the buffer is full
// and the event was dropped.
func (b *Bus) Publish(ev TransitionEvent) bool {
	select {
	case b.Transitions <- ev:
		return true
	default:
		return false
	}
}

// Close ends the stream for consumers ranging over Transitions.
func (b *Bus) Close() {
	close(b.Transitions)
}
