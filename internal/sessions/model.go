package sessions

import (
	"bubblerush/internal/broadcast"
	"bubblerush/internal/events"
	"bubblerush/internal/session"
	"bubblerush/internal/targets"
	"bubblerush/internal/wshub"
	"context"
	"sync"
	"time"
)

// Session is one player's game as served over HTTP: the runner that owns the
// controller plus the fan-out channels the browser listens on.
type Session struct {
	ID          string
	Runner      *session.Runner
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	Bounds      targets.Bounds
	CreatedAt   time.Time

	bus    *events.Bus
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// stop cancels the runner and, once it has exited, closes every stream fed
// by it.
func (s *Session) stop() {
	s.cancel()
	go func() {
		<-s.Runner.Done()
		s.bus.Close()
		s.Broadcaster.CloseAll()
		s.Hub.CloseAll()
	}()
}
