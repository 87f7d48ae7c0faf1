package sessions

import (
	"bubblerush/internal/broadcast"
	"bubblerush/internal/events"
	"bubblerush/internal/session"
	"bubblerush/internal/wshub"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sweepInterval = 5 * time.Minute

// Observer is notified of session lifecycle as well as game activity.
type Observer interface {
	session.Observer
	SessionOpened()
	SessionClosed()
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      session.Config
	ttl      time.Duration
	observer Observer
	done     chan struct{}
	closed   bool
}

// NewStore starts a store whose sessions expire after ttl without activity.
// obs may be nil.
func NewStore(cfg session.Config, ttl time.Duration, obs Observer) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		ttl:      ttl,
		observer: obs,
		done:     make(chan struct{}),
	}
	go s.sweepStale()
	return s
}

// Create starts a new game session at the given difficulty.
func (s *Store) Create(difficulty int) (*Session, error) {
	cfg := s.cfg
	cfg.Difficulty = difficulty
	ctrl, err := session.NewController(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	now := time.Now()
	bus := events.NewBus()
	sess := &Session{
		ID:          uuid.New().String(),
		Broadcaster: broadcast.NewBroadcaster(bus),
		Hub:         wshub.NewHub(),
		Bounds:      cfg.Bounds,
		CreatedAt:   now,
		bus:         bus,
		lastSeen:    now,
	}

	var obs session.Observer
	if s.observer != nil {
		obs = s.observer
	}
	sess.Runner = session.NewRunner(ctrl, bus, obs, func(u session.Update) {
		publishState(sess, u.Snapshot)
	})

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		cancel()
		bus.Close()
		return nil, fmt.Errorf("creating session: store closed")
	}
	s.sessions[sess.ID] = sess
	go sess.Runner.Run(ctx)
	if s.observer != nil {
		s.observer.SessionOpened()
	}
	log.Printf("[Sessions] Created session %s (difficulty %d)\n", sess.ID, difficulty)
	return sess, nil
}

func publishState(sess *Session, snap session.Snapshot) {
	view := View(snap)
	msg := wshub.ServerMessage{Type: "state", State: &view}
	sess.Hub.Broadcast(msg)
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Sessions] marshal error: %v\n", err)
		return
	}
	sess.Broadcaster.Broadcast("state", string(data))
}

// Get returns the session and marks it active.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	if sess != nil {
		sess.touch(time.Now())
	}
	return sess
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	sess.stop()
	if s.observer != nil {
		s.observer.SessionClosed()
	}
}

func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	return list
}

// Close stops the sweeper and every open session.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for id := range s.sessions {
		s.deleteLocked(id)
	}
}

// Sweep removes sessions idle for longer than the TTL as of now.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > s.ttl {
			s.deleteLocked(id)
			removed++
		}
	}
	return removed
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				log.Printf("[Sessions] Swept %d stale sessions\n", n)
			}
		}
	}
}
