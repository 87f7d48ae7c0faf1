package targets

import (
	"bubblerush/internal/utility"
)

const scatterAttempts = 100

// Store is an arena of active targets keyed by stable IDs. Iteration follows
// insertion order. It is not safe for concurrent use; the owning controller
// serializes access.
type Store struct {
	targets map[int]*Target
	order   []int
	nextID  int
}

func NewStore() *Store {
	return &Store{
		targets: make(map[int]*Target),
		nextID:  1,
	}
}

// Add places a target at (x, y) without any overlap check.
func (s *Store) Add(x, y int, rng Rand) *Target {
	id := s.nextID
	s.nextID++
	target := &Target{
		ID:    id,
		X:     x,
		Y:     y,
		XBias: randomBias(rng),
		YBias: randomBias(rng),
		Color: utility.RandomColorHex(rng),
	}
	s.targets[id] = target
	s.order = append(s.order, id)
	return target
}

func (s *Store) Get(id int) *Target {
	return s.targets[id]
}

// Overlaps reports whether a target placed at (x, y) would collide with any
// target already in the store.
func (s *Store) Overlaps(x, y int) bool {
	for _, id := range s.order {
		if s.targets[id].CheckCollision(x, y) {
			return true
		}
	}
	return false
}

// HitTest returns the first target, in insertion order, hit by (x, y).
func (s *Store) HitTest(x, y int) (int, bool) {
	for _, id := range s.order {
		if s.targets[id].CheckCollision(x, y) {
			return id, true
		}
	}
	return 0, false
}

func (s *Store) Remove(id int) bool {
	if _, ok := s.targets[id]; !ok {
		return false
	}
	delete(s.targets, id)
	order := make([]int, 0, len(s.order)-1)
	for _, other := range s.order {
		if other != id {
			order = append(order, other)
		}
	}
	s.order = order
	return true
}

// GetList returns copies of the active targets in insertion order.
func (s *Store) GetList() []Target {
	targetList := make([]Target, 0, len(s.order))
	for _, id := range s.order {
		targetList = append(targetList, *s.targets[id])
	}
	return targetList
}

func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) Clear() {
	s.targets = make(map[int]*Target)
	s.order = nil
	s.nextID = 1
}

func (s *Store) MoveAll(rng Rand, b Bounds) {
	for _, id := range s.order {
		s.targets[id].Move(rng, b)
	}
}

// Scatter adds n targets at random positions inside b. Each one retries until
// it clears the targets already present; once the attempts run out the last
// candidate is kept so the store always grows by exactly n.
func (s *Store) Scatter(n int, rng Rand, b Bounds) {
	for range n {
		var x, y int
		for attempt := 0; attempt < scatterAttempts; attempt++ {
			x = rng.Intn(b.Width - Radius)
			y = rng.Intn(b.Height-Radius-b.Top) + b.Top
			if !s.Overlaps(x, y) {
				break
			}
		}
		s.Add(x, y, rng)
	}
}
