package session

import "fmt"

// Hint is the one-line status shown under the play area.
func (s Snapshot) Hint() string {
	switch {
	case s.GameOver:
		return Summary{Round: s.Round, Score: s.Score}.String()
	case s.State == StatePlacement:
		left := s.Difficulty - len(s.Targets)
		if left == 1 {
			return "Click to place 1 more bubble."
		}
		return fmt.Sprintf("Click to place %d more bubbles.", left)
	default:
		return ""
	}
}

// Labels is the control bar text.
func (s Snapshot) Labels() string {
	return fmt.Sprintf("Score: %d   Time: %d   Round: %d", s.Score, s.RemainingTime, s.Round)
}
