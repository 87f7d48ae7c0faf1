package session

// Outcome is what a single click did.
type Outcome int

const (
	OutcomePlaced Outcome = iota
	OutcomeRejected
	OutcomeHit
	OutcomeMiss
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaced:
		return "placed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeIgnored:
		return "ignored"
	}
	return "unknown"
}
