package session

import (
	"bubblerush/internal/targets"
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StatePlacement = State("placement")
	StateRunning   = State("running")
	StateRoundOver = State("round_over")
	StateGameOver  = State("game_over")
)

const (
	MinDifficulty = 4
	MaxDifficulty = 6
)

var (
	ErrPositionOverlap   = errors.New("selected position overlaps an existing target")
	ErrGameOver          = errors.New("game is over")
	ErrInvalidDifficulty = fmt.Errorf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)
	ErrDifficultyLocked  = errors.New("difficulty can only change before the first target is placed")
	ErrInvalidBounds     = targets.ErrInvalidBounds
)

type Config struct {
	Difficulty   int
	MaxRounds    int
	StartTime    int // seconds on the clock in round 1
	BaseInterval time.Duration
	IntervalStep time.Duration
	MinInterval  time.Duration
	Bounds       targets.Bounds
}

func DefaultConfig() Config {
	return Config{
		Difficulty:   5,
		MaxRounds:    10,
		StartTime:    15,
		BaseInterval: 1000 * time.Millisecond,
		IntervalStep: 100 * time.Millisecond,
		MinInterval:  time.Millisecond,
		Bounds:       targets.DefaultBounds(),
	}
}

func validDifficulty(d int) bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// Timer describes the tick source the host should be running. Epoch changes
// whenever the timer is armed, re-armed or stopped; ticks carrying an older
// epoch are discarded.
type Timer struct {
	Epoch    uint64
	Interval time.Duration
	Running  bool
}

type Transition struct {
	From  State
	To    State
	Round int
	Score int
}

type Snapshot struct {
	State         State
	Round         int
	Score         int
	RemainingTime int
	Difficulty    int
	GameOver      bool
	Targets       []targets.Target
	Timer         Timer
}

type TickResult struct {
	RemainingTime int
	Targets       []targets.Target
	GameOver      bool
	Stale         bool
}

type Summary struct {
	Round int
	Score int
}

func (s Summary) String() string {
	return fmt.Sprintf("Game Over. You reached round %d with a score of %d!", s.Round, s.Score)
}

// Controller is the game state machine. It performs no I/O and is not safe
// for concurrent use: hosts feed it clicks and ticks from a single goroutine.
type Controller struct {
	cfg     Config
	rng     targets.Rand
	targets *targets.Store

	state         State
	round         int
	score         int
	remainingTime int
	difficulty    int
	gameOver      bool
	timer         Timer

	transitions []Transition
}

func NewController(cfg Config, rng targets.Rand) (*Controller, error) {
	if !validDifficulty(cfg.Difficulty) {
		return nil, ErrInvalidDifficulty
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRounds < 1 || cfg.StartTime < 1 || cfg.BaseInterval <= 0 || cfg.MinInterval <= 0 {
		return nil, fmt.Errorf("invalid session config: %+v", cfg)
	}
	c := &Controller{
		cfg:        cfg,
		rng:        rng,
		targets:    targets.NewStore(),
		difficulty: cfg.Difficulty,
	}
	c.reset()
	c.transitions = nil
	return c, nil
}

// Interval is the tick period for a round: BaseInterval shortened by
// IntervalStep per round, never below MinInterval.
func (c *Controller) Interval(round int) time.Duration {
	d := c.cfg.BaseInterval - time.Duration(round-1)*c.cfg.IntervalStep
	return max(d, c.cfg.MinInterval)
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Timer() Timer {
	return c.timer
}

func (c *Controller) Bounds() targets.Bounds {
	return c.cfg.Bounds
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:         c.state,
		Round:         c.round,
		Score:         c.score,
		RemainingTime: c.remainingTime,
		Difficulty:    c.difficulty,
		GameOver:      c.gameOver,
		Targets:       c.targets.GetList(),
		Timer:         c.timer,
	}
}

func (c *Controller) Summary() Summary {
	return Summary{Round: c.round, Score: c.score}
}

// DrainTransitions returns the transitions recorded since the last call.
func (c *Controller) DrainTransitions() []Transition {
	out := c.transitions
	c.transitions = nil
	return out
}

func (c *Controller) SetDifficulty(d int) error {
	if !validDifficulty(d) {
		return ErrInvalidDifficulty
	}
	if c.state != StatePlacement || c.targets.Len() > 0 {
		return ErrDifficultyLocked
	}
	c.difficulty = d
	return nil
}

// Click handles one pointer click. Rejected and Ignored outcomes come with
// ErrPositionOverlap and ErrGameOver respectively.
func (c *Controller) Click(x, y int) (Outcome, error) {
	switch c.state {
	case StatePlacement:
		if c.targets.Overlaps(x, y) {
			return OutcomeRejected, ErrPositionOverlap
		}
		c.targets.Add(x, y, c.rng)
		if c.targets.Len() == c.difficulty {
			c.transition(StateRunning)
			c.armTimer()
		}
		return OutcomePlaced, nil
	case StateRunning:
		id, ok := c.targets.HitTest(x, y)
		if !ok {
			return OutcomeMiss, nil
		}
		c.targets.Remove(id)
		c.score++
		if c.targets.Len() == 0 {
			c.roundOver()
		}
		return OutcomeHit, nil
	default:
		return OutcomeIgnored, ErrGameOver
	}
}

// Tick advances the running round by one timer interval. Ticks from a timer
// other than the current one are reported as stale and change nothing.
func (c *Controller) Tick(epoch uint64) TickResult {
	if c.state != StateRunning || !c.timer.Running || epoch != c.timer.Epoch {
		return TickResult{
			RemainingTime: c.remainingTime,
			Targets:       c.targets.GetList(),
			GameOver:      c.gameOver,
			Stale:         true,
		}
	}

	c.remainingTime--
	c.targets.MoveAll(c.rng, c.cfg.Bounds)
	if c.remainingTime <= 0 {
		c.remainingTime = 0
		c.endGame()
	}

	return TickResult{
		RemainingTime: c.remainingTime,
		Targets:       c.targets.GetList(),
		GameOver:      c.gameOver,
	}
}

// Reset returns to placement for round 1. Difficulty is kept.
func (c *Controller) Reset() {
	c.reset()
}

func (c *Controller) reset() {
	from := c.state
	c.round = 1
	c.score = 0
	c.remainingTime = c.cfg.StartTime
	c.gameOver = false
	c.targets.Clear()
	c.timer = Timer{
		Epoch:    c.timer.Epoch + 1,
		Interval: c.Interval(1),
	}
	c.state = StatePlacement
	c.transitions = append(c.transitions, Transition{From: from, To: StatePlacement, Round: c.round, Score: c.score})
}

func (c *Controller) roundOver() {
	c.transition(StateRoundOver)
	if c.round >= c.cfg.MaxRounds {
		c.endGame()
		return
	}
	c.round++
	c.remainingTime = max(c.cfg.StartTime-c.round, 1)
	c.targets.Clear()
	c.targets.Scatter(c.difficulty, c.rng, c.cfg.Bounds)
	c.transition(StateRunning)
	c.armTimer()
}

func (c *Controller) endGame() {
	c.gameOver = true
	c.timer = Timer{
		Epoch:    c.timer.Epoch + 1,
		Interval: c.timer.Interval,
	}
	c.transition(StateGameOver)
}

func (c *Controller) armTimer() {
	c.timer = Timer{
		Epoch:    c.timer.Epoch + 1,
		Interval: c.Interval(c.round),
		Running:  true,
	}
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	c.transitions = append(c.transitions, Transition{From: from, To: to, Round: c.round, Score: c.score})
}
