package session

import (
	"bubblerush/internal/events"
	"context"
	"errors"
	"log"
	"time"
)

var ErrRunnerStopped = errors.New("session runner stopped")

// Observer receives a copy of everything the runner feeds the controller.
type Observer interface {
	ObserveClick(outcome string)
	ObserveTick()
	ObserveTransition(from, to string)
}

const (
	CauseStart      = "start"
	CauseClick      = "click"
	CauseTick       = "tick"
	CauseReset      = "reset"
	CauseDifficulty = "difficulty"

	causeQuery = "query"
)

// Update is handed to the render hook after every event that may have
// changed the session.
type Update struct {
	Cause    string
	Snapshot Snapshot
}

type request struct {
	cause string
	fn    func(c *Controller)
	done  chan struct{}
}

// Runner owns a Controller on a single goroutine. Clicks, resets and timer
// ticks are delivered to it one at a time, and the ticker is swapped as soon
// as the controller's timer epoch moves. A request returns only after the
// update it caused has been published.
type Runner struct {
	ctrl     *Controller
	bus      *events.Bus
	observer Observer
	onUpdate func(Update)

	reqs chan request
	done chan struct{}
}

// NewRunner wraps ctrl. bus, obs and onUpdate may be nil. onUpdate runs on
// the runner goroutine and must not call back into the runner.
func NewRunner(ctrl *Controller, bus *events.Bus, obs Observer, onUpdate func(Update)) *Runner {
	return &Runner{
		ctrl:     ctrl,
		bus:      bus,
		observer: obs,
		onUpdate: onUpdate,
		reqs:     make(chan request),
		done:     make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
		armed  Timer
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stop()

	rearm := func() {
		t := r.ctrl.Timer()
		if t == armed {
			return
		}
		stop()
		armed = t
		if t.Running {
			ticker = time.NewTicker(t.Interval)
			tickC = ticker.C
		}
	}

	r.publish(CauseStart)
	rearm()

	for {
		var cause string
		select {
		case <-ctx.Done():
			return
		case <-tickC:
			if res := r.ctrl.Tick(armed.Epoch); res.Stale {
				continue
			}
			if r.observer != nil {
				r.observer.ObserveTick()
			}
			cause = CauseTick
		case req := <-r.reqs:
			req.fn(r.ctrl)
			if req.cause != causeQuery {
				rearm()
				r.publish(req.cause)
			}
			close(req.done)
			continue
		}
		rearm()
		r.publish(cause)
	}
}

func (r *Runner) publish(cause string) {
	for _, tr := range r.ctrl.DrainTransitions() {
		if r.bus != nil && !r.bus.Publish(events.TransitionEvent{
			From:  string(tr.From),
			To:    string(tr.To),
			Round: tr.Round,
			Score: tr.Score,
		}) {
			log.Printf("[Session] transition bus full, dropping %s -> %s\n", tr.From, tr.To)
		}
		if r.observer != nil {
			r.observer.ObserveTransition(string(tr.From), string(tr.To))
		}
	}
	if r.onUpdate != nil {
		r.onUpdate(Update{Cause: cause, Snapshot: r.ctrl.Snapshot()})
	}
}

func (r *Runner) do(ctx context.Context, cause string, fn func(c *Controller)) error {
	req := request{cause: cause, fn: fn, done: make(chan struct{})}
	select {
	case r.reqs <- req:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Click(ctx context.Context, x, y int) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	if rerr := r.do(ctx, CauseClick, func(c *Controller) {
		outcome, err = c.Click(x, y)
		if r.observer != nil {
			r.observer.ObserveClick(outcome.String())
		}
	}); rerr != nil {
		return OutcomeIgnored, rerr
	}
	return outcome, err
}

func (r *Runner) Reset(ctx context.Context) error {
	return r.do(ctx, CauseReset, func(c *Controller) {
		c.Reset()
	})
}

func (r *Runner) SetDifficulty(ctx context.Context, d int) error {
	var err error
	if rerr := r.do(ctx, CauseDifficulty, func(c *Controller) {
		err = c.SetDifficulty(d)
	}); rerr != nil {
		return rerr
	}
	return err
}

func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := r.do(ctx, causeQuery, func(c *Controller) {
		snap = c.Snapshot()
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *Runner) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	if err := r.do(ctx, causeQuery, func(c *Controller) {
		sum = c.Summary()
	}); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
