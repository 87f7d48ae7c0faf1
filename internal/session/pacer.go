package session

import "time"

// Pacer converts frame time into timer ticks for hosts that own their own
// frame loop. Accumulated time is dropped whenever the timer epoch changes.
type Pacer struct {
	epoch   uint64
	elapsed time.Duration
}

// Advance adds dt and returns how many ticks of t are now due.
func (p *Pacer) Advance(t Timer, dt time.Duration) int {
	if t.Epoch != p.epoch {
		p.epoch = t.Epoch
		p.elapsed = 0
	}
	if !t.Running || t.Interval <= 0 {
		p.elapsed = 0
		return 0
	}
	p.elapsed += dt
	n := int(p.elapsed / t.Interval)
	p.elapsed -= time.Duration(n) * t.Interval
	return n
}

// Drive advances c by dt, delivering any due ticks. It returns the number of
// ticks the controller accepted.
func (p *Pacer) Drive(c *Controller, dt time.Duration) int {
	t := c.Timer()
	accepted := 0
	for range p.Advance(t, dt) {
		if res := c.Tick(t.Epoch); !res.Stale {
			accepted++
		}
	}
	return accepted
}
