package tui

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sounder plays feedback for clicks and the end of a game.
type Sounder interface {
	PlayHit()
	PlayMiss()
	PlayGameOver()
}

// Sound plays short synthesized tones through the system speaker. Until
// Initialize succeeds every Play call is a no-op.
type Sound struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewSound() *Sound {
	return &Sound{mixer: &beep.Mixer{}}
}

func (s *Sound) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

func (s *Sound) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	s.initialized = false
}

func (s *Sound) PlayHit()      { s.play(880, 80*time.Millisecond) }
func (s *Sound) PlayMiss()     { s.play(220, 60*time.Millisecond) }
func (s *Sound) PlayGameOver() { s.play(330, 400*time.Millisecond) }

func (s *Sound) play(freq float64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	streamer, err := tone(freq, d)
	if err != nil {
		return
	}
	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

// tone is a quiet sine wave of the given length.
func tone(freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil, err
	}
	return &effects.Volume{
		Streamer: beep.Take(sampleRate.N(d), sine),
		Base:     2,
		Volume:   -2,
	}, nil
}
