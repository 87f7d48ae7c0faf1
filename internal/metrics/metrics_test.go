package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Clicks(t *testing.T) {
	c := NewCollector()
	c.ObserveClick("hit")
	c.ObserveClick("hit")
	c.ObserveClick("miss")

	if got := testutil.ToFloat64(c.clicks.WithLabelValues("hit")); got != 2 {
		t.Errorf("hit clicks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.clicks.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss clicks = %v, want 1", got)
	}
}

func TestCollector_TicksAndTransitions(t *testing.T) {
	c := NewCollector()
	c.ObserveTick()
	c.ObserveTransition("placement", "running")
	c.ObserveTransition("running", "game_over")

	if got := testutil.ToFloat64(c.ticks); got != 1 {
		t.Errorf("ticks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("game_over")); got != 1 {
		t.Errorf("game_over transitions = %v, want 1", got)
	}
}

func TestCollector_Sessions(t *testing.T) {
	c := NewCollector()
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()

	if got := testutil.ToFloat64(c.sessions); got != 1 {
		t.Errorf("open sessions = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveClick("placed")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `bubblerush_clicks_total{outcome="placed"} 1`) {
		t.Errorf("metrics output missing click counter:\n%s", body)
	}
}

func TestCollectors_AreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.ObserveTick()

	if got := testutil.ToFloat64(b.ticks); got != 0 {
		t.Errorf("second collector ticks = %v, want 0", got)
	}
}
