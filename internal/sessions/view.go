package sessions

import (
	"bubblerush/internal/session"
	"bubblerush/internal/targets"
	"bubblerush/internal/wshub"
)

// View converts a snapshot into the payload the browser renders.
func View(snap session.Snapshot) wshub.StateView {
	view := wshub.StateView{
		State:         string(snap.State),
		Round:         snap.Round,
		Score:         snap.Score,
		RemainingTime: snap.RemainingTime,
		Difficulty:    snap.Difficulty,
		GameOver:      snap.GameOver,
		Targets:       make([]wshub.TargetView, 0, len(snap.Targets)),
	}
	if snap.GameOver {
		view.Message = session.Summary{Round: snap.Round, Score: snap.Score}.String()
	}
	for _, t := range snap.Targets {
		cx, cy := t.Center()
		view.Targets = append(view.Targets, wshub.TargetView{
			ID:     t.ID,
			X:      t.X,
			Y:      t.Y,
			CX:     cx,
			CY:     cy,
			Radius: targets.Radius / 2,
			Color:  t.Color,
		})
	}
	return view
}
