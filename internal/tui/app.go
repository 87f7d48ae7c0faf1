package tui

import (
	"bubblerush/internal/session"
	"bubblerush/internal/targets"
	"bubblerush/internal/utility"
	"context"
	"errors"
	"math"

	"github.com/gdamore/tcell/v2"
)

var (
	barStyle    = tcell.StyleDefault.Background(tcell.ColorSilver).Foreground(tcell.ColorBlack)
	hintStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	noticeStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	overStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
)

const (
	targetRune = '█'
	helpText   = "  [r]eset [4/5/6] difficulty [q]uit"
)

// App plays one session on a terminal screen. Clicks land on cell centers,
// which name the middle of a bubble rather than its corner.
type App struct {
	screen tcell.Screen
	runner *session.Runner
	sound  Sounder
	vp     Viewport

	updates chan session.Update
	snap    session.Snapshot
	notice  string
	pressed bool
}

// NewApp wraps an initialized screen. sound may be nil.
func NewApp(screen tcell.Screen, ctrl *session.Controller, sound Sounder) *App {
	a := &App{
		screen:  screen,
		sound:   sound,
		vp:      Viewport{Bounds: ctrl.Bounds()},
		updates: make(chan session.Update, 1),
		snap:    ctrl.Snapshot(),
	}
	a.vp.Cols, a.vp.Rows = screen.Size()
	a.runner = session.NewRunner(ctrl, nil, nil, a.push)
	return a
}

// push keeps only the newest update so the runner never blocks on the screen.
func (a *App) push(u session.Update) {
	select {
	case a.updates <- u:
		return
	default:
	}
	select {
	case <-a.updates:
	default:
	}
	a.updates <- u
}

// Run blocks until the player quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.runner.Run(ctx)
	defer func() { <-a.runner.Done() }()
	defer cancel()

	a.screen.EnableMouse()
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-a.updates:
			a.apply(u)
		case ev := <-events:
			if !a.handleEvent(ctx, ev) {
				return nil
			}
		}
		a.draw()
	}
}

func (a *App) apply(u session.Update) {
	if u.Snapshot.GameOver && !a.snap.GameOver && a.sound != nil {
		a.sound.PlayGameOver()
	}
	a.snap = u.Snapshot
}

// refresh applies an update already published by the runner, if any.
func (a *App) refresh() {
	select {
	case u := <-a.updates:
		a.apply(u)
	default:
	}
}

// handleEvent reports false when the player asked to quit.
func (a *App) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch r := ev.Rune(); r {
		case 'q':
			return false
		case 'r':
			a.notice = ""
			if err := a.runner.Reset(ctx); err != nil {
				a.notice = err.Error()
			}
		case '4', '5', '6':
			a.notice = ""
			if err := a.runner.SetDifficulty(ctx, int(r-'0')); err != nil {
				a.notice = err.Error()
			}
		}
		a.refresh()

	case *tcell.EventMouse:
		down := ev.Buttons()&tcell.Button1 != 0
		if down && !a.pressed {
			col, row := ev.Position()
			a.click(ctx, col, row)
		}
		a.pressed = down

	case *tcell.EventResize:
		a.vp.Cols, a.vp.Rows = a.screen.Size()
		a.screen.Sync()
	}
	return true
}

func (a *App) click(ctx context.Context, col, row int) {
	x, y, ok := a.vp.ToPanel(col, row)
	if !ok {
		return
	}
	outcome, err := a.runner.Click(ctx, x-targets.Radius/2, y-targets.Radius/2)
	a.notice = ""
	switch {
	case errors.Is(err, session.ErrPositionOverlap):
		a.notice = err.Error()
	case err != nil && !errors.Is(err, session.ErrGameOver):
		a.notice = err.Error()
	}
	if a.sound != nil {
		switch outcome {
		case session.OutcomeHit:
			a.sound.PlayHit()
		case session.OutcomeMiss:
			a.sound.PlayMiss()
		}
	}
	a.refresh()
}

func (a *App) draw() {
	a.screen.Clear()
	cols, rows := a.vp.Cols, a.vp.Rows

	for x := 0; x < cols; x++ {
		a.screen.SetContent(x, 0, ' ', nil, barStyle)
	}
	a.drawText(1, 0, a.snap.Labels()+helpText, barStyle)

	for _, t := range a.snap.Targets {
		a.drawTarget(t)
	}

	if a.notice != "" {
		a.drawText(0, rows-1, a.notice, noticeStyle)
	} else if hint := a.snap.Hint(); hint != "" && !a.snap.GameOver {
		a.drawText(0, rows-1, hint, hintStyle)
	}

	if a.snap.GameOver {
		msg := a.snap.Hint()
		a.drawText(max((cols-len(msg))/2, 0), rows/2, msg, overStyle)
		again := "Press r to play again"
		a.drawText(max((cols-len(again))/2, 0), rows/2+1, again, overStyle)
	}
	a.screen.Show()
}

func (a *App) drawTarget(t targets.Target) {
	c, _ := utility.ParseColorHex(t.Color)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
	cx, cy := t.Center()
	r := float64(targets.Radius) / 2

	minCol, minRow := a.vp.ToCell(cx-targets.Radius/2, cy-targets.Radius/2)
	maxCol, maxRow := a.vp.ToCell(cx+targets.Radius/2, cy+targets.Radius/2)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			px, py, ok := a.vp.ToPanel(col, row)
			if ok && math.Hypot(float64(px-cx), float64(py-cy)) <= r {
				a.screen.SetContent(col, row, targetRune, nil, style)
			}
		}
	}
	col, row := a.vp.ToCell(cx, cy)
	a.screen.SetContent(col, row, targetRune, nil, style)
}

func (a *App) drawText(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= a.vp.Cols {
			return
		}
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
