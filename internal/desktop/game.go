package desktop

import (
	"bubblerush/internal/session"
	"bubblerush/internal/targets"
	"bubblerush/internal/utility"
	"errors"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	backgroundColor = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	controlBarColor = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	textColor       = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	overlayColor    = color.RGBA{R: 0, G: 0, B: 0, A: 160}
	errorColor      = color.RGBA{R: 180, G: 0, B: 32, A: 255}
)

var difficultyKeys = map[ebiten.Key]int{
	ebiten.Key4: 4,
	ebiten.Key5: 5,
	ebiten.Key6: 6,
}

// Game is an ebiten.Game that plays one session in a window. The controller
// is driven from Update, so no locking is needed.
type Game struct {
	ctrl   *session.Controller
	pacer  session.Pacer
	bounds targets.Bounds

	notice string
}

func NewGame(cfg session.Config, rng targets.Rand) (*Game, error) {
	ctrl, err := session.NewController(cfg, rng)
	if err != nil {
		return nil, err
	}
	return &Game{
		ctrl:   ctrl,
		bounds: cfg.Bounds,
	}, nil
}

// Run opens the window and blocks until it is closed.
func Run(cfg session.Config, rng targets.Rand) error {
	g, err := NewGame(cfg, rng)
	if err != nil {
		return err
	}
	ebiten.SetWindowSize(cfg.Bounds.Width, cfg.Bounds.Height)
	ebiten.SetWindowTitle("Bubble Rush")
	return ebiten.RunGame(g)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.bounds.Width, g.bounds.Height
}

func (g *Game) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if y >= g.bounds.Top {
			g.click(x, y)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.ctrl.Reset()
		g.notice = ""
	}
	for key, d := range difficultyKeys {
		if inpututil.IsKeyJustPressed(key) {
			if err := g.ctrl.SetDifficulty(d); err != nil {
				g.notice = err.Error()
			} else {
				g.notice = ""
			}
		}
	}

	g.pacer.Drive(g.ctrl, time.Second/time.Duration(ebiten.TPS()))

	for _, tr := range g.ctrl.DrainTransitions() {
		log.Printf("[Desktop] %s -> %s (round %d, score %d)\n", tr.From, tr.To, tr.Round, tr.Score)
	}
	return nil
}

func (g *Game) click(x, y int) {
	_, err := g.ctrl.Click(x, y)
	switch {
	case errors.Is(err, session.ErrPositionOverlap):
		g.notice = err.Error()
	case err == nil:
		g.notice = ""
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.ctrl.Snapshot()

	screen.Fill(backgroundColor)
	vector.DrawFilledRect(screen, 0, 0, float32(g.bounds.Width), float32(g.bounds.Top), controlBarColor, false)
	text.Draw(screen, snap.Labels(), basicfont.Face7x13, 10, g.bounds.Top/2+5, textColor)
	text.Draw(screen, "R reset  4/5/6 difficulty", basicfont.Face7x13, g.bounds.Width-190, g.bounds.Top/2+5, textColor)

	r := float32(targets.Radius) / 2
	for _, t := range snap.Targets {
		cx, cy := t.Center()
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), r, targetColor(t.Color), true)
	}

	if hint := snap.Hint(); hint != "" && !snap.GameOver {
		text.Draw(screen, hint, basicfont.Face7x13, 10, g.bounds.Height-10, textColor)
	}
	if g.notice != "" {
		text.Draw(screen, g.notice, basicfont.Face7x13, 10, g.bounds.Height-26, errorColor)
	}

	if snap.GameOver {
		w, h := float32(g.bounds.Width), float32(g.bounds.Height)
		vector.DrawFilledRect(screen, 0, float32(g.bounds.Top), w, h-float32(g.bounds.Top), overlayColor, false)
		msg := snap.Hint()
		x := (g.bounds.Width - len(msg)*7) / 2
		text.Draw(screen, msg, basicfont.Face7x13, x, g.bounds.Height/2, color.White)
		text.Draw(screen, "Press R to play again", basicfont.Face7x13, x, g.bounds.Height/2+20, color.White)
	}
}

// targetColor falls back to gray for colors that do not parse.
func targetColor(hex string) color.RGBA {
	c, _ := utility.ParseColorHex(hex)
	return c
}
