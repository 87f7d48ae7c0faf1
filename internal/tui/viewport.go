package tui

import "bubblerush/internal/targets"

// Viewport maps terminal cells onto the play panel. Row 0 is the control bar
// and the last row is the status line; the rows between show the arena below
// Bounds.Top.
type Viewport struct {
	Cols, Rows int
	Bounds     targets.Bounds
}

func (v Viewport) arenaRows() int {
	return max(v.Rows-2, 1)
}

func (v Viewport) scale() (float64, float64) {
	sx := float64(v.Bounds.Width) / float64(max(v.Cols, 1))
	sy := float64(v.Bounds.Height-v.Bounds.Top) / float64(v.arenaRows())
	return sx, sy
}

// ToPanel returns the panel point at the center of a cell. ok is false for
// cells outside the arena.
func (v Viewport) ToPanel(col, row int) (x, y int, ok bool) {
	if col < 0 || col >= v.Cols || row < 1 || row > v.arenaRows() {
		return 0, 0, false
	}
	sx, sy := v.scale()
	x = int((float64(col) + 0.5) * sx)
	y = v.Bounds.Top + int((float64(row-1)+0.5)*sy)
	return x, y, true
}

// ToCell returns the arena cell containing a panel point, clamped to the
// arena.
func (v Viewport) ToCell(x, y int) (col, row int) {
	sx, sy := v.scale()
	col = int(float64(x) / sx)
	row = 1 + int(float64(y-v.Bounds.Top)/sy)
	col = min(max(col, 0), v.Cols-1)
	row = min(max(row, 1), v.arenaRows())
	return col, row
}
