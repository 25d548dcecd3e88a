// Package preview draws grids for operators: a text rendering for logs and
// terminals, and a PNG for sharing.
package preview

import (
	"strings"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

const (
	wallRune = '#'
	openRune = ' '
	pathRune = '.'
)

// Render draws g as (2w+1) x (2h+1) characters, the same lattice the
// placement plan uses: cells at odd coordinates, walls between them, corners
// always solid. Cells and passages on solution are drawn with dots.
func Render(g *maze.Grid, solution maze.Path) string {
	w, h := 2*g.Width()+1, 2*g.Height()+1
	canvas := make([][]rune, h)
	for y := range canvas {
		canvas[y] = []rune(strings.Repeat(string(wallRune), w))
	}

	onPath := make(map[maze.Cell]bool, len(solution))
	for _, c := range solution {
		onPath[c] = true
	}

	for _, c := range g.Cells() {
		x, y := 2*c.Col+1, 2*c.Row+1
		canvas[y][x] = openRune
		if onPath[c] {
			canvas[y][x] = pathRune
		}
		// East and South cover every interior edge once.
		for _, d := range []maze.Direction{maze.East, maze.South} {
			if !g.IsOpen(c, d) {
				continue
			}
			dx, dy := d.Delta()
			r := openRune
			if onPath[c] && onPath[c.Step(d)] {
				r = pathRune
			}
			canvas[y+dy][x+dx] = r
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
