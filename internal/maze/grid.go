// Package maze builds, analyzes and solves perfect mazes on a bounded grid.
package maze

import (
	"fmt"
)

// Direction is one of the four cardinal directions.
// Values are bit flags so a cell's open sides fit in one byte.
type Direction uint8

const (
	North Direction = 1 << iota
	East
	South
	West
)

// AllDirections returns the cardinal directions in clockwise order starting at north.
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// Opposite returns the direction facing the other way.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Delta returns the column and row offset of one step in this direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Cell is a logical position in the grid.
type Cell struct {
	Col int `yaml:"col"`
	Row int `yaml:"row"`
}

// Step returns the cell one step away in the given direction. The result may be out of bounds.
func (c Cell) Step(d Direction) Cell {
	dc, dr := d.Delta()
	return Cell{Col: c.Col + dc, Row: c.Row + dr}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Grid is a width x height array of cells with the open sides of every cell.
// A freshly created grid is fully walled.
type Grid struct {
	width  int
	height int
	open   []Direction

	// Seed the grid was generated from.
	Seed int64
	// CarveOrder is the order cells were first visited while carving.
	CarveOrder []Cell
}

// ValidateDimensions checks that width and height are odd and at least 3.
func ValidateDimensions(width, height int) error {
	if width < 3 || height < 3 {
		return &ConfigurationError{Field: "width/height", Reason: fmt.Sprintf("dimensions %dx%d must be at least 3x3", width, height)}
	}
	if width%2 == 0 || height%2 == 0 {
		return &ConfigurationError{Field: "width/height", Reason: fmt.Sprintf("dimensions %dx%d must be odd", width, height)}
	}
	return nil
}

// NewGrid creates a fully walled grid.
func NewGrid(width, height int) (*Grid, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	return &Grid{
		width:  width,
		height: height,
		open:   make([]Direction, width*height),
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// CellCount returns width*height.
func (g *Grid) CellCount() int { return g.width * g.height }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Col >= 0 && c.Col < g.width && c.Row >= 0 && c.Row < g.height
}

func (g *Grid) index(c Cell) int {
	return c.Row*g.width + c.Col
}

// IsOpen reports whether the side of c facing d has no wall.
func (g *Grid) IsOpen(c Cell, d Direction) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.open[g.index(c)]&d != 0
}

// Open returns the set of open sides of c as a bitmask.
func (g *Grid) Open(c Cell) Direction {
	if !g.InBounds(c) {
		return 0
	}
	return g.open[g.index(c)]
}

// Carve removes the wall between c and its neighbor in direction d.
func (g *Grid) Carve(c Cell, d Direction) error {
	n := c.Step(d)
	if !g.InBounds(c) || !g.InBounds(n) {
		return fmt.Errorf("cannot carve %s from %s: out of bounds", d, c)
	}
	g.open[g.index(c)] |= d
	g.open[g.index(n)] |= d.Opposite()
	return nil
}

// Neighbors returns the cells reachable from c through open sides.
func (g *Grid) Neighbors(c Cell) []Cell {
	var out []Cell
	for _, d := range AllDirections() {
		if g.IsOpen(c, d) {
			out = append(out, c.Step(d))
		}
	}
	return out
}

// Degree returns the number of open sides of c.
func (g *Grid) Degree(c Cell) int {
	n := 0
	for _, d := range AllDirections() {
		if g.IsOpen(c, d) {
			n++
		}
	}
	return n
}

// Cells returns every cell in raster order.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.CellCount())
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			cells = append(cells, Cell{Col: c, Row: r})
		}
	}
	return cells
}

// Edge is an interior boundary between two horizontally or vertically adjacent cells.
// A is always the north or west cell.
type Edge struct {
	A, B Cell
}

// OpenEdges returns every carved edge, each reported once.
func (g *Grid) OpenEdges() []Edge {
	return g.edges(true)
}

// WalledEdges returns every interior edge that still has a wall.
func (g *Grid) WalledEdges() []Edge {
	return g.edges(false)
}

func (g *Grid) edges(open bool) []Edge {
	var out []Edge
	for _, c := range g.Cells() {
		for _, d := range []Direction{East, South} {
			n := c.Step(d)
			if !g.InBounds(n) {
				continue
			}
			if g.IsOpen(c, d) == open {
				out = append(out, Edge{A: c, B: n})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cp := &Grid{
		width:      g.width,
		height:     g.height,
		open:       append([]Direction(nil), g.open...),
		Seed:       g.Seed,
		CarveOrder: append([]Cell(nil), g.CarveOrder...),
	}
	return cp
}

// Equal reports whether two grids have the same dimensions and walls.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.width != o.width || g.height != o.height || len(g.open) != len(o.open) {
		return false
	}
	for i := range g.open {
		if g.open[i] != o.open[i] {
			return false
		}
	}
	return true
}
