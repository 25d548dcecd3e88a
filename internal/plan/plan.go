package plan

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

// Options control how a grid maps to world coordinates.
type Options struct {
	Origin   Position
	CellSize int
	// Overlay adds one solution marker per cell on the solution path.
	Overlay bool
	// Solution is the path to mark. When nil and Overlay is set, the grid is
	// solved between its default endpoints.
	Solution maze.Path
}

// Plan is the ordered, immutable list of actions for one grid.
// Only Action.State changes once the plan is built.
type Plan struct {
	Seed        int64
	Width       int
	Height      int
	Origin      Position
	CellSize    int
	Overlay     bool
	Actions     []Action
	Fingerprint string
}

// Build emits one wall action per walled interior edge and, with Overlay set,
// one marker per solution cell. Actions follow the grid's carve order so
// consecutive placements stay close together.
func Build(g *maze.Grid, opts Options) (*Plan, error) {
	if g == nil {
		return nil, fmt.Errorf("build plan: nil grid")
	}
	if opts.CellSize < 1 {
		return nil, &maze.ConfigurationError{Field: "cell_size", Reason: fmt.Sprintf("must be at least 1, got %d", opts.CellSize)}
	}

	var onPath map[maze.Cell]bool
	if opts.Overlay {
		solution := opts.Solution
		if solution == nil {
			entrance, exit := maze.DefaultEndpoints(g.Width(), g.Height())
			var err error
			solution, err = maze.Solve(g, entrance, exit)
			if err != nil {
				return nil, fmt.Errorf("build plan overlay: %w", err)
			}
		}
		onPath = make(map[maze.Cell]bool, len(solution))
		for _, c := range solution {
			onPath[c] = true
		}
	}

	order := g.CarveOrder
	if len(order) != g.CellCount() {
		order = g.Cells()
	}

	p := &Plan{
		Seed:     g.Seed,
		Width:    g.Width(),
		Height:   g.Height(),
		Origin:   opts.Origin,
		CellSize: opts.CellSize,
		Overlay:  opts.Overlay,
	}

	emitted := make(map[Position]bool)
	add := func(pos Position, role Role) {
		p.Actions = append(p.Actions, Action{ID: len(p.Actions), Pos: pos, Role: role, State: StatePending})
		emitted[pos] = true
	}

	for _, c := range order {
		for _, d := range maze.AllDirections() {
			n := c.Step(d)
			if !g.InBounds(n) || g.IsOpen(c, d) {
				continue
			}
			pos := p.WallPosition(c, n)
			if !emitted[pos] {
				add(pos, RoleWall)
			}
		}
		if onPath[c] {
			add(p.CellPosition(c), RoleSolutionMarker)
		}
	}

	p.Fingerprint = p.fingerprint()
	return p, nil
}

// CellPosition returns the world position of a cell's center. Cells sit at
// odd multiples of the cell size on both horizontal axes.
func (p *Plan) CellPosition(c maze.Cell) Position {
	return Position{
		X: p.Origin.X + p.CellSize*(2*c.Col+1),
		Y: p.Origin.Y,
		Z: p.Origin.Z + p.CellSize*(2*c.Row+1),
	}
}

// WallPosition returns the world position of the edge between two adjacent cells.
func (p *Plan) WallPosition(a, b maze.Cell) Position {
	return Position{
		X: p.Origin.X + p.CellSize*(a.Col+b.Col+1),
		Y: p.Origin.Y,
		Z: p.Origin.Z + p.CellSize*(a.Row+b.Row+1),
	}
}

// Len returns the number of actions.
func (p *Plan) Len() int {
	return len(p.Actions)
}

// Counts returns the number of wall and marker actions.
func (p *Plan) Counts() (walls, markers int) {
	for _, a := range p.Actions {
		switch a.Role {
		case RoleWall:
			walls++
		case RoleSolutionMarker:
			markers++
		}
	}
	return walls, markers
}

// Action returns the action with the given id.
func (p *Plan) Action(id int) (Action, bool) {
	if id < 0 || id >= len(p.Actions) {
		return Action{}, false
	}
	return p.Actions[id], true
}

// Reset marks every action pending.
func (p *Plan) Reset() {
	for i := range p.Actions {
		p.Actions[i].State = StatePending
	}
}

// fingerprint hashes everything that decides action ids: the seed, the
// dimensions, the coordinate mapping and the ordered role/position list.
func (p *Plan) fingerprint() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for oversized keys
		panic(err)
	}
	writeInts(h, p.Seed, int64(p.Width), int64(p.Height), int64(p.CellSize),
		int64(p.Origin.X), int64(p.Origin.Y), int64(p.Origin.Z), boolInt(p.Overlay), int64(len(p.Actions)))
	for _, a := range p.Actions {
		writeInts(h, int64(a.Role), int64(a.Pos.X), int64(a.Pos.Y), int64(a.Pos.Z))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeInts(h hash.Hash, vals ...int64) {
	var buf [8]byte
	for _, v := range vals {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
