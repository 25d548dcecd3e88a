package maze

import (
	"math/rand"
	"time"
)

// ResolveSeed returns *seed when set, otherwise a fresh seed drawn from the clock.
// The second return value reports whether the seed was drawn.
func ResolveSeed(seed *int64) (int64, bool) {
	if seed != nil {
		return *seed, false
	}
	return time.Now().UnixNano(), true
}

// Generate carves a perfect maze with a randomized depth-first backtracker.
// The same seed and dimensions always produce the same grid.
func Generate(seed int64, width, height int) (*Grid, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	g.Seed = seed
	g.CarveOrder = make([]Cell, 0, g.CellCount())

	rng := rand.New(rand.NewSource(seed))
	visited := make([]bool, g.CellCount())

	start := Cell{Col: 0, Row: 0}
	visited[g.index(start)] = true
	g.CarveOrder = append(g.CarveOrder, start)
	stack := []Cell{start}

	candidates := make([]Direction, 0, 4)
	for len(stack) > 0 {
		current := stack[len(stack)-1]

		candidates = candidates[:0]
		for _, d := range AllDirections() {
			n := current.Step(d)
			if g.InBounds(n) && !visited[g.index(n)] {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			// Dead end, backtrack
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.Intn(len(candidates))]
		next := current.Step(d)
		// Both cells are in bounds, Carve cannot fail here
		_ = g.Carve(current, d)
		visited[g.index(next)] = true
		g.CarveOrder = append(g.CarveOrder, next)
		stack = append(stack, next)
	}

	return g, nil
}
