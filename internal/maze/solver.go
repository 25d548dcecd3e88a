package maze

// Path is an ordered list of cells from entrance to exit.
type Path []Cell

// DefaultEndpoints returns the top-left entrance and bottom-right exit of a grid.
func DefaultEndpoints(width, height int) (Cell, Cell) {
	return Cell{Col: 0, Row: 0}, Cell{Col: width - 1, Row: height - 1}
}

// Contains reports whether c is on the path.
func (p Path) Contains(c Cell) bool {
	for _, pc := range p {
		if pc == c {
			return true
		}
	}
	return false
}

// bfs walks the open-edge graph from start and returns the distance to every
// cell (-1 when unreachable), each cell's predecessor and the visit order.
func bfs(g *Grid, start Cell) (dist []int, pred []int, order []Cell) {
	n := g.CellCount()
	dist = make([]int, n)
	pred = make([]int, n)
	for i := range dist {
		dist[i] = -1
		pred[i] = -1
	}
	if !g.InBounds(start) {
		return dist, pred, nil
	}

	order = make([]Cell, 0, n)
	dist[g.index(start)] = 0
	queue := []Cell{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range g.Neighbors(cur) {
			ni := g.index(next)
			if dist[ni] >= 0 {
				continue
			}
			dist[ni] = dist[g.index(cur)] + 1
			pred[ni] = g.index(cur)
			queue = append(queue, next)
		}
	}
	return dist, pred, order
}

func (g *Grid) cellAt(index int) Cell {
	return Cell{Col: index % g.width, Row: index / g.width}
}

// Solve returns the shortest path from entrance to exit.
// It fails with *UnreachableExitError when the two cells are not connected,
// including when either endpoint lies outside the grid.
func Solve(g *Grid, entrance, exit Cell) (Path, error) {
	if !g.InBounds(entrance) || !g.InBounds(exit) {
		return nil, &UnreachableExitError{Entrance: entrance, Exit: exit}
	}

	dist, pred, _ := bfs(g, entrance)
	if dist[g.index(exit)] < 0 {
		return nil, &UnreachableExitError{Entrance: entrance, Exit: exit}
	}

	path := make(Path, 0, dist[g.index(exit)]+1)
	for i := g.index(exit); i >= 0; i = pred[i] {
		path = append(path, g.cellAt(i))
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path, nil
}
