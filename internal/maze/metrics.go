package maze

// Metrics are the comparable features of one maze.
type Metrics struct {
	// SolutionLength is the number of cells on the entrance-to-exit path.
	SolutionLength int `yaml:"solution_length"`
	// DeadEndCount counts cells with one open side, entrance and exit excluded.
	DeadEndCount int `yaml:"dead_end_count"`
	// BranchCount counts cells with three or more open sides.
	BranchCount int `yaml:"branch_count"`
	// LongestFalsePath is the longest walk, in steps, from a branch point into
	// a part of the maze that does not lead to the exit.
	LongestFalsePath int `yaml:"longest_false_path"`
	// DeadEndsNearEntrance counts dead ends within the near radius of the entrance.
	DeadEndsNearEntrance int `yaml:"dead_ends_near_entrance"`
}

// DefaultNearRadius is the BFS distance from the entrance under which dead
// ends count as "near".
func DefaultNearRadius(width, height int) int {
	return (width + height) / 2
}

// Analyze computes the metrics of g for the given endpoints.
// nearRadius <= 0 selects DefaultNearRadius.
func Analyze(g *Grid, entrance, exit Cell, nearRadius int) (Metrics, error) {
	path, err := Solve(g, entrance, exit)
	if err != nil {
		return Metrics{}, err
	}
	if nearRadius <= 0 {
		nearRadius = DefaultNearRadius(g.width, g.height)
	}

	dist, _, _ := bfs(g, entrance)

	m := Metrics{SolutionLength: len(path)}
	for _, c := range g.Cells() {
		deg := g.Degree(c)
		if deg >= 3 {
			m.BranchCount++
		}
		if deg == 1 && c != entrance && c != exit {
			m.DeadEndCount++
			if d := dist[g.index(c)]; d >= 0 && d <= nearRadius {
				m.DeadEndsNearEntrance++
			}
		}
	}
	m.LongestFalsePath = longestFalsePath(g, path)
	return m, nil
}

// longestFalsePath roots the maze at the solution path and measures how deep
// each side branch goes. The result is the deepest walk starting from a
// branch point: a cell with three or more open sides, or a solution cell with
// an opening that leaves the solution.
func longestFalsePath(g *Grid, path Path) int {
	n := g.CellCount()
	onPath := make([]bool, n)
	parent := make([]int, n)
	seen := make([]bool, n)
	for i := range parent {
		parent[i] = -1
	}

	queue := make([]Cell, 0, n)
	for _, c := range path {
		onPath[g.index(c)] = true
		seen[g.index(c)] = true
		queue = append(queue, c)
	}

	// Multi-source BFS from the solution; parents point back toward it.
	order := make([]Cell, 0, n)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range g.Neighbors(cur) {
			ni := g.index(next)
			if seen[ni] {
				continue
			}
			seen[ni] = true
			parent[ni] = g.index(cur)
			queue = append(queue, next)
		}
	}

	// Depth of each subtree hanging away from the solution, leaves first.
	depth := make([]int, n)
	for i := len(order) - 1; i >= 0; i-- {
		ci := g.index(order[i])
		if p := parent[ci]; p >= 0 && depth[ci]+1 > depth[p] {
			depth[p] = depth[ci] + 1
		}
	}

	longest := 0
	for _, c := range order {
		ci := g.index(c)
		branchPoint := g.Degree(c) >= 3
		if onPath[ci] && depth[ci] > 0 {
			branchPoint = true
		}
		if branchPoint && depth[ci] > longest {
			longest = depth[ci]
		}
	}
	return longest
}
