package plan

import (
	"errors"
	"testing"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

func mustGrid(t *testing.T, seed int64, w, h int) *maze.Grid {
	t.Helper()
	g, err := maze.Generate(seed, w, h)
	if err != nil {
		t.Fatalf("Generate(%d, %d, %d) failed: %v", seed, w, h, err)
	}
	return g
}

func TestBuildWallCountMatchesGrid(t *testing.T) {
	for _, dims := range [][2]int{{3, 3}, {9, 9}, {11, 7}} {
		for seed := int64(0); seed < 5; seed++ {
			g := mustGrid(t, seed, dims[0], dims[1])
			p, err := Build(g, Options{CellSize: 1})
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			walls, markers := p.Counts()
			if walls != len(g.WalledEdges()) {
				t.Errorf("seed %d %v: %d wall actions, grid has %d walled edges", seed, dims, walls, len(g.WalledEdges()))
			}
			if want := (dims[0] - 1) * (dims[1] - 1); walls != want {
				t.Errorf("seed %d %v: %d wall actions, want %d", seed, dims, walls, want)
			}
			if markers != 0 {
				t.Errorf("seed %d %v: %d markers without overlay", seed, dims, markers)
			}
		}
	}
}

func TestBuildOverlayAddsMarkers(t *testing.T) {
	g := mustGrid(t, 42, 9, 9)
	entrance, exit := maze.DefaultEndpoints(9, 9)
	solution, err := maze.Solve(g, entrance, exit)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	p, err := Build(g, Options{CellSize: 2, Overlay: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	walls, markers := p.Counts()
	if markers != len(solution) {
		t.Errorf("%d markers, solution has %d cells", markers, len(solution))
	}
	if walls != 64 {
		t.Errorf("%d walls, want 64", walls)
	}

	for _, c := range solution {
		found := false
		pos := p.CellPosition(c)
		for _, a := range p.Actions {
			if a.Role == RoleSolutionMarker && a.Pos == pos {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no marker for solution cell %v", c)
		}
	}
}

func TestBuildUniquePositionsAndIDs(t *testing.T) {
	g := mustGrid(t, 11, 15, 13)
	p, err := Build(g, Options{Origin: Position{X: -30, Y: 64, Z: 12}, CellSize: 3, Overlay: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := make(map[Position]int)
	for i, a := range p.Actions {
		if a.ID != i {
			t.Errorf("action at index %d has id %d", i, a.ID)
		}
		if a.State != StatePending {
			t.Errorf("action %d starts %v, want pending", i, a.State)
		}
		if a.Pos.Y != 64 {
			t.Errorf("action %d at height %d, want 64", i, a.Pos.Y)
		}
		if prev, dup := seen[a.Pos]; dup {
			t.Errorf("actions %d and %d share position %v", prev, i, a.Pos)
		}
		seen[a.Pos] = i
	}
}

func TestBuildCoordinateParity(t *testing.T) {
	g := mustGrid(t, 5, 7, 7)
	p, err := Build(g, Options{CellSize: 1, Overlay: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, a := range p.Actions {
		oddX, oddZ := a.Pos.X%2 == 1, a.Pos.Z%2 == 1
		switch a.Role {
		case RoleWall:
			if oddX == oddZ {
				t.Errorf("wall %v should have exactly one odd horizontal offset", a)
			}
		case RoleSolutionMarker:
			if !oddX || !oddZ {
				t.Errorf("marker %v should sit on odd offsets", a)
			}
		}
	}
}

func TestBuildFollowsCarveOrder(t *testing.T) {
	g := mustGrid(t, 3, 9, 9)
	p, err := Build(g, Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// The first action belongs to the earliest carved cell that still has a wall
	var first maze.Cell
	for _, c := range g.CarveOrder {
		if countInBoundsWalls(g, c) > 0 {
			first = c
			break
		}
	}
	if d := Distance(p.Actions[0].Pos, p.CellPosition(first)); d != 1 {
		t.Errorf("first action %v is %d away from cell %v, want 1", p.Actions[0], d, first)
	}
}

func countInBoundsWalls(g *maze.Grid, c maze.Cell) int {
	n := 0
	for _, d := range maze.AllDirections() {
		if g.InBounds(c.Step(d)) && !g.IsOpen(c, d) {
			n++
		}
	}
	return n
}

func TestBuildWithoutCarveOrderUsesRasterOrder(t *testing.T) {
	g, err := maze.NewGrid(3, 3)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	p, err := Build(g, Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if walls, _ := p.Counts(); walls != 12 {
		t.Fatalf("fully walled 3x3 produced %d walls, want 12", walls)
	}
	// (0,0) east then south come first
	if p.Actions[0].Pos != (Position{X: 2, Z: 1}) || p.Actions[1].Pos != (Position{X: 1, Z: 2}) {
		t.Errorf("unexpected leading actions %v %v", p.Actions[0], p.Actions[1])
	}
}

func TestBuildRejectsBadCellSize(t *testing.T) {
	g := mustGrid(t, 1, 3, 3)
	_, err := Build(g, Options{CellSize: 0})
	var cfgErr *maze.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Build with cell size 0 error = %v, want ConfigurationError", err)
	}
}

func TestFingerprint(t *testing.T) {
	g := mustGrid(t, 42, 9, 9)
	base, err := Build(g, Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	again, err := Build(mustGrid(t, 42, 9, 9), Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if base.Fingerprint != again.Fingerprint {
		t.Errorf("fingerprint not stable: %s vs %s", base.Fingerprint, again.Fingerprint)
	}
	if len(base.Fingerprint) != 64 {
		t.Errorf("fingerprint %q is not a 32-byte hex digest", base.Fingerprint)
	}

	variants := map[string]Options{
		"origin":    {CellSize: 1, Origin: Position{X: 1}},
		"cell size": {CellSize: 2},
		"overlay":   {CellSize: 1, Overlay: true},
	}
	for name, opts := range variants {
		p, err := Build(g, opts)
		if err != nil {
			t.Fatalf("Build(%s) failed: %v", name, err)
		}
		if p.Fingerprint == base.Fingerprint {
			t.Errorf("changing %s did not change the fingerprint", name)
		}
	}

	other, err := Build(mustGrid(t, 43, 9, 9), Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if other.Fingerprint == base.Fingerprint {
		t.Error("different seeds share a fingerprint")
	}
}

// Fingerprints recorded for the 9x9 seed 42 maze. Checkpoints saved by
// earlier builds only resume while these hold.
func TestFingerprintGolden(t *testing.T) {
	g := mustGrid(t, 42, 9, 9)
	tests := []struct {
		name string
		opts Options
		len  int
		want string
	}{
		{"walls", Options{CellSize: 1}, 64, "68fad815e04c26380f68266a530b01c652814da4366abc7014e8d9e4e54dbdf6"},
		{"overlay", Options{CellSize: 1, Overlay: true}, 97, "3c155fbdba04b92c922edc876103e325e78a0dc9b27f1297d81eb3f87d84865a"},
		{"offset", Options{CellSize: 2, Origin: Position{X: 10, Y: 64, Z: -5}}, 64, "a839fa847f29d3c65564c6731837991c7c2279187f71c060d0843e15eadb49ad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(g, tt.opts)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if p.Len() != tt.len {
				t.Errorf("Len() = %d, want %d", p.Len(), tt.len)
			}
			if p.Fingerprint != tt.want {
				t.Errorf("Fingerprint = %s, want %s", p.Fingerprint, tt.want)
			}
		})
	}

	p, err := Build(g, Options{CellSize: 1})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	wantFirst := []Position{{X: 2, Z: 1}, {X: 2, Z: 3}, {X: 1, Z: 6}, {X: 4, Z: 5}}
	for i, want := range wantFirst {
		if p.Actions[i].Pos != want || p.Actions[i].Role != RoleWall {
			t.Errorf("action %d = %v, want wall at %v", i, p.Actions[i], want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range []Role{RoleWall, RoleSolutionMarker} {
		got, err := ParseRole(r.String())
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseRole("lava"); err == nil {
		t.Error("ParseRole(lava) returned no error")
	}
}
