package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

type decodedMaze struct {
	Width    int                            `yaml:"width"`
	Height   int                            `yaml:"height"`
	Seed     int64                          `yaml:"seed"`
	Metrics  maze.Metrics                   `yaml:"metrics"`
	Exit     maze.Cell                      `yaml:"exit"`
	Solution []string                       `yaml:"solution"`
	Cells    map[string]map[string][]string `yaml:"cells"`
}

func candidate(t *testing.T, seed int64) (*maze.Candidate, maze.Path) {
	t.Helper()
	g, err := maze.Generate(seed, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	entrance, exit := maze.DefaultEndpoints(5, 3)
	m, score, err := maze.Score(g, entrance, exit, maze.DefaultWeights(), maze.DefaultNearRadius(5, 3))
	if err != nil {
		t.Fatal(err)
	}
	path, err := maze.Solve(g, entrance, exit)
	if err != nil {
		t.Fatal(err)
	}
	return &maze.Candidate{Seed: seed, Grid: g, Metrics: m, Score: score}, path
}

func TestEncodeMazeYAML(t *testing.T) {
	c, path := candidate(t, 11)

	var buf bytes.Buffer
	if err := encodeMazeYAML(&buf, newMazeYAML(c, path)); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "# Generated maze: 5x3 grid, seed 11\n") {
		t.Errorf("Missing header comment:\n%s", buf.String())
	}

	var got decodedMaze
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if got.Width != 5 || got.Height != 3 || got.Seed != 11 {
		t.Errorf("Unexpected header fields %+v", got)
	}
	if got.Metrics != c.Metrics {
		t.Errorf("Metrics mismatch: got %+v, want %+v", got.Metrics, c.Metrics)
	}
	if got.Exit != (maze.Cell{Col: 4, Row: 2}) {
		t.Errorf("Unexpected exit %v", got.Exit)
	}
	if len(got.Solution) != len(path) || got.Solution[0] != "cell_0_0" || got.Solution[len(path)-1] != "cell_4_2" {
		t.Errorf("Unexpected solution %v", got.Solution)
	}
	if len(got.Cells) != 15 {
		t.Fatalf("Expected 15 cells, got %d", len(got.Cells))
	}

	// Every open side appears from both cells.
	sides := 0
	for _, cell := range got.Cells {
		sides += len(cell["open"])
	}
	if sides != 2*len(c.Grid.OpenEdges()) {
		t.Errorf("Expected %d open sides, got %d", 2*len(c.Grid.OpenEdges()), sides)
	}
}

func TestCellsAreOrdered(t *testing.T) {
	c, path := candidate(t, 3)
	m := newMazeYAML(c, path)

	var ids []string
	for i := 0; i < len(m.Cells.Content); i += 2 {
		ids = append(ids, m.Cells.Content[i].Value)
	}
	if ids[0] != "cell_0_0" || ids[1] != "cell_1_0" || ids[5] != "cell_0_1" {
		t.Errorf("Cells should be in raster order, got %v", ids)
	}
}

func TestWriteMazeYAML(t *testing.T) {
	c, path := candidate(t, 5)
	file := filepath.Join(t.TempDir(), "maze.yaml")

	if err := writeMazeYAML(newMazeYAML(c, path), file); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := writeMazeYAML(newMazeYAML(c, path), filepath.Join(t.TempDir(), "missing", "maze.yaml")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
