package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

// MazeYAML is the serialized form of a scored maze.
type MazeYAML struct {
	Width    int          `yaml:"width"`
	Height   int          `yaml:"height"`
	Seed     int64        `yaml:"seed"`
	Score    float64      `yaml:"score"`
	Metrics  maze.Metrics `yaml:"metrics"`
	Entrance maze.Cell    `yaml:"entrance"`
	Exit     maze.Cell    `yaml:"exit"`
	Solution []string     `yaml:"solution,flow"`
	Cells    yaml.Node    `yaml:"cells"`
}

func newMazeYAML(c *maze.Candidate, solution maze.Path) *MazeYAML {
	g := c.Grid
	entrance, exit := maze.DefaultEndpoints(g.Width(), g.Height())
	out := &MazeYAML{
		Width:    g.Width(),
		Height:   g.Height(),
		Seed:     c.Seed,
		Score:    c.Score,
		Metrics:  c.Metrics,
		Entrance: entrance,
		Exit:     exit,
		Solution: make([]string, 0, len(solution)),
		Cells:    cellsNode(g),
	}
	for _, cell := range solution {
		out.Solution = append(out.Solution, getCellID(cell))
	}
	return out
}

// getCellID generates a cell ID from coordinates
func getCellID(c maze.Cell) string {
	return fmt.Sprintf("cell_%d_%d", c.Col, c.Row)
}

// cellsNode returns the cells in raster order as an ordered YAML mapping
// from cell id to its open sides.
func cellsNode(g *maze.Grid) yaml.Node {
	node := yaml.Node{Kind: yaml.MappingNode}
	for _, c := range g.Cells() {
		var open []string
		for _, d := range maze.AllDirections() {
			if g.IsOpen(c, d) {
				open = append(open, d.String())
			}
		}
		value := yaml.Node{Kind: yaml.MappingNode}
		addSequenceField(&value, "open", open)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: getCellID(c)},
			&value,
		)
	}
	return node
}

func addSequenceField(node *yaml.Node, key string, values []string) {
	seqNode := yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		seqNode.Content = append(seqNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&seqNode,
	)
}

// encodeMazeYAML writes a header comment and the maze document to w.
func encodeMazeYAML(w io.Writer, m *MazeYAML) error {
	fmt.Fprintf(w, "# Generated maze: %dx%d grid, seed %d\n", m.Width, m.Height, m.Seed)
	fmt.Fprintf(w, "# Solution length: %d cells\n\n", m.Metrics.SolutionLength)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

func writeMazeYAML(m *MazeYAML, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return encodeMazeYAML(f, m)
}
