// mazegen searches seeds for the best scoring maze and writes it as YAML,
// optionally with a PNG preview. It places nothing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
	"github.com/lawnchairsociety/mazeritual/internal/preview"
)

func main() {
	width := flag.Int("width", 21, "Maze width in cells (odd)")
	height := flag.Int("height", 21, "Maze height in cells (odd)")
	seed := flag.Int64("seed", 42, "First seed of the search")
	search := flag.Int("search", 32, "Number of consecutive seeds to score")
	workers := flag.Int("workers", 4, "Seeds generated in parallel")
	outFile := flag.String("out", "data/maze.yaml", "Output YAML file")
	pngFile := flag.String("png", "", "Optional PNG preview file")
	flag.Parse()

	if dir := filepath.Dir(*outFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Searching %d seeds from %d for a %dx%d maze\n", *search, *seed, *width, *height)

	fmt.Print("Scoring seeds... ")
	best, err := maze.Search(context.Background(), maze.SearchOptions{
		BaseSeed:   *seed,
		Count:      *search,
		Width:      *width,
		Height:     *height,
		Weights:    maze.DefaultWeights(),
		NearRadius: maze.DefaultNearRadius(*width, *height),
		Workers:    *workers,
	})
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (seed %d, score %.2f)\n", best.Seed, best.Score)

	entrance, exit := maze.DefaultEndpoints(*width, *height)
	solution, err := maze.Solve(best.Grid, entrance, exit)
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Writing %s... ", *outFile)
	if err := writeMazeYAML(newMazeYAML(best, solution), *outFile); err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	if *pngFile != "" {
		fmt.Printf("Writing %s... ", *pngFile)
		title := fmt.Sprintf("seed %d", best.Seed)
		if err := preview.SavePNG(*pngFile, best.Grid, solution, title); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("OK")
	}

	m := best.Metrics
	fmt.Printf("\nMaze generated successfully!\n")
	fmt.Printf("  - Solution length: %d\n", m.SolutionLength)
	fmt.Printf("  - Dead ends: %d (%d near the entrance)\n", m.DeadEndCount, m.DeadEndsNearEntrance)
	fmt.Printf("  - Branch points: %d\n", m.BranchCount)
	fmt.Printf("  - Longest false path: %d\n", m.LongestFalsePath)
	fmt.Printf("  - Walls to place: %d\n", len(best.Grid.WalledEdges()))
}
