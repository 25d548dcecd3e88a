package maze

import (
	"fmt"
	"math"
)

// Weights combine Metrics into one ranking score:
//
//	score = Solution*solution_length + Branch*branch_count
//	      + FalsePath*longest_false_path - NearDeadEnd*dead_ends_near_entrance
type Weights struct {
	Solution    float64 `yaml:"solution"`
	Branch      float64 `yaml:"branch"`
	FalsePath   float64 `yaml:"false_path"`
	NearDeadEnd float64 `yaml:"near_dead_end"`
}

// DefaultWeights favor long winding solutions and deep false paths.
func DefaultWeights() Weights {
	return Weights{Solution: 1, Branch: 2, FalsePath: 3, NearDeadEnd: 1}
}

// Validate rejects non-finite weights and a negative solution weight.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"solution":      w.Solution,
		"branch":        w.Branch,
		"false_path":    w.FalsePath,
		"near_dead_end": w.NearDeadEnd,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Field: "scoring_weights." + name, Reason: fmt.Sprintf("weight %v is not finite", v)}
		}
	}
	if w.Solution < 0 {
		return &ConfigurationError{Field: "scoring_weights.solution", Reason: "must not be negative"}
	}
	return nil
}

// Apply returns the weighted score of m.
func (w Weights) Apply(m Metrics) float64 {
	return w.Solution*float64(m.SolutionLength) +
		w.Branch*float64(m.BranchCount) +
		w.FalsePath*float64(m.LongestFalsePath) -
		w.NearDeadEnd*float64(m.DeadEndsNearEntrance)
}

// Score analyzes g and returns its metrics and weighted score.
// A grid whose exit is unreachable scores negative infinity along with the error.
func Score(g *Grid, entrance, exit Cell, w Weights, nearRadius int) (Metrics, float64, error) {
	m, err := Analyze(g, entrance, exit, nearRadius)
	if err != nil {
		return Metrics{}, math.Inf(-1), err
	}
	return m, w.Apply(m), nil
}
