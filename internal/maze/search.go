package maze

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Candidate is one scored seed.
type Candidate struct {
	Seed    int64
	Grid    *Grid
	Metrics Metrics
	Score   float64
}

// better reports whether a outranks b. Equal scores go to the lower seed.
func (a *Candidate) better(b *Candidate) bool {
	if b == nil {
		return true
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Seed < b.Seed
}

// SearchOptions configure a seed search.
type SearchOptions struct {
	BaseSeed   int64
	Count      int
	Width      int
	Height     int
	Weights    Weights
	NearRadius int
	// Workers bounds how many seeds are generated at once. Values below 2 run
	// the search one seed at a time.
	Workers int
	// OnCandidate, when set, is called for every scored seed. It may be called
	// from several goroutines when Workers > 1.
	OnCandidate func(seed int64, m Metrics, score float64, err error)
}

// Search generates seeds BaseSeed .. BaseSeed+Count-1 and returns the highest
// scoring one. Only the current best grid is retained. Seeds whose exit is
// unreachable are disqualified rather than failing the search.
func Search(ctx context.Context, opts SearchOptions) (*Candidate, error) {
	if opts.Count < 1 {
		return nil, &ConfigurationError{Field: "seed_search_count", Reason: fmt.Sprintf("must be at least 1, got %d", opts.Count)}
	}
	if err := ValidateDimensions(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}

	entrance, exit := DefaultEndpoints(opts.Width, opts.Height)

	var (
		mu   sync.Mutex
		best *Candidate
	)
	evaluate := func(seed int64) error {
		g, err := Generate(seed, opts.Width, opts.Height)
		if err != nil {
			return err
		}
		m, score, err := Score(g, entrance, exit, opts.Weights, opts.NearRadius)
		if opts.OnCandidate != nil {
			opts.OnCandidate(seed, m, score, err)
		}
		if err != nil {
			// Disqualified, keep searching
			return nil
		}
		c := &Candidate{Seed: seed, Grid: g, Metrics: m, Score: score}
		mu.Lock()
		if c.better(best) {
			best = c
		}
		mu.Unlock()
		return nil
	}

	if opts.Workers < 2 {
		for i := 0; i < opts.Count; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := evaluate(opts.BaseSeed + int64(i)); err != nil {
				return nil, err
			}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for i := 0; i < opts.Count; i++ {
			seed := opts.BaseSeed + int64(i)
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				return evaluate(seed)
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no valid maze among %d seeds starting at %d", opts.Count, opts.BaseSeed)
	}
	return best, nil
}
