// Package simworld is an in-memory world for dry runs and tests. It keeps a
// finite material count, a secondary material source and scripted failures.
package simworld

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/lawnchairsociety/mazeritual/internal/plan"
	"github.com/lawnchairsociety/mazeritual/internal/ritual"
)

// Unlimited marks a secondary source that never runs dry.
const Unlimited = -1

var (
	ErrSourceUnreachable = errors.New("material source out of range")
	ErrSourceEmpty       = errors.New("material source is empty")
)

// Options describe the starting state of a world.
type Options struct {
	// Material is what the actor holds at the start.
	Material int
	// Reserve is what the secondary source holds. Use Unlimited for no limit.
	Reserve int
	Start   plan.Position
}

// World implements ritual.World. It is safe for concurrent use.
type World struct {
	mu sync.Mutex

	material   int
	reserve    int
	pos        plan.Position
	placed     map[plan.Position]plan.Role
	order      []plan.Position
	failures   map[plan.Position]int
	refusals   int
	requests   int
	delivered  int
	duplicates int
	attempts   int

	onPlace func(placed int)
}

// New creates a world.
func New(opts Options) *World {
	return &World{
		material: opts.Material,
		reserve:  opts.Reserve,
		pos:      opts.Start,
		placed:   make(map[plan.Position]plan.Role),
		failures: make(map[plan.Position]int),
	}
}

// FailAt makes the next times placements at pos fail transiently. A negative
// count fails every placement there.
func (w *World) FailAt(pos plan.Position, times int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[pos] = times
}

// RefuseRequests makes the next n replenishment requests fail as unreachable.
func (w *World) RefuseRequests(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refusals = n
}

// SetReserve changes what the secondary source holds.
func (w *World) SetReserve(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reserve = n
}

// OnPlace registers fn to run after every successful placement with the
// running total of placed blocks. It is called without the world's lock held.
func (w *World) OnPlace(fn func(placed int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onPlace = fn
}

// PlaceAt places one block. Placing on an occupied position succeeds without
// consuming material.
func (w *World) PlaceAt(ctx context.Context, pos plan.Position, role plan.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	w.attempts++
	if w.material <= 0 {
		w.mu.Unlock()
		return ritual.ErrMaterialDepleted
	}
	if n, ok := w.failures[pos]; ok && n != 0 {
		if n > 0 {
			w.failures[pos] = n - 1
		}
		w.mu.Unlock()
		return &ritual.PlacementFailure{Pos: pos, Reason: "no path to target"}
	}
	w.pos = pos
	if _, ok := w.placed[pos]; ok {
		w.duplicates++
		w.mu.Unlock()
		return nil
	}
	w.material--
	w.placed[pos] = role
	w.order = append(w.order, pos)
	count := len(w.order)
	hook := w.onPlace
	w.mu.Unlock()

	if hook != nil {
		hook(count)
	}
	return nil
}

func (w *World) CountAvailableMaterial(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.material, nil
}

// RequestReplenishment moves up to batch units from the reserve to the actor.
func (w *World) RequestReplenishment(ctx context.Context, batch int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch < 1 {
		return fmt.Errorf("replenish batch must be positive, got %d", batch)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests++
	if w.refusals > 0 {
		w.refusals--
		return ErrSourceUnreachable
	}
	if w.reserve == 0 {
		return ErrSourceEmpty
	}
	n := batch
	if w.reserve != Unlimited {
		n = min(batch, w.reserve)
		w.reserve -= n
	}
	w.material += n
	w.delivered += n
	return nil
}

func (w *World) CurrentPosition(ctx context.Context) (plan.Position, error) {
	if err := ctx.Err(); err != nil {
		return plan.Position{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos, nil
}

// Stats is a snapshot of world counters.
type Stats struct {
	Placed     int
	Attempts   int
	Duplicates int
	Requests   int
	Delivered  int
	Material   int
	Reserve    int
}

func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Placed:     len(w.order),
		Attempts:   w.attempts,
		Duplicates: w.duplicates,
		Requests:   w.requests,
		Delivered:  w.delivered,
		Material:   w.material,
		Reserve:    w.reserve,
	}
}

// Placed returns every occupied position and its role.
func (w *World) Placed() map[plan.Position]plan.Role {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.placed)
}

// Order returns occupied positions in placement order.
func (w *World) Order() []plan.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]plan.Position, len(w.order))
	copy(out, w.order)
	return out
}

var _ ritual.World = (*World)(nil)
