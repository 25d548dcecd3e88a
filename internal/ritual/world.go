package ritual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/mazeritual/internal/plan"
)

// ErrMaterialDepleted is returned by Placer.PlaceAt when the actor holds no
// placement material.
var ErrMaterialDepleted = errors.New("placement material depleted")

// PlacementFailure is a transient failure of a single placement. The executor
// retries it with backoff and records the action as failed once retries run out.
type PlacementFailure struct {
	Pos    plan.Position
	Reason string
}

func (e *PlacementFailure) Error() string {
	return fmt.Sprintf("placement at %s failed: %s", e.Pos, e.Reason)
}

// MaterialDepletedError ends a run whose replenishment wait timed out.
type MaterialDepletedError struct {
	ActionID int
	Waited   time.Duration
}

func (e *MaterialDepletedError) Error() string {
	return fmt.Sprintf("no material arrived for action %d after %s", e.ActionID, e.Waited)
}

func (e *MaterialDepletedError) Unwrap() error {
	return ErrMaterialDepleted
}

// Placer performs one physical placement. A retry after an ambiguous failure
// must be safe: implementations never report success they did not observe.
type Placer interface {
	PlaceAt(ctx context.Context, pos plan.Position, role plan.Role) error
}

// MaterialCounter reports how much placement material the actor holds.
type MaterialCounter interface {
	CountAvailableMaterial(ctx context.Context) (int, error)
}

// MaterialSource asks a secondary inventory to transfer more material. It may
// fail when the source is out of reach or empty.
type MaterialSource interface {
	RequestReplenishment(ctx context.Context, batch int) error
}

// Locator reports the actor's current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (plan.Position, error)
}

// World is everything the executor needs from the outside.
type World interface {
	Placer
	MaterialCounter
	MaterialSource
	Locator
}
