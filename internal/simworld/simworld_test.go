package simworld

import (
	"context"
	"errors"
	"testing"

	"github.com/lawnchairsociety/mazeritual/internal/plan"
	"github.com/lawnchairsociety/mazeritual/internal/ritual"
)

func TestPlaceConsumesMaterial(t *testing.T) {
	ctx := context.Background()
	w := New(Options{Material: 2})

	for i, pos := range []plan.Position{{X: 1}, {X: 2}} {
		if err := w.PlaceAt(ctx, pos, plan.RoleWall); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}
	err := w.PlaceAt(ctx, plan.Position{X: 3}, plan.RoleWall)
	if !errors.Is(err, ritual.ErrMaterialDepleted) {
		t.Errorf("Expected ErrMaterialDepleted, got %v", err)
	}

	n, err := w.CountAvailableMaterial(ctx)
	if err != nil || n != 0 {
		t.Errorf("Expected 0 material, got %d (%v)", n, err)
	}
	if got := w.Stats().Placed; got != 2 {
		t.Errorf("Expected 2 placed, got %d", got)
	}
}

func TestPlaceTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := New(Options{Material: 5})
	pos := plan.Position{X: 4, Z: 2}

	for i := 0; i < 2; i++ {
		if err := w.PlaceAt(ctx, pos, plan.RoleWall); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}

	stats := w.Stats()
	if stats.Placed != 1 || stats.Duplicates != 1 || stats.Material != 4 {
		t.Errorf("Unexpected stats after double placement: %+v", stats)
	}
}

func TestFailAt(t *testing.T) {
	ctx := context.Background()
	w := New(Options{Material: 5})
	pos := plan.Position{X: 1, Z: 1}
	w.FailAt(pos, 2)

	for i := 0; i < 2; i++ {
		err := w.PlaceAt(ctx, pos, plan.RoleWall)
		var failure *ritual.PlacementFailure
		if !errors.As(err, &failure) {
			t.Fatalf("attempt %d: expected PlacementFailure, got %v", i, err)
		}
		if failure.Pos != pos {
			t.Errorf("Expected failure at %s, got %s", pos, failure.Pos)
		}
	}
	if err := w.PlaceAt(ctx, pos, plan.RoleWall); err != nil {
		t.Errorf("Third attempt should succeed, got %v", err)
	}

	always := plan.Position{X: 9}
	w.FailAt(always, -1)
	for i := 0; i < 5; i++ {
		if err := w.PlaceAt(ctx, always, plan.RoleWall); err == nil {
			t.Fatalf("attempt %d: expected permanent failure", i)
		}
	}
}

func TestReplenishment(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		reserve   int
		refusals  int
		batch     int
		wantErr   error
		wantGain  int
		wantAfter int
	}{
		{"unlimited", Unlimited, 0, 8, nil, 8, Unlimited},
		{"partial", 3, 0, 8, nil, 3, 0},
		{"full batch", 20, 0, 8, nil, 8, 12},
		{"empty", 0, 0, 8, ErrSourceEmpty, 0, 0},
		{"unreachable", Unlimited, 1, 8, ErrSourceUnreachable, 0, Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(Options{Reserve: tt.reserve})
			w.RefuseRequests(tt.refusals)

			err := w.RequestReplenishment(ctx, tt.batch)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			stats := w.Stats()
			if stats.Material != tt.wantGain {
				t.Errorf("Expected material %d, got %d", tt.wantGain, stats.Material)
			}
			if stats.Reserve != tt.wantAfter {
				t.Errorf("Expected reserve %d, got %d", tt.wantAfter, stats.Reserve)
			}
			if stats.Requests != 1 {
				t.Errorf("Expected 1 request, got %d", stats.Requests)
			}
		})
	}
}

func TestRefusalsRunOut(t *testing.T) {
	ctx := context.Background()
	w := New(Options{Reserve: Unlimited})
	w.RefuseRequests(1)

	if err := w.RequestReplenishment(ctx, 4); err == nil {
		t.Fatal("First request should be refused")
	}
	if err := w.RequestReplenishment(ctx, 4); err != nil {
		t.Fatalf("Second request should succeed, got %v", err)
	}
	if got := w.Stats().Material; got != 4 {
		t.Errorf("Expected 4 material, got %d", got)
	}
}

func TestOnPlaceAndPosition(t *testing.T) {
	ctx := context.Background()
	w := New(Options{Material: 3, Start: plan.Position{X: -1}})

	pos, err := w.CurrentPosition(ctx)
	if err != nil || pos != (plan.Position{X: -1}) {
		t.Fatalf("Unexpected start position %s (%v)", pos, err)
	}

	var seen []int
	w.OnPlace(func(n int) { seen = append(seen, n) })

	targets := []plan.Position{{X: 1}, {X: 3}}
	for _, p := range targets {
		if err := w.PlaceAt(ctx, p, plan.RoleSolutionMarker); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("Unexpected hook calls %v", seen)
	}
	if pos, _ := w.CurrentPosition(ctx); pos != targets[1] {
		t.Errorf("Expected actor at %s, got %s", targets[1], pos)
	}
	if role := w.Placed()[targets[0]]; role != plan.RoleSolutionMarker {
		t.Errorf("Expected marker role, got %s", role)
	}
	if order := w.Order(); len(order) != 2 || order[0] != targets[0] {
		t.Errorf("Unexpected order %v", order)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := New(Options{Material: 1})

	if err := w.PlaceAt(ctx, plan.Position{}, plan.RoleWall); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if w.Stats().Attempts != 0 {
		t.Error("Cancelled placement should not count as an attempt")
	}
}
