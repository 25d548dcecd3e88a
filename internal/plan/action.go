// Package plan flattens a maze into an ordered list of physical placement actions.
package plan

import "fmt"

// Position is a world coordinate.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Add returns p offset by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Distance returns the Manhattan distance between two positions.
func Distance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Role tells the placer what to put at a position.
type Role int

const (
	RoleWall Role = iota
	RoleSolutionMarker
)

func (r Role) String() string {
	switch r {
	case RoleWall:
		return "wall"
	case RoleSolutionMarker:
		return "marker"
	}
	return "unknown"
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	switch s {
	case "wall":
		return RoleWall, nil
	case "marker":
		return RoleSolutionMarker, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// State is the execution state of one action.
type State int

const (
	StatePending State = iota
	StatePlaced
	StateFailed
	// StateBlocked means the action is waiting on placement material.
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaced:
		return "placed"
	case StateFailed:
		return "failed"
	case StateBlocked:
		return "blocked"
	}
	return "unknown"
}

// Action is one physical placement. ID equals the action's index in its plan.
type Action struct {
	ID    int
	Pos   Position
	Role  Role
	State State
}

func (a Action) String() string {
	return fmt.Sprintf("#%d %s@%s", a.ID, a.Role, a.Pos)
}
