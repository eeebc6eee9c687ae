// Package vote reconciles a viewer's directional vote on a question or answer
// with the item's running score.
//
// A viewer holds at most one vote per item. Clicking the active direction
// again withdraws it, clicking the opposite direction switches it, and the
// score always moves by the difference between the old and new vote rather
// than being re-summed.
package vote

import (
	"errors"
	"fmt"
	"strings"
)

// State is the viewer's own vote on an item.
type State int8

const (
	None State = iota
	Up
	Down
)

// Direction is the control the viewer clicked.
type Direction int8

const (
	DirUp Direction = iota + 1
	DirDown
)

var ErrInvalidDirection = errors.New("vote direction must be up or down")

// Value is the contribution of a state to the item's score.
func (s State) Value() int {
	switch s {
	case Up:
		return 1
	case Down:
		return -1
	default:
		return 0
	}
}

func (s State) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "up":
		*s = Up
	case "down":
		*s = Down
	case "", "none":
		*s = None
	default:
		return fmt.Errorf("unknown vote state %q", b)
	}
	return nil
}

// StateFromValue maps a stored vote value (+1 / -1) back to a state. Any other
// value, including 0, is treated as no vote.
func StateFromValue(v int) State {
	switch {
	case v > 0:
		return Up
	case v < 0:
		return Down
	default:
		return None
	}
}

// State returns the vote held after clicking d from nothing.
func (d Direction) State() State {
	if d == DirDown {
		return Down
	}
	return Up
}

func (d Direction) String() string {
	if d == DirDown {
		return "down"
	}
	return "up"
}

func (d Direction) Valid() bool {
	return d == DirUp || d == DirDown
}

// ParseDirection accepts the spellings used by clients: up/down,
// upvote/downvote and 1/-1.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "upvote", "1", "+1":
		return DirUp, nil
	case "down", "downvote", "-1":
		return DirDown, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Transition returns the viewer's next state and the score delta for clicking
// d while holding cur.
//
//	cur   d     next  delta
//	none  up    up    +1
//	none  down  down  -1
//	up    up    none  -1
//	down  down  none  +1
//	up    down  down  -2
//	down  up    up    +2
//
// A direction that is not Valid leaves cur unchanged with a zero delta.
func Transition(cur State, d Direction) (State, int) {
	if !d.Valid() {
		return cur, 0
	}
	next := d.State()
	if cur == next {
		next = None
	}
	return next, next.Value() - cur.Value()
}

// Tally is the score/vote pair a display component renders from.
type Tally struct {
	Score  int   `json:"score"`
	Viewer State `json:"viewer_vote"`
}

// Seed builds the tally for an item loaded with a stored score and the
// viewer's stored vote, if any.
func Seed(score int, viewer State) Tally {
	return Tally{Score: score, Viewer: viewer}
}

// Base is the score the item would have without the viewer's vote.
func (t Tally) Base() int {
	return t.Score - t.Viewer.Value()
}

// Apply returns the tally after the viewer clicks d. Both fields change
// together in the returned value.
func Apply(t Tally, d Direction) Tally {
	next, delta := Transition(t.Viewer, d)
	return Tally{Score: t.Score + delta, Viewer: next}
}
