package fantasy

import (
	"fmt"
	"strings"
)

// Position is a roster slot type.
type Position string

const (
	PositionCaptain  Position = "captain"
	PositionHandler  Position = "handler"
	PositionCutter   Position = "cutter"
	PositionDefender Position = "defender"
)

// Positions lists every roster position in validation priority order.
var Positions = []Position{
	PositionCaptain,
	PositionHandler,
	PositionCutter,
	PositionDefender,
}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionCaptain, PositionHandler, PositionCutter, PositionDefender:
		return true
	}
	return false
}

// ParsePosition normalizes s into a Position.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
	}
	return p, nil
}
