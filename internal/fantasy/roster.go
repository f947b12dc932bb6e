package fantasy

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPosition = errors.New("unknown position")
	ErrPositionLimit   = errors.New("position limit exceeded")
	ErrBudgetExceeded  = errors.New("budget exceeded")
)

// Slot is one filled roster position with the player's price.
type Slot struct {
	Position Position `json:"position"`
	Price    int      `json:"price"`
}

// Rules holds the roster ceilings.
type Rules struct {
	Budget      int
	MaxPosition map[Position]int
}

// DefaultRules returns the salary-cap league limits.
func DefaultRules() Rules {
	return Rules{
		Budget: 70,
		MaxPosition: map[Position]int{
			PositionCaptain:  1,
			PositionHandler:  2,
			PositionCutter:   2,
			PositionDefender: 2,
		},
	}
}

// ValidateRoster checks a full or partial roster against the default rules.
func ValidateRoster(slots []Slot) error {
	return DefaultRules().Validate(slots)
}

// Validate returns nil for a valid roster. Otherwise the error wraps one of
// ErrUnknownPosition, ErrPositionLimit or ErrBudgetExceeded and its message
// is the reason shown to the user. Position ceilings are checked in
// Positions order before the budget.
func (r Rules) Validate(slots []Slot) error {
	counts := make(map[Position]int, len(Positions))
	total := 0
	for _, s := range slots {
		if !s.Position.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownPosition, s.Position)
		}
		counts[s.Position]++
		total += s.Price
	}

	for _, p := range Positions {
		if limit, ok := r.MaxPosition[p]; ok && counts[p] > limit {
			return fmt.Errorf("%w: at most %d %s allowed, roster has %d", ErrPositionLimit, limit, p, counts[p])
		}
	}

	if total > r.Budget {
		return fmt.Errorf("%w: roster costs %d, budget is %d", ErrBudgetExceeded, total, r.Budget)
	}

	return nil
}

// TotalPrice sums slot prices.
func TotalPrice(slots []Slot) int {
	total := 0
	for _, s := range slots {
		total += s.Price
	}
	return total
}
