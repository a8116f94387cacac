package game

import (
	"fmt"
	"strings"
)

// Action is a player decision for the active hand
type Action int

const (
	Stand Action = iota
	Hit
	Double
	Split
)

// Actions lists every action in wire order.
var Actions = [...]Action{Stand, Hit, Double, Split}

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	case Double:
		return "double"
	case Split:
		return "split"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Valid reports whether a is one of the four known actions
func (a Action) Valid() bool {
	return a >= Stand && a <= Split
}

// ParseAction accepts an action name, its first letter or its number.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "s", "stand":
		return Stand, nil
	case "1", "h", "hit":
		return Hit, nil
	case "2", "d", "double":
		return Double, nil
	case "3", "p", "split":
		return Split, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Outcome is the settlement result of a hand
type Outcome int

const (
	Pending Outcome = iota
	Win
	Loss
	Draw
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Phase is the round controller state
type Phase int

const (
	PhaseDealing Phase = iota
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseSettlement
	PhaseRoundOver
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhaseDealing:
		return "dealing"
	case PhasePlayerTurn:
		return "player-turn"
	case PhaseDealerTurn:
		return "dealer-turn"
	case PhaseSettlement:
		return "settlement"
	case PhaseRoundOver:
		return "round-over"
	default:
		return "unknown"
	}
}

// MarshalText encodes an action by name
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts anything ParseAction does
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText encodes an outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{Pending, Win, Loss, Draw} {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// MarshalText encodes a phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseDealing; candidate <= PhaseRoundOver; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
