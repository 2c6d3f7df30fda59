package core

import "fmt"

// A Slot is one of the two team places of a Match.
//
// A Slot can represent one of 3 things:
//   - Nothing (empty): no team is or will ever be in this slot.
//     In the first elimination round this is a bye for the opponent,
//     in later rounds it means the feeding branch produced no team.
//   - A not yet determined team (placeholder): the winner of the
//     match referenced by Source will move into the slot.
//   - An actual team (resolved)
//
// Slots of later elimination rounds go from placeholder to resolved
// as the winners of the feeding matches become known.
type Slot struct {
	Kind SlotKind

	// The team occupying the slot. Only set when Kind is SlotResolved.
	Team Team

	// Id of the match whose winner feeds this slot.
	// Empty for first round and group slots.
	Source string
}

type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotPlaceholder
	SlotResolved
)

func (k SlotKind) String() string {
	switch k {
	case SlotPlaceholder:
		return "placeholder"
	case SlotResolved:
		return "resolved"
	default:
		return "empty"
	}
}

func ParseSlotKind(s string) (SlotKind, error) {
	switch s {
	case "empty":
		return SlotEmpty, nil
	case "placeholder":
		return SlotPlaceholder, nil
	case "resolved":
		return SlotResolved, nil
	}
	return SlotEmpty, fmt.Errorf("unknown slot kind %q", s)
}

func (s Slot) IsEmpty() bool {
	return s.Kind == SlotEmpty
}

func (s Slot) IsPlaceholder() bool {
	return s.Kind == SlotPlaceholder
}

func (s Slot) IsResolved() bool {
	return s.Kind == SlotResolved
}

// Returns true when the slot holds the given team
func (s Slot) Holds(team Team) bool {
	return s.Kind == SlotResolved && s.Team.Equal(team)
}

func (s Slot) Equal(other Slot) bool {
	return s.Kind == other.Kind && s.Source == other.Source && s.Team.Equal(other.Team)
}

func EmptySlot() Slot {
	return Slot{Kind: SlotEmpty}
}

func PlaceholderSlot(sourceMatchId string) Slot {
	return Slot{Kind: SlotPlaceholder, Source: sourceMatchId}
}

func ResolvedSlot(team Team) Slot {
	return Slot{Kind: SlotResolved, Team: team}
}

// Returns a copy of the slot that is resolved to the given team
// but still remembers where the team came from
func (s Slot) resolve(team Team) Slot {
	return Slot{Kind: SlotResolved, Team: team, Source: s.Source}
}

// Returns a copy of the slot that is empty for good
func (s Slot) void() Slot {
	return Slot{Kind: SlotEmpty, Source: s.Source}
}

// Names one of the two slots of a match
type Side int

const (
	NoSide Side = iota
	Side1
	Side2
)

func (s Side) String() string {
	switch s {
	case Side1:
		return "team1"
	case Side2:
		return "team2"
	default:
		return ""
	}
}

func (s Side) Other() Side {
	switch s {
	case Side1:
		return Side2
	case Side2:
		return Side1
	default:
		return NoSide
	}
}

func ParseSide(s string) Side {
	switch s {
	case "team1":
		return Side1
	case "team2":
		return Side2
	default:
		return NoSide
	}
}
