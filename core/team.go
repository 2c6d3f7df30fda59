package core

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrEmptyTeam       = errors.New("a team needs at least one participant")
	ErrDuplicateMember = errors.New("a participant appears twice in the team")
	ErrParticipantId   = errors.New("participant ids must not contain the team separator")
)

// A Team is the unit that competes in a tournament. In beach tennis
// it is normally a pair of participants.
//
// Two teams are the same when they consist of the same participants,
// regardless of the order in which they were given.
type Team struct {
	participants []string
	key          string
}

// Returns the participant ids of the team in canonical (sorted) order
func (t Team) Participants() []string {
	return slices.Clone(t.participants)
}

// Returns the canonical identifier of the team. It is
// used for equality, map keys and as the deterministic
// last resort of the ranking tie-break.
func (t Team) Key() string {
	return t.key
}

func (t Team) Equal(other Team) bool {
	return t.key == other.key
}

func (t Team) IsZero() bool {
	return t.key == ""
}

func (t Team) String() string {
	return t.key
}

const teamKeySeparator = "+"

func NewTeam(participantIds ...string) (Team, error) {
	if len(participantIds) == 0 {
		return Team{}, ErrEmptyTeam
	}

	participants := slices.Clone(participantIds)
	slices.Sort(participants)
	for i, p := range participants {
		if p == "" {
			return Team{}, ErrEmptyTeam
		}
		if strings.Contains(p, teamKeySeparator) {
			return Team{}, ErrParticipantId
		}
		if i > 0 && participants[i-1] == p {
			return Team{}, ErrDuplicateMember
		}
	}

	team := Team{
		participants: participants,
		key:          strings.Join(participants, teamKeySeparator),
	}
	return team, nil
}

// Parses a team from its Key
func ParseTeam(key string) (Team, error) {
	return NewTeam(strings.Split(key, teamKeySeparator)...)
}

// Like NewTeam but panics on error. Meant for literals in tests
// and fixtures.
func MustTeam(participantIds ...string) Team {
	team, err := NewTeam(participantIds...)
	if err != nil {
		panic(err)
	}
	return team
}
