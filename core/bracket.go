package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var ErrDuplicateQualifier = errors.New("a team qualified more than once")

// Identifies an elimination match by its round and position
type MatchKey struct {
	Round    int
	Position int
}

func (k MatchKey) String() string {
	return fmt.Sprintf("R%dM%d", k.Round, k.Position)
}

func (m *Match) Key() MatchKey {
	return MatchKey{Round: m.Round, Position: m.Position}
}

// The key of the match that the winner of the given key moves into
func nextKey(key MatchKey) MatchKey {
	return MatchKey{Round: key.Round + 1, Position: (key.Position + 1) / 2}
}

// The side of the next match that a match at the given position feeds.
// Odd positions feed team1, even positions team2.
func feedSide(position int) Side {
	if position%2 == 1 {
		return Side1
	}
	return Side2
}

// A single elimination bracket.
//
// The size is a power of two. Round 1 has Size/2 matches and each
// following round halves the number of matches until the final.
type Bracket struct {
	TournamentId string
	Size         int
	NumRounds    int

	// All matches ordered by round and position
	Matches []*Match

	// Non-fatal problems that occured while generating the bracket
	// (ErrSeedingDegraded, ErrRematchUnavoidable)
	Warnings []error

	byKey map[MatchKey]*Match
	byId  map[string]*Match
	graph *EliminationGraph
}

type BracketOptions struct {
	// Try to keep teams from the same group apart in the first round
	AvoidSameGroupFirstRound bool
}

// Generates the elimination bracket for the qualifiers. The qualifiers
// are seeded in the given order (see SelectQualifiers).
//
// All matches are new and unpersisted. First round byes are
// already resolved and their winners moved into the second round.
func GenerateEliminationBracket(
	tournamentId string,
	qualifiers []Qualifier,
	opts BracketOptions,
) (*Bracket, error) {
	if len(qualifiers) < 2 {
		return nil, fmt.Errorf("%w: %v qualifiers", ErrInsufficientParticipants, len(qualifiers))
	}

	seen := make(map[string]bool, len(qualifiers))
	for _, q := range qualifiers {
		if q.Team.IsZero() {
			return nil, fmt.Errorf("%w: qualifier without team", ErrEmptyTeam)
		}
		if seen[q.Team.Key()] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateQualifier, q.Team)
		}
		seen[q.Team.Key()] = true
	}

	size := nextPowerOfTwo(len(qualifiers))

	slots, warnings := placeSeeds(qualifiers, size)
	if opts.AvoidSameGroupFirstRound {
		warnings = append(warnings, avoidSameGroupRematches(slots)...)
	}

	numRounds := getNumRounds(size)
	matches := make([]*Match, 0, size-1)

	firstRound := make([]*Match, 0, size/2)
	for i := 0; i < size; i += 2 {
		match := newEliminationMatch(tournamentId, 1, i/2+1)
		match.Team1 = entrySlot(slots[i])
		match.Team2 = entrySlot(slots[i+1])
		firstRound = append(firstRound, match)
	}
	matches = append(matches, firstRound...)

	previousRound := firstRound
	for round := 2; round <= numRounds; round += 1 {
		roundMatches := make([]*Match, 0, len(previousRound)/2)
		for i := 0; i < len(previousRound); i += 2 {
			match := newEliminationMatch(tournamentId, round, i/2+1)
			match.Team1 = PlaceholderSlot(previousRound[i].Id)
			match.Team2 = PlaceholderSlot(previousRound[i+1].Id)
			roundMatches = append(roundMatches, match)
		}
		matches = append(matches, roundMatches...)
		previousRound = roundMatches
	}

	bracket, err := newBracket(tournamentId, matches)
	if err != nil {
		return nil, err
	}
	bracket.Warnings = warnings

	for _, m := range firstRound {
		resolveFirstRoundMatch(m)
	}
	for _, m := range firstRound {
		if m.State != StateCompleted && m.State != StateVoid {
			continue
		}
		if _, err := bracket.Advance(m); err != nil {
			return nil, err
		}
	}

	return bracket, nil
}

func entrySlot(q *seededQualifier) Slot {
	if q == nil {
		return EmptySlot()
	}
	return ResolvedSlot(q.Team)
}

// Completes first round matches that only have one team as a bye
// and marks matches without any team as void
func resolveFirstRoundMatch(m *Match) {
	filled1, filled2 := m.Team1.IsResolved(), m.Team2.IsResolved()
	switch {
	case filled1 && filled2:
		m.refreshState()
	case filled1:
		m.Bye = true
		m.completeUnopposed(Side1)
	case filled2:
		m.Bye = true
		m.completeUnopposed(Side2)
	default:
		m.markVoid()
	}
}

// Creates a bracket from a snapshot of all elimination matches of
// a tournament (e.g. loaded from storage). The matches are used
// as they are, not copied.
//
// Matches missing from the snapshot are only detected when a
// winner should move into them (ErrMissingNextMatch).
func NewBracket(matches []*Match) (*Bracket, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matches", ErrMalformedBracket)
	}
	return newBracket(matches[0].TournamentId, matches)
}

func newBracket(tournamentId string, matches []*Match) (*Bracket, error) {
	numRounds := 0
	for _, m := range matches {
		if m.Stage != StageElimination {
			return nil, fmt.Errorf("%w: %v is not an elimination match", ErrMalformedBracket, m)
		}
		if m.TournamentId != tournamentId {
			return nil, fmt.Errorf("%w: %v belongs to another tournament", ErrMalformedBracket, m)
		}
		numRounds = max(numRounds, m.Round)
	}

	size := 1 << numRounds

	bracket := &Bracket{
		TournamentId: tournamentId,
		Size:         size,
		NumRounds:    numRounds,
		Matches:      slices.Clone(matches),
		byKey:        make(map[MatchKey]*Match, len(matches)),
		byId:         make(map[string]*Match, len(matches)),
	}

	slices.SortFunc(bracket.Matches, func(a, b *Match) int {
		if a.Round != b.Round {
			return cmp.Compare(a.Round, b.Round)
		}
		return cmp.Compare(a.Position, b.Position)
	})

	for _, m := range bracket.Matches {
		matchesInRound := size >> m.Round
		if m.Round < 1 || m.Position < 1 || m.Position > matchesInRound {
			return nil, fmt.Errorf("%w: %v is outside of the bracket", ErrMalformedBracket, m.Key())
		}
		if _, ok := bracket.byKey[m.Key()]; ok {
			return nil, fmt.Errorf("%w: duplicate match %v", ErrMalformedBracket, m.Key())
		}
		if _, ok := bracket.byId[m.Id]; ok {
			return nil, fmt.Errorf("%w: duplicate match id %v", ErrMalformedBracket, m.Id)
		}
		bracket.byKey[m.Key()] = m
		bracket.byId[m.Id] = m
	}

	bracket.graph = newEliminationGraph(bracket.Matches)
	for _, m := range bracket.Matches {
		if m.Round == numRounds {
			continue
		}
		next, ok := bracket.byKey[nextKey(m.Key())]
		if !ok {
			continue
		}
		if err := bracket.graph.link(m, next); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBracket, err)
		}
	}

	if err := bracket.checkSources(); err != nil {
		return nil, err
	}

	return bracket, nil
}

// Checks that every slot that names its source match is
// fed by exactly that match
func (b *Bracket) checkSources() error {
	for _, m := range b.Matches {
		if m.Round == 1 {
			continue
		}
		for _, side := range []Side{Side1, Side2} {
			source := m.Slot(side).Source
			if source == "" {
				continue
			}
			feeder := b.graph.FeederOf(m, side)
			if feeder != nil && feeder.Id != source {
				return fmt.Errorf(
					"%w: %v %v is fed by %v but names %v as source",
					ErrMalformedBracket, m.Key(), side, feeder.Key(), source,
				)
			}
		}
	}
	return nil
}

// Returns the match at the given round and position
func (b *Bracket) Match(round, position int) (*Match, bool) {
	m, ok := b.byKey[MatchKey{Round: round, Position: position}]
	return m, ok
}

func (b *Bracket) MatchById(id string) (*Match, bool) {
	m, ok := b.byId[id]
	return m, ok
}

// Returns the matches of the given round ordered by position
func (b *Bracket) Round(round int) []*Match {
	matches := make([]*Match, 0, b.Size>>max(round, 1))
	for _, m := range b.Matches {
		if m.Round == round {
			matches = append(matches, m)
		}
	}
	return matches
}

func (b *Bracket) Final() (*Match, bool) {
	return b.Match(b.NumRounds, 1)
}

// Returns the winner of the final once it is decided
func (b *Bracket) Champion() (Team, bool) {
	final, ok := b.Final()
	if !ok {
		return Team{}, false
	}
	return final.Winner()
}

func (b *Bracket) Graph() *EliminationGraph {
	return b.graph
}

// Returns a deep copy of the bracket
func (b *Bracket) Clone() *Bracket {
	matches := make([]*Match, 0, len(b.Matches))
	for _, m := range b.Matches {
		matches = append(matches, m.Clone())
	}

	clone, err := newBracket(b.TournamentId, matches)
	if err != nil {
		// The source bracket passed the same checks
		panic(err)
	}
	clone.Warnings = slices.Clone(b.Warnings)

	return clone
}
