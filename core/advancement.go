package core

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// Moves the winner of a completed match into the following match.
//
// When the following match is left with one team whose opposing
// branch ended without a team, it is completed as a walkover and
// its winner moves on as well. A void match propagates an empty
// slot the same way.
//
// Advance is idempotent: applying the same match again leaves the
// bracket unchanged. All matches that were changed are returned.
func (b *Bracket) Advance(match *Match) ([]*Match, error) {
	touched := make([]*Match, 0, 2)
	err := b.advance(match, &touched)
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (b *Bracket) advance(match *Match, touched *[]*Match) error {
	current, ok := b.byId[match.Id]
	if !ok {
		return fmt.Errorf("%w: match %v is not part of the bracket", ErrMalformedBracket, match.Id)
	}
	if current.Round >= b.NumRounds {
		return nil
	}

	var winner Team
	switch current.State {
	case StateCompleted:
		winner, ok = current.Winner()
		if !ok {
			return fmt.Errorf("match %v: %w", current.Key(), ErrNoWinner)
		}
	case StateVoid:
	default:
		return nil
	}

	key := nextKey(current.Key())
	next, ok := b.byKey[key]
	if !ok {
		log.WithFields(logrus.Fields{
			"tournament_id": b.TournamentId,
			"match":         current.Key().String(),
			"next_match":    key.String(),
		}).Error("the following match is missing from the bracket")
		return fmt.Errorf("%w: %v following %v", ErrMissingNextMatch, key, current.Key())
	}

	side := feedSide(current.Position)
	slot := next.Slot(side)

	var updated Slot
	var unchanged bool
	if current.State == StateCompleted {
		updated = slot.resolve(winner)
		unchanged = slot.Holds(winner)
	} else {
		updated = slot.void()
		unchanged = slot.IsEmpty()
	}

	if !unchanged {
		if next.State == StateCompleted || next.State == StateVoid {
			return fmt.Errorf("%w: %v %v", ErrSlotConflict, key, side)
		}
		next.setSlot(side, updated)
		markTouched(touched, next)
	}

	return b.settle(next, touched)
}

// Re-evaluates a match after one of its slots changed and
// resolves it automatically when it can not be played
func (b *Bracket) settle(match *Match, touched *[]*Match) error {
	if match.State == StateCompleted || match.State == StateVoid {
		return nil
	}

	s1, s2 := match.Team1, match.Team2
	switch {
	case s1.IsEmpty() && s2.IsEmpty() && b.branchEnded(match, Side1) && b.branchEnded(match, Side2):
		match.markVoid()
	case s1.IsResolved() && s2.IsEmpty() && b.branchEnded(match, Side2):
		match.Walkover = true
		match.completeUnopposed(Side1)
	case s2.IsResolved() && s1.IsEmpty() && b.branchEnded(match, Side1):
		match.Walkover = true
		match.completeUnopposed(Side2)
	default:
		// Either READY for a real result or still waiting for a team
		return nil
	}

	if match.Walkover {
		log.WithFields(logrus.Fields{
			"tournament_id": b.TournamentId,
			"match":         match.Key().String(),
		}).Debug("match completed as walkover")
	}

	markTouched(touched, match)
	return b.advance(match, touched)
}

// Returns true when the given side of the match will never
// receive a team
func (b *Bracket) branchEnded(match *Match, side Side) bool {
	if !match.Slot(side).IsEmpty() {
		return false
	}
	feeder := b.graph.FeederOf(match, side)
	return feeder == nil || feeder.State == StateVoid
}

func markTouched(touched *[]*Match, match *Match) {
	if !slices.Contains(*touched, match) {
		*touched = append(*touched, match)
	}
}

// The final result of a match as entered by a user
type Result struct {
	Score1 int
	Score2 int
	Sets   []SetScore
}

// Checks the rules that hold for every score format:
// no negative values, no draws and per-set detail that
// adds up to the final scores.
//
// With one set the final scores are the games of that set,
// with more sets they are the number of sets won.
func (r Result) Consistent() error {
	if r.Score1 < 0 || r.Score2 < 0 {
		return fmt.Errorf("%w: negative score %v-%v", ErrInvalidScore, r.Score1, r.Score2)
	}
	if r.Score1 == r.Score2 {
		return fmt.Errorf("%w: %w", ErrInvalidScore, ErrDraw)
	}
	if len(r.Sets) == 0 {
		return nil
	}

	if len(r.Sets) == 1 {
		set := r.Sets[0]
		if set.Games1 != r.Score1 || set.Games2 != r.Score2 {
			return fmt.Errorf("%w: set %v-%v does not match the score", ErrInvalidScore, set.Games1, set.Games2)
		}
		return nil
	}

	sets1, sets2 := 0, 0
	for _, set := range r.Sets {
		switch {
		case set.Games1 < 0 || set.Games2 < 0:
			return fmt.Errorf("%w: negative games in a set", ErrInvalidScore)
		case set.Games1 == set.Games2:
			return fmt.Errorf("%w: a set has equal games", ErrInvalidScore)
		case set.Games1 > set.Games2:
			sets1 += 1
		default:
			sets2 += 1
		}
	}
	if sets1 != r.Score1 || sets2 != r.Score2 {
		return fmt.Errorf("%w: sets won %v-%v do not match the score", ErrInvalidScore, sets1, sets2)
	}

	return nil
}

// Score format specific validation of results
type ScoreRules interface {
	ValidateResult(result Result) error
}

type consistentRules struct{}

func (consistentRules) ValidateResult(result Result) error {
	return result.Consistent()
}

// Rules that only check what holds for every format
var DefaultRules ScoreRules = consistentRules{}

// The matches that a recorded result changed
type ResultUpdate struct {
	// The match with the recorded result
	Match *Match
	// Matches of later rounds that received a team or were
	// completed as walkover
	Cascaded []*Match
	// The updated bracket. Nil for group matches.
	Bracket *Bracket
}

// All changed matches
func (u *ResultUpdate) Changed() []*Match {
	return append([]*Match{u.Match}, u.Cascaded...)
}

// Records the result of a match.
//
// For elimination matches the bracket is required and the winner
// advances through the bracket. The work happens on copies: on
// error neither the match nor the bracket are changed, on success
// the update holds the new versions of every changed match for
// the caller to persist together.
//
// Recording the same result again is not an error and repeats
// the advancement (which is idempotent).
func RecordMatchResult(match *Match, bracket *Bracket, result Result, rules ScoreRules) (*ResultUpdate, error) {
	if rules == nil {
		rules = DefaultRules
	}

	var work *Bracket
	var target *Match
	if match.Stage == StageElimination {
		if bracket == nil {
			return nil, fmt.Errorf("%w: elimination result without the bracket", ErrMalformedBracket)
		}
		work = bracket.Clone()
		var ok bool
		target, ok = work.MatchById(match.Id)
		if !ok {
			return nil, fmt.Errorf("%w: match %v is not part of the bracket", ErrMalformedBracket, match.Id)
		}
	} else {
		target = match.Clone()
	}

	switch target.State {
	case StateCompleted:
		if !target.hasResult(result) {
			return nil, fmt.Errorf("%w: %v", ErrMatchCompleted, target)
		}
	case StateReady:
		if err := rules.ValidateResult(result); err != nil {
			if !errors.Is(err, ErrInvalidScore) {
				err = fmt.Errorf("%w: %w", ErrInvalidScore, err)
			}
			return nil, err
		}
		winner := Side1
		if result.Score2 > result.Score1 {
			winner = Side2
		}
		target.complete(winner, result.Score1, result.Score2)
		target.Sets = slices.Clone(result.Sets)
	default:
		return nil, fmt.Errorf("%w: %v", ErrMatchNotReady, target)
	}

	update := &ResultUpdate{Match: target, Bracket: work}
	if work == nil {
		return update, nil
	}

	cascaded, err := work.Advance(target)
	if err != nil {
		return nil, err
	}
	update.Cascaded = cascaded

	return update, nil
}

// Returns true when the match was played with exactly this result
func (m *Match) hasResult(result Result) bool {
	if m.Unplayed() || m.Score1 == nil || m.Score2 == nil {
		return false
	}
	return *m.Score1 == result.Score1 &&
		*m.Score2 == result.Score2 &&
		slices.Equal(m.Sets, result.Sets)
}
