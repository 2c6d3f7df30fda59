package core

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrTooFewGroups  = errors.New("the number of groups has to be at least 1")
	ErrTooManyGroups = errors.New("the number of groups is too large for the amount of teams")
	ErrDuplicateTeam = errors.New("a team is drawn more than once")
)

// Distributes the teams into numGroups groups.
// The teams are expected in seeding order and are distributed
// among the groups in a "snaking" order going back and forth.
// Every group gets at least 2 teams.
func DrawGroups(teams []Team, numGroups int) ([][]Team, error) {
	if numGroups < 1 {
		return nil, ErrTooFewGroups
	}
	if 2*numGroups > len(teams) {
		return nil, fmt.Errorf("%w: %v groups for %v teams", ErrTooManyGroups, numGroups, len(teams))
	}

	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		if t.IsZero() {
			return nil, ErrEmptyTeam
		}
		if seen[t.Key()] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateTeam, t)
		}
		seen[t.Key()] = true
	}

	groups := make([][]Team, 0, numGroups)
	maxGroupSize := len(teams) / numGroups
	if len(teams)%numGroups != 0 {
		maxGroupSize += 1
	}
	for range numGroups {
		groups = append(groups, make([]Team, 0, maxGroupSize))
	}

	for len(teams) > 0 {
		snakeDirection := len(groups[0])%2 == 0
		sliceSize := min(len(teams), numGroups)
		currentTeams := teams[:sliceSize]
		teams = teams[sliceSize:]

		for i, team := range directionalSeq(currentTeams, snakeDirection) {
			// The higher index groups get the remaining teams
			// if not divisible by numGroups
			i += (numGroups - sliceSize)
			groups[i] = append(groups[i], team)
		}
	}

	return groups, nil
}

// Returns an index-value-sequence that iterates the given slice normally
// when the direction bool is true, otherwise iterates in
// reverse order. The index is ascending in both cases.
func directionalSeq[V any](slice []V, direction bool) iter.Seq2[int, V] {
	l := len(slice)
	iterator := func(yield func(int, V) bool) {
		for i := range l {
			v := i
			if !direction {
				v = l - i - 1
			}
			if !yield(i, slice[v]) {
				return
			}
		}
	}

	return iterator
}

// Creates the round robin matches of the groups. The groups are
// numbered from 1 in the given order. The Round of a group match
// is the round of the group's schedule.
func GenerateGroupMatches(tournamentId string, groups [][]Team) []*Match {
	matches := make([]*Match, 0, 16*len(groups))
	for i, teams := range groups {
		matches = append(matches, roundRobinMatches(tournamentId, i+1, teams)...)
	}
	return matches
}

// Creates the matches of one group with the circle method.
// An odd number of teams gets a sitting-out placeholder.
func roundRobinMatches(tournamentId string, group int, teams []Team) []*Match {
	entries := make([]*Team, 0, len(teams)+1)
	for i := range teams {
		entries = append(entries, &teams[i])
	}
	if len(entries)%2 != 0 {
		entries = append(entries, nil)
	}

	numRounds := len(entries) - 1
	numMatches := len(entries) / 2

	matches := make([]*Match, 0, numRounds*numMatches)
	for roundI := range numRounds {
		position := 1
		for matchI := range numMatches {
			team1, team2 := pickOpponents(entries, roundI, matchI)
			if team1 == nil || team2 == nil {
				continue
			}
			match := NewGroupMatch(tournamentId, group, *team1, *team2)
			match.Round = roundI + 1
			match.Position = position
			position += 1
			matches = append(matches, match)
		}
	}

	return matches
}

// Returns the opponents of the specified match by its indices
// while making sure the share of first-named matches is evenly
// distributed among the teams
func pickOpponents(entries []*Team, roundI, matchI int) (*Team, *Team) {
	i1 := roundRobinCircleIndex(matchI, len(entries), roundI)
	i2 := roundRobinCircleIndex(len(entries)-1-matchI, len(entries), roundI)

	team1 := entries[i1]
	team2 := entries[i2]

	if matchI == 0 && roundI%2 != 0 {
		team1, team2 = team2, team1
	}

	return team1, team2
}

// Rotates the given index according to https://en.wikipedia.org/wiki/Round-robin_tournament#Circle_method
func roundRobinCircleIndex(index, length, round int) int {
	if index == 0 {
		return 0
	}
	index -= 1
	index -= round
	index += length - 1
	index %= length - 1
	index += 1
	return index
}
