package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var ErrForeignMatch = errors.New("match does not belong to the ranked group")

// The ranking of the teams in one group after the
// completed matches so far.
type GroupRanking struct {
	Group   int          `json:"group"`
	Entries []RankedTeam `json:"entries"`
}

type RankedTeam struct {
	Team  Team            `json:"team"`
	Stats *GroupTeamStats `json:"stats"`
	// 1 is best. Every team has a distinct rank.
	Rank int `json:"rank"`

	// True when the team's position relative to an equal team
	// was decided by the team key after all sporting criteria
	// were exhausted. The order is stable but has no sporting meaning.
	ArbitraryTieBreak bool `json:"arbitraryTieBreak"`
}

// Returns the entry with the given rank (1 is best)
func (r *GroupRanking) At(rank int) (RankedTeam, bool) {
	if rank < 1 || rank > len(r.Entries) {
		return RankedTeam{}, false
	}
	return r.Entries[rank-1], true
}

// Returns the teams in rank order
func (r *GroupRanking) Teams() []Team {
	teams := make([]Team, 0, len(r.Entries))
	for _, e := range r.Entries {
		teams = append(teams, e.Team)
	}
	return teams
}

// Ranks the teams of a group by their completed matches.
//
// The teams are ordered by wins. Teams with equal wins are
// ordered by the tie-break cascade (see breakTie).
// Teams without any completed match are not ranked.
func ComputeGroupRanking(group int, matches []*Match) (*GroupRanking, error) {
	completed := make([]*Match, 0, len(matches))
	for _, m := range matches {
		if m.Stage != StageGroup || m.Group != group {
			return nil, fmt.Errorf("%w: %v is not in group %v", ErrForeignMatch, m, group)
		}
		if !m.Completed() {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		completed = append(completed, m)
	}

	stats, teams := createGroupStats(completed)

	sortedByWins := sortByCriterion(teams, func(a, b Team) int {
		return cmp.Compare(stats[a.Key()].Wins, stats[b.Key()].Wins)
	})

	entries := make([]RankedTeam, 0, len(teams))
	for _, tie := range sortedByWins {
		for _, rank := range breakTie(tie, stats) {
			arbitrary := len(rank) > 1
			if arbitrary {
				slices.SortFunc(rank, func(a, b Team) int { return cmp.Compare(a.Key(), b.Key()) })
			}
			for _, team := range rank {
				entries = append(entries, RankedTeam{
					Team:              team,
					Stats:             stats[team.Key()],
					Rank:              len(entries) + 1,
					ArbitraryTieBreak: arbitrary,
				})
			}
		}
	}

	ranking := &GroupRanking{Group: group, Entries: entries}
	return ranking, nil
}

// Attempts to break the tie between teams with the same amount of wins.
//
// A two-way-tie is decided by the direct encounter. Larger ties
// are ordered by
//   - wins against the other tied teams
//   - percentage of sets won
//   - percentage of games won
//
// A two-way-tie that is not decided by the direct encounter falls
// through to the percentages as well.
//
// The returned list is descending in rank and each nested list is a rank
// of teams. More than one team in a rank means the sporting criteria
// could not break the tie.
func breakTie(tie []Team, stats map[string]*GroupTeamStats) [][]Team {
	if len(tie) == 1 {
		return [][]Team{tie}
	}

	byDirectWins := func(a, b Team) int {
		return cmp.Compare(stats[a.Key()].WinsAgainst(tie), stats[b.Key()].WinsAgainst(tie))
	}
	bySets := func(a, b Team) int {
		return stats[a.Key()].SetRatio().Compare(stats[b.Key()].SetRatio())
	}
	byGames := func(a, b Team) int {
		return stats[a.Key()].GameRatio().Compare(stats[b.Key()].GameRatio())
	}

	if len(tie) == 2 {
		// Both won or neither played the other: the direct
		// encounter does not decide
		direct := sortByCriterion(tie, byDirectWins)
		if len(direct) == 2 {
			return direct
		}
	}

	return cascade(tie, byDirectWins, bySets, byGames)
}

// Splits the teams with the first criterion and recursively
// splits the emerging sub-ties with the following criteria
func cascade(tie []Team, criteria ...func(a, b Team) int) [][]Team {
	if len(tie) == 1 || len(criteria) == 0 {
		return [][]Team{tie}
	}

	broken := make([][]Team, 0, len(tie))
	for _, subTie := range sortByCriterion(tie, criteria[0]) {
		broken = append(broken, cascade(subTie, criteria[1:]...)...)
	}
	return broken
}

// Sorts the teams into descending buckets of the criterion.
// Teams that compare as equal end up in the same bucket.
func sortByCriterion(teams []Team, compare func(a, b Team) int) [][]Team {
	sorted := slices.Clone(teams)
	slices.SortStableFunc(sorted, func(a, b Team) int { return compare(b, a) })

	buckets := make([][]Team, 0, len(sorted))
	for i, team := range sorted {
		if i > 0 && compare(sorted[i-1], team) == 0 {
			last := len(buckets) - 1
			buckets[last] = append(buckets[last], team)
			continue
		}
		buckets = append(buckets, []Team{team})
	}

	return buckets
}
