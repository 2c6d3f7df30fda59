package core

import (
	"fmt"
	"maps"
	"slices"
)

// A team that advances from the group stage into the
// elimination stage
type Qualifier struct {
	Team Team `json:"team"`
	// Group number the team qualified from
	Group int `json:"group"`
	// Final rank of the team in its group (1 is best)
	Place int `json:"place"`
}

// Creates qualifiers that do not come from a group stage.
// The given order is the seeding order. Every team is
// its own group so no rematch avoidance applies.
func UngroupedQualifiers(teams []Team) []Qualifier {
	qualifiers := make([]Qualifier, 0, len(teams))
	for i, t := range teams {
		qualifiers = append(qualifiers, Qualifier{Team: t, Group: -(i + 1), Place: i + 1})
	}
	return qualifiers
}

// Selects the best qualifiersPerGroup teams of each group.
//
// The result is ordered by placement first (all group winners, then
// all runners-up, ...) and by group number within the same placement.
// This order is the seeding order of the elimination bracket which
// spreads the group winners over the top seeds.
func SelectQualifiers(rankings map[int]*GroupRanking, qualifiersPerGroup int) ([]Qualifier, error) {
	if qualifiersPerGroup < 1 {
		return nil, fmt.Errorf("%w: %v qualifiers per group", ErrInsufficientParticipants, qualifiersPerGroup)
	}

	groups := slices.Sorted(maps.Keys(rankings))

	qualifiers := make([]Qualifier, 0, qualifiersPerGroup*len(groups))
	for place := 1; place <= qualifiersPerGroup; place += 1 {
		for _, group := range groups {
			ranking := rankings[group]
			if ranking == nil {
				continue
			}
			entry, ok := ranking.At(place)
			if !ok {
				continue
			}
			qualifiers = append(qualifiers, Qualifier{
				Team:  entry.Team,
				Group: group,
				Place: place,
			})
		}
	}

	if len(qualifiers) < 2 {
		return nil, fmt.Errorf("%w: only %v qualifiers", ErrInsufficientParticipants, len(qualifiers))
	}

	return qualifiers, nil
}
