package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// The largest bracket that is placed by seed. Larger brackets
// fall back to natural order.
const MaxSeededBracketSize = 64

// Slot order of the seeds (1 is the strongest) for the usual
// bracket sizes. Index i holds the seed that is placed into
// bracket slot i.
var knownSeedOrders = map[int][]int{
	2:  {1, 2},
	4:  {1, 4, 3, 2},
	8:  {1, 8, 4, 5, 2, 7, 3, 6},
	16: {1, 16, 8, 9, 4, 13, 5, 12, 2, 15, 7, 10, 3, 14, 6, 11},
}

// Returns the seed order for the given bracket size or false
// if the size is beyond the seeding table
func seedOrder(size int) ([]int, bool) {
	if order, ok := knownSeedOrders[size]; ok {
		return order, true
	}
	if size > MaxSeededBracketSize || size < 2 || size&(size-1) != 0 {
		return nil, false
	}

	matchups := arrangeSeeds(getNumRounds(size))
	order := make([]int, 0, size)
	for _, m := range matchups {
		order = append(order, m.seed1+1, m.seed2+1)
	}
	return order, true
}

type seedMatchup struct {
	seed1 int
	seed2 int
}

// Arranges the seeds for the first elimination round of
// a total of numRounds.
//
// The arrangement ensures that the top 2 seeds can only
// meet in the final, the top 4 seeds can only meet
// in the semi-final, etc...
//
// More info: https://en.wikipedia.org/wiki/Single-elimination_tournament#Seeding
func arrangeSeeds(numRounds int) []*seedMatchup {
	// Start with the final between the first two seeds
	matchups := []*seedMatchup{{0, 1}}
	totalSeeds := 2

	// Work down the tournament tree by round (semis, quarters, ...)
	for i := 1; i < numRounds; i += 1 {
		nextMatchups := make([]*seedMatchup, 0, totalSeeds)
		totalSeeds *= 2
		for _, parent := range matchups {
			s1 := parent.seed1
			s2 := parent.seed2

			nextMatchups = append(
				nextMatchups,
				&seedMatchup{s1, totalSeeds - 1 - s1},
				&seedMatchup{s2, totalSeeds - 1 - s2},
			)
		}

		matchups = nextMatchups
	}

	return matchups
}

// Smallest power of two that fits numTeams
func nextPowerOfTwo(numTeams int) int {
	size := 1
	for size < numTeams {
		size <<= 1
	}
	return size
}

func getNumRounds(numSlots int) int {
	rounds := 0
	for numSlots > 1 {
		numSlots >>= 1
		rounds += 1
	}
	return rounds
}

// A qualifier with its seed number (1 is the strongest)
type seededQualifier struct {
	Qualifier
	seed int
}

// Places the qualifiers into the bracket slots by their seed.
// The qualifiers are seeded in the given order. Slots without
// a qualifier are nil (byes).
//
// When the bracket is too large for the seeding table the
// qualifiers are placed in natural order and ErrSeedingDegraded
// is returned as a warning.
func placeSeeds(qualifiers []Qualifier, size int) ([]*seededQualifier, []error) {
	slots := make([]*seededQualifier, size)

	order, ok := seedOrder(size)
	if !ok {
		log.WithFields(logrus.Fields{
			"bracket_size": size,
			"qualifiers":   len(qualifiers),
		}).Warn("bracket exceeds the seeding table, placing qualifiers in natural order")

		for i, q := range qualifiers {
			slots[i] = &seededQualifier{Qualifier: q, seed: i + 1}
		}
		warning := fmt.Errorf("%w: bracket size %v", ErrSeedingDegraded, size)
		return slots, []error{warning}
	}

	for i, seed := range order {
		if seed > len(qualifiers) {
			continue
		}
		slots[i] = &seededQualifier{Qualifier: qualifiers[seed-1], seed: seed}
	}

	return slots, nil
}

// Rearranges the first round so that teams from the same group
// do not meet each other.
//
// Only the lower seeded team of a pairing is moved. It is swapped
// with the lower seeded team of another pairing, preferring a team
// of the same group placement and then the closest seed.
// Pairings with a bye are never touched.
//
// Avoidance is best-effort: when no valid swap exists the
// rematch stays and an ErrRematchUnavoidable warning is returned.
func avoidSameGroupRematches(slots []*seededQualifier) []error {
	var warnings []error

	for i := 0; i < len(slots); i += 2 {
		if !isRematch(slots[i], slots[i+1]) {
			continue
		}

		lowIndex := lowerSeedIndex(slots, i)
		swapIndex := pickSwapCandidate(slots, i, lowIndex)
		if swapIndex < 0 {
			q1, q2 := slots[i], slots[i+1]
			log.WithFields(logrus.Fields{
				"group": q1.Group,
				"seed1": q1.seed,
				"seed2": q2.seed,
			}).Warn("no swap found to avoid a same-group first round match")

			warning := fmt.Errorf(
				"%w: %v and %v of group %v",
				ErrRematchUnavoidable, q1.Team, q2.Team, q1.Group,
			)
			warnings = append(warnings, warning)
			continue
		}

		slots[lowIndex], slots[swapIndex] = slots[swapIndex], slots[lowIndex]
	}

	return warnings
}

func isRematch(q1, q2 *seededQualifier) bool {
	return q1 != nil && q2 != nil && q1.Group == q2.Group
}

// Returns the slot index of the weaker team of the pairing at pairStart
func lowerSeedIndex(slots []*seededQualifier, pairStart int) int {
	if slots[pairStart].seed > slots[pairStart+1].seed {
		return pairStart
	}
	return pairStart + 1
}

// Returns the slot index of the team to swap with the team at
// lowIndex or -1 if there is no valid candidate
func pickSwapCandidate(slots []*seededQualifier, pairStart, lowIndex int) int {
	stay := slots[lowIndex^1]
	moving := slots[lowIndex]

	best := -1
	bestSamePlace := false
	bestDistance := 0

	for j := 0; j < len(slots); j += 2 {
		if j == pairStart || slots[j] == nil || slots[j+1] == nil {
			continue
		}

		candidateIndex := lowerSeedIndex(slots, j)
		candidate := slots[candidateIndex]
		partner := slots[candidateIndex^1]

		if candidate.Group == stay.Group || moving.Group == partner.Group {
			continue
		}

		samePlace := candidate.Place == moving.Place
		distance := abs(candidate.seed - moving.seed)

		better := best < 0 ||
			(samePlace && !bestSamePlace) ||
			(samePlace == bestSamePlace && distance < bestDistance) ||
			// Prioritize lower seeded alternatives
			(samePlace == bestSamePlace && distance == bestDistance && candidate.seed > slots[best].seed)

		if better {
			best = candidateIndex
			bestSamePlace = samePlace
			bestDistance = distance
		}
	}

	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
