package beachtennis

import (
	"errors"
	"fmt"

	"github.com/ezBadminton/gobeachtennis/core"
)

var (
	ErrGamesZero = errors.New("games per set are zero or less")
	ErrSetsZero  = errors.New("winning sets are zero or less")

	ErrUndeterminedSet = errors.New("a set has equal games")
	ErrTooManySets     = errors.New("too many sets")
	ErrTooFewSets      = errors.New("too few sets")
	ErrNegativeGames   = errors.New("negative games")
	ErrTooManyGames    = errors.New("games exceed what a set allows")
	ErrTooFewGames     = errors.New("set winner games are less than the games per set")
	ErrInvalidMargin   = errors.New("the winning game margin is invalid")
	ErrUnneededSets    = errors.New("score contains unneeded extra sets")
	ErrSetWins         = errors.New("the winner did not win the required number of sets")
)

// A beach tennis score format. A set is won with GamesPerSet games
// and a margin of two. At GamesPerSet-1 all the set can go to
// GamesPerSet+1 and with a tie-break a set at GamesPerSet all is
// decided GamesPerSet+1 to GamesPerSet.
type Format struct {
	GamesPerSet int
	SetsToWin   int
	Tiebreak    bool
}

// The usual format of one set to 6 games with a tie-break at 6-6
var Standard = Format{GamesPerSet: 6, SetsToWin: 1, Tiebreak: true}

func NewFormat(gamesPerSet, setsToWin int, tiebreak bool) (Format, error) {
	format := Format{gamesPerSet, setsToWin, tiebreak}

	if gamesPerSet <= 0 {
		return format, ErrGamesZero
	}
	if setsToWin <= 0 {
		return format, ErrSetsZero
	}

	return format, nil
}

// Validates a result against the format.
//
// Without per-set detail a single set format expects the games of
// that set as the scores. Formats with more sets expect the number
// of sets won.
//
// The returned errors match core.ErrInvalidScore.
func (f Format) ValidateResult(result core.Result) error {
	if err := result.Consistent(); err != nil {
		return err
	}

	var err error
	switch {
	case len(result.Sets) > 0:
		err = f.validateSets(result.Sets)
	case f.SetsToWin == 1:
		err = f.validateSet(result.Score1, result.Score2)
	default:
		w := max(result.Score1, result.Score2)
		l := min(result.Score1, result.Score2)
		if w != f.SetsToWin || l >= f.SetsToWin {
			err = fmt.Errorf("%w: %v-%v in sets", ErrSetWins, result.Score1, result.Score2)
		}
	}

	if err != nil {
		return errors.Join(core.ErrInvalidScore, err)
	}
	return nil
}

func (f Format) validateSets(sets []core.SetScore) error {
	switch {
	case len(sets) < f.SetsToWin:
		return ErrTooFewSets
	case len(sets) >= 2*f.SetsToWin:
		return ErrTooManySets
	}

	setWins1, setWins2 := 0, 0
	for _, set := range sets {
		if setWins1 == f.SetsToWin || setWins2 == f.SetsToWin {
			return ErrUnneededSets
		}
		if err := f.validateSet(set.Games1, set.Games2); err != nil {
			return err
		}
		if set.Games1 > set.Games2 {
			setWins1 += 1
		} else {
			setWins2 += 1
		}
	}

	if setWins1 != f.SetsToWin && setWins2 != f.SetsToWin {
		return ErrSetWins
	}

	return nil
}

func (f Format) validateSet(games1, games2 int) error {
	w := max(games1, games2)
	l := min(games1, games2)

	switch {
	case w == l:
		return ErrUndeterminedSet
	case l < 0:
		return ErrNegativeGames
	case w < f.GamesPerSet:
		return ErrTooFewGames
	case w > f.GamesPerSet+1:
		return ErrTooManyGames
	case w == f.GamesPerSet && w-l < 2:
		return fmt.Errorf("%w: %v-%v", ErrInvalidMargin, w, l)
	case w == f.GamesPerSet+1 && l == f.GamesPerSet && !f.Tiebreak:
		return fmt.Errorf("%w: %v-%v without tie-break", ErrInvalidMargin, w, l)
	case w == f.GamesPerSet+1 && l < f.GamesPerSet-1:
		return fmt.Errorf("%w: %v-%v", ErrInvalidMargin, w, l)
	}

	return nil
}
