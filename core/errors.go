package core

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var (
	// A proposed result is not legal for the score format
	ErrInvalidScore = errors.New("invalid score")
	// Draws are not possible in beach tennis
	ErrDraw = errors.New("equal scores are not allowed")

	// Fewer than 2 teams are available for an elimination stage
	ErrInsufficientParticipants = errors.New("insufficient participants: at least 2 teams are required")

	// The (round, position) of the following match does not exist
	// in the bracket. The bracket structure is corrupt.
	ErrMissingNextMatch = errors.New("missing next match")

	// Warning: the bracket size exceeds the seeding table and
	// the qualifiers were placed in natural order
	ErrSeedingDegraded = errors.New("seeding degraded to natural order")

	// Warning: no swap was found to keep two teams of the same
	// group apart in the first round
	ErrRematchUnavoidable = errors.New("same-group first round match is unavoidable")

	// A winner would overwrite a different team in a match
	// that already has a result
	ErrSlotConflict = errors.New("slot already holds a different team of a completed match")

	ErrMalformedBracket = errors.New("malformed bracket")
)

var log logrus.FieldLogger = logrus.StandardLogger()

// Replaces the logger that the engine reports warnings to
func SetLogger(logger logrus.FieldLogger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log = logger
}
