package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMatchNotReady   = errors.New("match does not have two teams yet")
	ErrMatchCompleted  = errors.New("match already has a different result")
	ErrNoWinner        = errors.New("completed match has no winner")
	ErrWinnerSlotEmpty = errors.New("winner slot of the match is not occupied")
	ErrScoreMissing    = errors.New("completed match is missing a score")
)

type Stage int

const (
	StageGroup Stage = iota
	StageElimination
)

func (s Stage) String() string {
	if s == StageElimination {
		return "ELIMINATION"
	}
	return "GROUP"
}

func ParseStage(s string) (Stage, error) {
	switch strings.ToUpper(s) {
	case "GROUP":
		return StageGroup, nil
	case "ELIMINATION":
		return StageElimination, nil
	}
	return StageGroup, fmt.Errorf("unknown stage %q", s)
}

// The lifecycle state of a match.
//
//	PENDING -> READY -> COMPLETED
//
// VOID is terminal for elimination matches that can never
// receive a team because both feeding branches are empty.
type MatchState int

const (
	StatePending MatchState = iota
	StateReady
	StateCompleted
	StateVoid
)

func (s MatchState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateCompleted:
		return "COMPLETED"
	case StateVoid:
		return "VOID"
	default:
		return "PENDING"
	}
}

func ParseMatchState(s string) (MatchState, error) {
	switch strings.ToUpper(s) {
	case "PENDING":
		return StatePending, nil
	case "READY":
		return StateReady, nil
	case "COMPLETED":
		return StateCompleted, nil
	case "VOID":
		return StateVoid, nil
	}
	return StatePending, fmt.Errorf("unknown match state %q", s)
}

// Games of both teams in one set
type SetScore struct {
	Games1 int `json:"games1"`
	Games2 int `json:"games2"`
}

// A Match between the teams in its two slots.
//
// Group matches are identified by their Group number, elimination
// matches by Round (1 = earliest) and Position (1-indexed, left to right).
type Match struct {
	Id           string
	TournamentId string
	Stage        Stage

	Group    int
	Round    int
	Position int

	Team1 Slot
	Team2 Slot

	// Final scores. In single set formats these are the games,
	// otherwise the sets won. Nil when no result exists.
	Score1 *int
	Score2 *int

	// Optional per-set detail of the result
	Sets []SetScore

	WinnerSide Side
	State      MatchState

	// Set when the match was completed because the opposing
	// branch of the bracket produced no team
	Walkover bool

	// Set when a first round match was completed because
	// no opponent was drawn
	Bye bool
}

func (m *Match) Slot(side Side) Slot {
	switch side {
	case Side1:
		return m.Team1
	case Side2:
		return m.Team2
	}
	panic("match slot requested for no side")
}

func (m *Match) setSlot(side Side, slot Slot) {
	switch side {
	case Side1:
		m.Team1 = slot
	case Side2:
		m.Team2 = slot
	default:
		panic("match slot set for no side")
	}
	m.refreshState()
}

func (m *Match) Completed() bool {
	return m.State == StateCompleted
}

// Returns the winning team of a completed match
func (m *Match) Winner() (Team, bool) {
	if !m.Completed() || m.WinnerSide == NoSide {
		return Team{}, false
	}
	slot := m.Slot(m.WinnerSide)
	if !slot.IsResolved() {
		return Team{}, false
	}
	return slot.Team, true
}

// Returns the losing team of a completed match. Byes and
// walkovers have no loser.
func (m *Match) Loser() (Team, bool) {
	if !m.Completed() || m.WinnerSide == NoSide {
		return Team{}, false
	}
	slot := m.Slot(m.WinnerSide.Other())
	if !slot.IsResolved() {
		return Team{}, false
	}
	return slot.Team, true
}

// Returns true when the match was decided without being played
func (m *Match) Unplayed() bool {
	return m.Walkover || m.Bye
}

// Returns the side of the given team or NoSide
func (m *Match) SideOf(team Team) Side {
	if m.Team1.Holds(team) {
		return Side1
	}
	if m.Team2.Holds(team) {
		return Side2
	}
	return NoSide
}

// Updates READY/PENDING after a slot change.
// Terminal states are left alone.
func (m *Match) refreshState() {
	if m.State == StateCompleted || m.State == StateVoid {
		return
	}
	if m.Team1.IsResolved() && m.Team2.IsResolved() {
		m.State = StateReady
	} else {
		m.State = StatePending
	}
}

func (m *Match) complete(winner Side, score1, score2 int) {
	m.Score1 = &score1
	m.Score2 = &score2
	m.WinnerSide = winner
	m.State = StateCompleted
}

// Completes the match for the only team in it. The score is
// conventionally 1-0 for the advancing team.
func (m *Match) completeUnopposed(winner Side) {
	if winner == Side1 {
		m.complete(winner, 1, 0)
	} else {
		m.complete(winner, 0, 1)
	}
}

func (m *Match) markVoid() {
	m.Score1 = nil
	m.Score2 = nil
	m.WinnerSide = NoSide
	m.State = StateVoid
}

// Checks the invariants of the match state
func (m *Match) Validate() error {
	if m.State != StateCompleted {
		if m.WinnerSide != NoSide {
			return fmt.Errorf("match %v: winner on a %v match", m.Id, m.State)
		}
		return nil
	}

	if m.WinnerSide == NoSide {
		return fmt.Errorf("match %v: %w", m.Id, ErrNoWinner)
	}
	if !m.Slot(m.WinnerSide).IsResolved() {
		return fmt.Errorf("match %v: %w", m.Id, ErrWinnerSlotEmpty)
	}
	if m.Score1 == nil || m.Score2 == nil {
		return fmt.Errorf("match %v: %w", m.Id, ErrScoreMissing)
	}
	if !m.Unplayed() && *m.Score1 == *m.Score2 {
		return fmt.Errorf("match %v: %w", m.Id, ErrDraw)
	}

	return nil
}

func (m *Match) Clone() *Match {
	clone := *m
	if m.Score1 != nil {
		s := *m.Score1
		clone.Score1 = &s
	}
	if m.Score2 != nil {
		s := *m.Score2
		clone.Score2 = &s
	}
	clone.Sets = slices.Clone(m.Sets)
	return &clone
}

func (m *Match) String() string {
	var sb strings.Builder
	if m.Stage == StageElimination {
		sb.WriteString(fmt.Sprintf("R%dM%d ", m.Round, m.Position))
	} else {
		sb.WriteString(fmt.Sprintf("G%d ", m.Group))
	}
	sb.WriteString(slotString(m.Team1))
	sb.WriteString(" vs. ")
	sb.WriteString(slotString(m.Team2))

	if m.Score1 != nil && m.Score2 != nil {
		sb.WriteString(fmt.Sprintf("\t%v - %v", *m.Score1, *m.Score2))
	}
	if m.Bye {
		sb.WriteString(" (bye)")
	}
	if m.Walkover {
		sb.WriteString(" (w/o)")
	}

	return sb.String()
}

func slotString(slot Slot) string {
	switch slot.Kind {
	case SlotResolved:
		return slot.Team.Key()
	case SlotPlaceholder:
		return "[Pending]"
	default:
		return "[Empty]"
	}
}

func NewMatchId() string {
	return uuid.NewString()
}

// Creates a group stage match between two teams
func NewGroupMatch(tournamentId string, group int, team1, team2 Team) *Match {
	match := &Match{
		Id:           NewMatchId(),
		TournamentId: tournamentId,
		Stage:        StageGroup,
		Group:        group,
		Team1:        ResolvedSlot(team1),
		Team2:        ResolvedSlot(team2),
	}
	match.refreshState()
	return match
}

func newEliminationMatch(tournamentId string, round, position int) *Match {
	return &Match{
		Id:           NewMatchId(),
		TournamentId: tournamentId,
		Stage:        StageElimination,
		Round:        round,
		Position:     position,
	}
}
