package store

import (
	"fmt"
	"time"

	"github.com/ezBadminton/gobeachtennis/core"
)

// The persisted form of a core.Match. Teams are stored by their key.
type matchRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	TournamentID string `gorm:"size:64;not null;index:idx_matches_tournament_stage"`
	Stage        string `gorm:"size:16;not null;index:idx_matches_tournament_stage"`
	GroupNumber  int
	Round        int
	Position     int

	Team1Kind   string `gorm:"size:16;not null"`
	Team1       string
	Team1Source string `gorm:"size:36"`
	Team2Kind   string `gorm:"size:16;not null"`
	Team2       string
	Team2Source string `gorm:"size:36"`

	Score1     *int
	Score2     *int
	Sets       []core.SetScore `gorm:"serializer:json"`
	WinnerSide string          `gorm:"size:8"`
	State      string          `gorm:"size:16;not null"`
	Walkover   bool
	Bye        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (matchRecord) TableName() string {
	return "matches"
}

func toRecord(m *core.Match) *matchRecord {
	r := &matchRecord{
		ID:           m.Id,
		TournamentID: m.TournamentId,
		Stage:        m.Stage.String(),
		GroupNumber:  m.Group,
		Round:        m.Round,
		Position:     m.Position,
		Score1:       m.Score1,
		Score2:       m.Score2,
		Sets:         m.Sets,
		WinnerSide:   m.WinnerSide.String(),
		State:        m.State.String(),
		Walkover:     m.Walkover,
		Bye:          m.Bye,
	}
	r.Team1Kind, r.Team1, r.Team1Source = slotColumns(m.Team1)
	r.Team2Kind, r.Team2, r.Team2Source = slotColumns(m.Team2)
	return r
}

func slotColumns(s core.Slot) (kind, team, source string) {
	if s.IsResolved() {
		team = s.Team.Key()
	}
	return s.Kind.String(), team, s.Source
}

func parseSlot(kind, team, source string) (core.Slot, error) {
	k, err := core.ParseSlotKind(kind)
	if err != nil {
		return core.Slot{}, err
	}
	slot := core.Slot{Kind: k, Source: source}
	if k == core.SlotResolved {
		slot.Team, err = core.ParseTeam(team)
		if err != nil {
			return core.Slot{}, err
		}
	}
	return slot, nil
}

func (r *matchRecord) toMatch() (*core.Match, error) {
	stage, err := core.ParseStage(r.Stage)
	if err != nil {
		return nil, fmt.Errorf("match %v: %w", r.ID, err)
	}
	state, err := core.ParseMatchState(r.State)
	if err != nil {
		return nil, fmt.Errorf("match %v: %w", r.ID, err)
	}
	team1, err := parseSlot(r.Team1Kind, r.Team1, r.Team1Source)
	if err != nil {
		return nil, fmt.Errorf("match %v team1: %w", r.ID, err)
	}
	team2, err := parseSlot(r.Team2Kind, r.Team2, r.Team2Source)
	if err != nil {
		return nil, fmt.Errorf("match %v team2: %w", r.ID, err)
	}

	m := &core.Match{
		Id:           r.ID,
		TournamentId: r.TournamentID,
		Stage:        stage,
		Group:        r.GroupNumber,
		Round:        r.Round,
		Position:     r.Position,
		Team1:        team1,
		Team2:        team2,
		Score1:       r.Score1,
		Score2:       r.Score2,
		Sets:         r.Sets,
		WinnerSide:   core.ParseSide(r.WinnerSide),
		State:        state,
		Walkover:     r.Walkover,
		Bye:          r.Bye,
	}
	return m, nil
}
