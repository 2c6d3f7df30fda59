package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ezBadminton/gobeachtennis/core"
)

// Opens a fresh in-memory database that is private to the test
func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTeams(num int) []core.Team {
	teams := make([]core.Team, 0, num)
	for i := range num {
		teams = append(teams, core.MustTeam(fmt.Sprintf("p%d-a", i), fmt.Sprintf("p%d-b", i)))
	}
	return teams
}

func TestSaveAndLoadBracket(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	qualifiers := core.UngroupedQualifiers(testTeams(5))
	bracket, err := core.GenerateEliminationBracket("t1", qualifiers, core.BracketOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.SaveMatches(ctx, bracket.Matches...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stage := core.StageElimination
	loaded, err := s.ListMatches(ctx, "t1", Filter{Stage: &stage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != len(bracket.Matches) {
		t.Fatal("Not all saved matches were loaded")
	}

	restored, err := core.NewBracket(loaded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, m := range bracket.Matches {
		r, ok := restored.MatchById(m.Id)
		if !ok {
			t.Fatal("A match is missing from the restored bracket")
		}
		eq1 := r.Key() == m.Key() && r.State == m.State && r.Bye == m.Bye
		eq2 := r.Team1.Equal(m.Team1) && r.Team2.Equal(m.Team2) && r.WinnerSide == m.WinnerSide
		if !eq1 || !eq2 {
			t.Fatalf("Match %v did not survive the round trip", m.Key())
		}
	}
}

func TestSaveMatchesUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	teams := testTeams(2)

	match := core.NewGroupMatch("t1", 1, teams[0], teams[1])
	if err := s.SaveMatches(ctx, match); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := core.Result{Score1: 2, Score2: 1, Sets: []core.SetScore{{6, 3}, {4, 6}, {7, 6}}}
	update, err := core.RecordMatchResult(match, nil, result, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveMatches(ctx, update.Changed()...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.GetMatch(ctx, match.Id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	winner, ok := loaded.Winner()
	if !ok || !winner.Equal(teams[0]) || !loaded.Completed() {
		t.Fatal("The recorded result was not stored")
	}
	if len(loaded.Sets) != 3 || loaded.Sets[2].Games2 != 6 {
		t.Fatal("The per-set detail was not stored")
	}
	if *loaded.Score1 != 2 || *loaded.Score2 != 1 {
		t.Fatal("The scores were not stored")
	}
}

func TestFilterAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	teams := testTeams(4)

	groupMatches := core.GenerateGroupMatches("t1", [][]core.Team{teams[:2], teams[2:]})
	other := core.GenerateGroupMatches("t2", [][]core.Team{teams})
	bracket, _ := core.GenerateEliminationBracket("t1", core.UngroupedQualifiers(teams), core.BracketOptions{})

	for _, matches := range [][]*core.Match{groupMatches, other, bracket.Matches} {
		if err := s.SaveMatches(ctx, matches...); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	group := 2
	stage := core.StageGroup
	inGroup, err := s.ListMatches(ctx, "t1", Filter{Stage: &stage, Group: &group})
	if err != nil || len(inGroup) != 1 || inGroup[0].Group != 2 {
		t.Fatal("The group filter did not select the matches of the group")
	}

	all, _ := s.ListMatches(ctx, "t1", Filter{})
	if len(all) != len(groupMatches)+len(bracket.Matches) {
		t.Fatal("The matches of another tournament were listed")
	}

	deleted, err := s.DeleteMatches(ctx, "t1", core.StageElimination)
	if err != nil || deleted != int64(len(bracket.Matches)) {
		t.Fatal("The elimination matches were not deleted")
	}

	all, _ = s.ListMatches(ctx, "t1", Filter{})
	if len(all) != len(groupMatches) {
		t.Fatal("Deleting the elimination stage removed group matches")
	}
}

func TestGetMissingMatch(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetMatch(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("A missing match did not return ErrNotFound")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "")
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatal("An unknown driver did not error")
	}
}
