package core

import (
	"errors"
	"testing"
)

func record(t *testing.T, bracket *Bracket, round, position, score1, score2 int) *ResultUpdate {
	t.Helper()
	match, ok := bracket.Match(round, position)
	if !ok {
		t.Fatalf("Match R%dM%d does not exist", round, position)
	}
	update, err := RecordMatchResult(match, bracket, Result{Score1: score1, Score2: score2}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return update
}

func TestPlayBracketToChampion(t *testing.T) {
	teams := TeamSlice(4)
	bracket := generate(t, UngroupedQualifiers(teams), false)

	// Seeds 1 vs 4 and 3 vs 2
	update := record(t, bracket, 1, 1, 6, 3)

	final, _ := update.Bracket.Final()
	if !final.Team1.Holds(teams[0]) || final.State != StatePending {
		t.Fatal("The winner did not move into the final")
	}
	if len(update.Cascaded) != 1 || update.Cascaded[0] != final {
		t.Fatal("The final was not reported as changed")
	}

	oldFinal, _ := bracket.Final()
	if !oldFinal.Team1.IsPlaceholder() {
		t.Fatal("Recording a result changed the given bracket")
	}
	oldMatch, _ := bracket.Match(1, 1)
	if oldMatch.Completed() {
		t.Fatal("Recording a result changed the given match")
	}

	bracket = update.Bracket
	update = record(t, bracket, 1, 2, 2, 6)
	bracket = update.Bracket

	final, _ = bracket.Final()
	if !final.Team2.Holds(teams[1]) || final.State != StateReady {
		t.Fatal("The final is not ready after both semi-finals")
	}
	if _, ok := bracket.Champion(); ok {
		t.Fatal("The bracket has a champion before the final")
	}

	update = record(t, bracket, 2, 1, 4, 6)
	if len(update.Cascaded) != 0 {
		t.Fatal("The final cascaded")
	}

	champion, ok := update.Bracket.Champion()
	if !ok || !champion.Equal(teams[1]) {
		t.Fatal("The winner of the final is not the champion")
	}
}

func TestAdvanceIdempotence(t *testing.T) {
	teams := TeamSlice(4)
	bracket := generate(t, UngroupedQualifiers(teams), false)
	bracket = record(t, bracket, 1, 1, 6, 3).Bracket

	match, _ := bracket.Match(1, 1)
	touched, err := bracket.Advance(match)
	if err != nil || len(touched) != 0 {
		t.Fatal("Advancing the same match again changed the bracket")
	}

	again := record(t, bracket, 1, 1, 6, 3)
	if len(again.Cascaded) != 0 {
		t.Fatal("Recording the same result again changed other matches")
	}
	final, _ := again.Bracket.Final()
	if !final.Team1.Holds(teams[0]) {
		t.Fatal("Recording the same result again lost the advanced team")
	}

	_, err = RecordMatchResult(match, bracket, Result{Score1: 3, Score2: 6}, nil)
	if !errors.Is(err, ErrMatchCompleted) {
		t.Fatal("A different result overwrote a completed elimination match")
	}
}

func TestRecordResultErrors(t *testing.T) {
	bracket := generate(t, UngroupedQualifiers(TeamSlice(4)), false)

	final, _ := bracket.Final()
	_, err := RecordMatchResult(final, bracket, Result{Score1: 6, Score2: 2}, nil)
	if !errors.Is(err, ErrMatchNotReady) {
		t.Fatal("A result for a match without both teams was accepted")
	}

	match, _ := bracket.Match(1, 1)
	_, err = RecordMatchResult(match, bracket, Result{Score1: 6, Score2: 6}, nil)
	if !errors.Is(err, ErrInvalidScore) {
		t.Fatal("A drawn elimination result was accepted")
	}
	if match.Completed() {
		t.Fatal("A rejected result changed the match")
	}

	_, err = RecordMatchResult(match, nil, Result{Score1: 6, Score2: 2}, nil)
	if !errors.Is(err, ErrMalformedBracket) {
		t.Fatal("An elimination result without the bracket was accepted")
	}

	other := generate(t, UngroupedQualifiers(TeamSlice(4)), false)
	_, err = RecordMatchResult(match, other, Result{Score1: 6, Score2: 2}, nil)
	if !errors.Is(err, ErrMalformedBracket) {
		t.Fatal("A result with the bracket of another match was accepted")
	}
}

type rejectAll struct{}

func (rejectAll) ValidateResult(Result) error {
	return errors.New("no results today")
}

func TestScoreRulesAreApplied(t *testing.T) {
	bracket := generate(t, UngroupedQualifiers(TeamSlice(2)), false)
	final, _ := bracket.Final()

	_, err := RecordMatchResult(final, bracket, Result{Score1: 6, Score2: 2}, rejectAll{})
	if !errors.Is(err, ErrInvalidScore) {
		t.Fatal("An error of the score rules is not an invalid score")
	}
}

func TestMissingNextMatch(t *testing.T) {
	bracket := generate(t, UngroupedQualifiers(TeamSlice(8)), false)

	snapshot := make([]*Match, 0, len(bracket.Matches))
	for _, m := range bracket.Clone().Matches {
		if m.Round == 2 && m.Position == 1 {
			continue
		}
		snapshot = append(snapshot, m)
	}

	incomplete, err := NewBracket(snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match, _ := incomplete.Match(1, 1)
	_, err = RecordMatchResult(match, incomplete, Result{Score1: 6, Score2: 1}, nil)
	if !errors.Is(err, ErrMissingNextMatch) {
		t.Fatal("Advancing into a missing match did not error")
	}
	if match.Completed() {
		t.Fatal("The failed result was partially applied")
	}
}

// Builds a bracket of 8 by hand where the second first round
// match has no teams at all
func TestWalkoverCascade(t *testing.T) {
	teams := TeamSlice(5)
	a, b, c, d, e := teams[0], teams[1], teams[2], teams[3], teams[4]

	r1 := make([]*Match, 4)
	for i := range r1 {
		r1[i] = newEliminationMatch("test", 1, i+1)
	}
	r1[0].setSlot(Side1, ResolvedSlot(a))
	r1[2].setSlot(Side1, ResolvedSlot(b))
	r1[2].setSlot(Side2, ResolvedSlot(c))
	r1[3].setSlot(Side1, ResolvedSlot(d))
	r1[3].setSlot(Side2, ResolvedSlot(e))

	r2 := make([]*Match, 2)
	for i := range r2 {
		r2[i] = newEliminationMatch("test", 2, i+1)
		r2[i].setSlot(Side1, PlaceholderSlot(r1[2*i].Id))
		r2[i].setSlot(Side2, PlaceholderSlot(r1[2*i+1].Id))
	}
	final := newEliminationMatch("test", 3, 1)
	final.setSlot(Side1, PlaceholderSlot(r2[0].Id))
	final.setSlot(Side2, PlaceholderSlot(r2[1].Id))

	matches := append(append(r1, r2...), final)
	bracket, err := NewBracket(matches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolveFirstRoundMatch(r1[0])
	touched, err := bracket.Advance(r1[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(touched) != 1 || !r2[0].Team1.Holds(a) || r2[0].State != StatePending {
		t.Fatal("The bye winner did not wait for the opponent")
	}

	// The opposing branch ends without a team
	resolveFirstRoundMatch(r1[1])
	if r1[1].State != StateVoid {
		t.Fatal("A first round match without teams is not void")
	}

	touched, err = bracket.Advance(r1[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	winner, ok := r2[0].Winner()
	if !r2[0].Walkover || !ok || !winner.Equal(a) {
		t.Fatal("The match with one team left was not completed as walkover")
	}
	if !final.Team1.Holds(a) {
		t.Fatal("The walkover winner did not move on")
	}
	if len(touched) != 2 {
		t.Fatal("The cascaded matches were not all reported")
	}

	// The walkover counts as a win for the advancing team
	// but carries no games
	if *r2[0].Score1 != 1 || *r2[0].Score2 != 0 {
		t.Fatal("The walkover does not have the conventional score")
	}

	touched, err = bracket.Advance(r1[1])
	if err != nil || len(touched) != 0 {
		t.Fatal("Advancing the void match again changed the bracket")
	}

	update := record(t, bracket, 1, 3, 6, 4)
	if !update.Bracket.Round(2)[1].Team1.Holds(b) {
		t.Fatal("A regular result did not advance next to the walkover")
	}
}
