package core

import (
	"encoding/json"
)

func marshalSlot(slot Slot) map[string]any {
	result := map[string]any{
		"kind": slot.Kind.String(),
	}
	if slot.IsResolved() {
		result["team"] = slot.Team.Key()
	}
	if slot.Source != "" {
		result["source"] = slot.Source
	}
	return result
}

func marshalMatch(match *Match) map[string]any {
	var winnerSlot any
	if match.WinnerSide != NoSide {
		winnerSlot = match.WinnerSide.String()
	}
	sets := match.Sets
	if sets == nil {
		sets = make([]SetScore, 0)
	}

	result := map[string]any{
		"id":           match.Id,
		"tournamentId": match.TournamentId,
		"stage":        match.Stage.String(),
		"team1":        marshalSlot(match.Team1),
		"team2":        marshalSlot(match.Team2),
		"score1":       match.Score1,
		"score2":       match.Score2,
		"sets":         sets,
		"winnerSlot":   winnerSlot,
		"state":        match.State.String(),
		"completed":    match.Completed(),
		"walkover":     match.Walkover,
		"bye":          match.Bye,
	}

	if match.Stage == StageGroup {
		result["group"] = match.Group
	} else {
		result["round"] = match.Round
		result["position"] = match.Position
	}

	return result
}

func marshalBracket(bracket *Bracket) map[string]any {
	rounds := make([][]map[string]any, bracket.NumRounds)
	for i := range bracket.NumRounds {
		roundMatches := bracket.Round(i + 1)
		marshalled := make([]map[string]any, len(roundMatches))
		for j, m := range roundMatches {
			marshalled[j] = marshalMatch(m)
		}
		rounds[i] = marshalled
	}

	warnings := make([]string, len(bracket.Warnings))
	for i, w := range bracket.Warnings {
		warnings[i] = w.Error()
	}

	var champion any
	if team, ok := bracket.Champion(); ok {
		champion = team.Key()
	}

	result := map[string]any{
		"tournamentId": bracket.TournamentId,
		"size":         bracket.Size,
		"rounds":       rounds,
		"champion":     champion,
		"warnings":     warnings,
	}

	return result
}

func (t Team) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.key)
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return err
	}
	team, err := ParseTeam(key)
	if err != nil {
		return err
	}
	*t = team
	return nil
}

func (m *Match) MarshalJSON() ([]byte, error) {
	anymap := marshalMatch(m)
	return json.Marshal(anymap)
}

func (b *Bracket) MarshalJSON() ([]byte, error) {
	anymap := marshalBracket(b)
	return json.Marshal(anymap)
}
