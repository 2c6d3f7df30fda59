package core

// The statistics of one team over the completed matches of
// its group. They are always derived from the match history
// and never stored as a source of truth.
type GroupTeamStats struct {
	MatchesPlayed int `json:"matchesPlayed"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`

	SetsWon  int `json:"setsWon"`
	SetsLost int `json:"setsLost"`

	GamesWon       int `json:"gamesWon"`
	GamesLost      int `json:"gamesLost"`
	GameDifference int `json:"gameDifference"`

	// Opponent team key -> true when this team beat the opponent
	HeadToHead map[string]bool `json:"headToHead"`
}

func newGroupTeamStats() *GroupTeamStats {
	return &GroupTeamStats{HeadToHead: make(map[string]bool)}
}

func (s *GroupTeamStats) Beat(opponent Team) bool {
	return s.HeadToHead[opponent.Key()]
}

// Number of teams out of the given ones that this team beat
func (s *GroupTeamStats) WinsAgainst(teams []Team) int {
	wins := 0
	for _, t := range teams {
		if s.Beat(t) {
			wins += 1
		}
	}
	return wins
}

func (s *GroupTeamStats) SetRatio() ratio {
	return ratio{s.SetsWon, s.SetsWon + s.SetsLost}
}

func (s *GroupTeamStats) GameRatio() ratio {
	return ratio{s.GamesWon, s.GamesWon + s.GamesLost}
}

func (s *GroupTeamStats) updateDifferences() {
	s.GameDifference = s.GamesWon - s.GamesLost
}

// Collects the stats of every team that took part in at least one
// completed match. The teams are returned in order of appearance.
func createGroupStats(matches []*Match) (map[string]*GroupTeamStats, []Team) {
	stats := make(map[string]*GroupTeamStats)
	teams := make([]Team, 0, 8)

	statsOf := func(team Team) *GroupTeamStats {
		s, ok := stats[team.Key()]
		if !ok {
			s = newGroupTeamStats()
			stats[team.Key()] = s
			teams = append(teams, team)
		}
		return s
	}

	for _, match := range matches {
		winner, ok := match.Winner()
		if !ok {
			continue
		}
		loser, ok := match.Loser()
		if !ok {
			continue
		}

		w := statsOf(winner)
		l := statsOf(loser)

		w.Wins += 1
		l.Losses += 1
		w.HeadToHead[loser.Key()] = true

		if match.Unplayed() {
			// A walkover carries no real scoring
			continue
		}

		w.MatchesPlayed += 1
		l.MatchesPlayed += 1

		winnerGames, loserGames := match.sidedSets(match.WinnerSide)
		for i := range winnerGames {
			gw, gl := winnerGames[i], loserGames[i]

			w.GamesWon += gw
			w.GamesLost += gl
			l.GamesWon += gl
			l.GamesLost += gw

			switch {
			case gw > gl:
				w.SetsWon += 1
				l.SetsLost += 1
			case gl > gw:
				l.SetsWon += 1
				w.SetsLost += 1
			}
		}
	}

	for _, s := range stats {
		s.updateDifferences()
	}

	return stats, teams
}

// Returns the games per set from the perspective of the given side.
// Without per-set detail the final scores count as one set.
func (m *Match) sidedSets(side Side) ([]int, []int) {
	var games1, games2 []int
	if len(m.Sets) > 0 {
		games1 = make([]int, 0, len(m.Sets))
		games2 = make([]int, 0, len(m.Sets))
		for _, set := range m.Sets {
			games1 = append(games1, set.Games1)
			games2 = append(games2, set.Games2)
		}
	} else if m.Score1 != nil && m.Score2 != nil {
		games1 = []int{*m.Score1}
		games2 = []int{*m.Score2}
	}

	if side == Side2 {
		return games2, games1
	}
	return games1, games2
}

// A non-negative fraction that compares exactly.
// A zero denominator counts as 0.
type ratio struct {
	num, den int
}

func (r ratio) Float() float64 {
	if r.den == 0 {
		return 0
	}
	return float64(r.num) / float64(r.den)
}

func (r ratio) Compare(other ratio) int {
	a, b := r.num, r.den
	c, d := other.num, other.den
	if b == 0 {
		a, b = 0, 1
	}
	if d == 0 {
		c, d = 0, 1
	}
	left, right := a*d, c*b
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	}
	return 0
}
