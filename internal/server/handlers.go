package server

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/ezBadminton/gobeachtennis/core"
	"github.com/ezBadminton/gobeachtennis/internal/service"
	"github.com/go-chi/chi/v5"
)

type createGroupStageRequest struct {
	// Teams in seeding order, each given by its participant ids
	Teams     [][]string `json:"teams" validate:"min=2,dive,min=1,dive,required"`
	NumGroups int        `json:"numGroups" validate:"min=1"`
}

func (s *Server) createGroupStage(w http.ResponseWriter, r *http.Request) {
	tournamentId := chi.URLParam(r, "id")

	var input createGroupStageRequest
	if !s.decode(w, r, &input) {
		return
	}

	teams := make([]core.Team, 0, len(input.Teams))
	for _, participants := range input.Teams {
		team, err := core.NewTeam(participants...)
		if err != nil {
			s.mapErrorToHTTP(w, r, err)
			return
		}
		teams = append(teams, team)
	}

	groups, matches, err := s.progression.CreateGroupStage(r.Context(), tournamentId, teams, input.NumGroups)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, jsonResponse{"groups": groups, "matches": matches})
}

func (s *Server) groupRankings(w http.ResponseWriter, r *http.Request) {
	tournamentId := chi.URLParam(r, "id")

	rankings, err := s.progression.GroupRankings(r.Context(), tournamentId)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	sorted := make([]*core.GroupRanking, 0, len(rankings))
	for _, ranking := range rankings {
		sorted = append(sorted, ranking)
	}
	slices.SortFunc(sorted, func(a, b *core.GroupRanking) int { return cmp.Compare(a.Group, b.Group) })

	s.writeJSON(w, r, http.StatusOK, jsonResponse{"rankings": sorted})
}

type startEliminationRequest struct {
	QualifiersPerGroup       *int  `json:"qualifiersPerGroup" validate:"omitempty,min=1"`
	AvoidSameGroupFirstRound *bool `json:"avoidSameGroupFirstRound"`
}

func (s *Server) startElimination(w http.ResponseWriter, r *http.Request) {
	tournamentId := chi.URLParam(r, "id")

	var input startEliminationRequest
	if r.ContentLength != 0 && !s.decode(w, r, &input) {
		return
	}

	opts := service.StartOptions{
		QualifiersPerGroup:       input.QualifiersPerGroup,
		AvoidSameGroupFirstRound: input.AvoidSameGroupFirstRound,
	}
	bracket, err := s.progression.StartElimination(r.Context(), tournamentId, opts)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, bracket)
}

func (s *Server) getBracket(w http.ResponseWriter, r *http.Request) {
	tournamentId := chi.URLParam(r, "id")

	bracket, err := s.progression.Bracket(r.Context(), tournamentId)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, bracket)
}

func (s *Server) resetElimination(w http.ResponseWriter, r *http.Request) {
	tournamentId := chi.URLParam(r, "id")

	deleted, err := s.progression.ResetElimination(r.Context(), tournamentId)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, jsonResponse{"deleted": deleted})
}

type setScoreRequest struct {
	Games1 *int `json:"games1" validate:"required,min=0"`
	Games2 *int `json:"games2" validate:"required,min=0"`
}

type recordResultRequest struct {
	Score1 *int              `json:"score1" validate:"required,min=0"`
	Score2 *int              `json:"score2" validate:"required,min=0"`
	Sets   []setScoreRequest `json:"sets" validate:"omitempty,dive"`
}

func (s *Server) recordResult(w http.ResponseWriter, r *http.Request) {
	matchId := chi.URLParam(r, "id")

	var input recordResultRequest
	if !s.decode(w, r, &input) {
		return
	}

	result := core.Result{Score1: *input.Score1, Score2: *input.Score2}
	for _, set := range input.Sets {
		result.Sets = append(result.Sets, core.SetScore{Games1: *set.Games1, Games2: *set.Games2})
	}

	update, err := s.progression.RecordResult(r.Context(), matchId, result)
	if err != nil {
		s.mapErrorToHTTP(w, r, err)
		return
	}

	cascaded := update.Cascaded
	if cascaded == nil {
		cascaded = make([]*core.Match, 0)
	}
	s.writeJSON(w, r, http.StatusOK, jsonResponse{"match": update.Match, "cascaded": cascaded})
}
