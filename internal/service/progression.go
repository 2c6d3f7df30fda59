package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ezBadminton/gobeachtennis/core"
	"github.com/ezBadminton/gobeachtennis/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoGroupStage         = errors.New("the tournament has no group stage")
	ErrGroupStageExists     = errors.New("the tournament already has a group stage")
	ErrGroupStageIncomplete = errors.New("the group stage has unfinished matches")
	ErrNoElimination        = errors.New("the tournament has no elimination stage")
	ErrEliminationExists    = errors.New("the tournament already has an elimination stage")
)

type Options struct {
	QualifiersPerGroup       int
	AvoidSameGroupFirstRound bool
	// Attempts of a whole result transition when saving fails
	SaveRetries int
	// Score format of the tournament. Nil accepts every
	// consistent result.
	Rules core.ScoreRules
}

// Overrides of the default options when the elimination stage is started
type StartOptions struct {
	QualifiersPerGroup       *int
	AvoidSameGroupFirstRound *bool
}

// Progression drives tournaments from the group stage through the
// elimination stage. Changes to the matches of one tournament are
// serialized, reads run against a consistent snapshot.
type Progression struct {
	store store.MatchStore
	opts  Options
	log   logrus.FieldLogger
	locks *tournamentLocks
}

func New(s store.MatchStore, opts Options, logger logrus.FieldLogger) *Progression {
	if opts.QualifiersPerGroup < 1 {
		opts.QualifiersPerGroup = 2
	}
	if opts.SaveRetries < 1 {
		opts.SaveRetries = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Progression{
		store: s,
		opts:  opts,
		log:   logger,
		locks: newTournamentLocks(),
	}
}

// Draws the teams into groups and creates the group matches.
// The teams are expected in seeding order.
func (p *Progression) CreateGroupStage(
	ctx context.Context,
	tournamentId string,
	teams []core.Team,
	numGroups int,
) ([][]core.Team, []*core.Match, error) {
	unlock := p.locks.lock(tournamentId)
	defer unlock()

	stage := core.StageGroup
	existing, err := p.store.ListMatches(ctx, tournamentId, store.Filter{Stage: &stage})
	if err != nil {
		return nil, nil, err
	}
	if len(existing) > 0 {
		return nil, nil, ErrGroupStageExists
	}

	groups, err := core.DrawGroups(teams, numGroups)
	if err != nil {
		return nil, nil, err
	}
	matches := core.GenerateGroupMatches(tournamentId, groups)

	if err := p.store.SaveMatches(ctx, matches...); err != nil {
		return nil, nil, err
	}

	p.log.WithFields(logrus.Fields{
		"tournament_id": tournamentId,
		"groups":        numGroups,
		"matches":       len(matches),
	}).Info("group stage created")

	return groups, matches, nil
}

// Computes the current ranking of every group
func (p *Progression) GroupRankings(ctx context.Context, tournamentId string) (map[int]*core.GroupRanking, error) {
	stage := core.StageGroup
	matches, err := p.store.ListMatches(ctx, tournamentId, store.Filter{Stage: &stage})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoGroupStage
	}

	return rankGroups(ctx, matches)
}

// Ranks the groups of the snapshot concurrently
func rankGroups(ctx context.Context, matches []*core.Match) (map[int]*core.GroupRanking, error) {
	byGroup := make(map[int][]*core.Match)
	for _, m := range matches {
		byGroup[m.Group] = append(byGroup[m.Group], m)
	}

	var mu sync.Mutex
	rankings := make(map[int]*core.GroupRanking, len(byGroup))

	g, ctx := errgroup.WithContext(ctx)
	for _, group := range slices.Sorted(maps.Keys(byGroup)) {
		groupMatches := byGroup[group]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ranking, err := core.ComputeGroupRanking(group, groupMatches)
			if err != nil {
				return fmt.Errorf("group %v: %w", group, err)
			}
			mu.Lock()
			rankings[group] = ranking
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rankings, nil
}

// Selects the qualifiers of the finished group stage and
// creates the elimination bracket
func (p *Progression) StartElimination(ctx context.Context, tournamentId string, opts StartOptions) (*core.Bracket, error) {
	unlock := p.locks.lock(tournamentId)
	defer unlock()

	logger := p.log.WithField("tournament_id", tournamentId)

	qualifiersPerGroup := p.opts.QualifiersPerGroup
	if opts.QualifiersPerGroup != nil {
		qualifiersPerGroup = *opts.QualifiersPerGroup
	}
	avoid := p.opts.AvoidSameGroupFirstRound
	if opts.AvoidSameGroupFirstRound != nil {
		avoid = *opts.AvoidSameGroupFirstRound
	}

	matches, err := p.store.ListMatches(ctx, tournamentId, store.Filter{})
	if err != nil {
		return nil, err
	}

	groupMatches := make([]*core.Match, 0, len(matches))
	for _, m := range matches {
		if m.Stage == core.StageElimination {
			return nil, ErrEliminationExists
		}
		if !m.Completed() {
			return nil, fmt.Errorf("%w: %v", ErrGroupStageIncomplete, m)
		}
		groupMatches = append(groupMatches, m)
	}
	if len(groupMatches) == 0 {
		return nil, ErrNoGroupStage
	}

	rankings, err := rankGroups(ctx, groupMatches)
	if err != nil {
		return nil, err
	}

	qualifiers, err := core.SelectQualifiers(rankings, qualifiersPerGroup)
	if err != nil {
		return nil, err
	}

	bracket, err := core.GenerateEliminationBracket(
		tournamentId,
		qualifiers,
		core.BracketOptions{AvoidSameGroupFirstRound: avoid},
	)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveMatches(ctx, bracket.Matches...); err != nil {
		return nil, err
	}

	for _, w := range bracket.Warnings {
		logger.WithError(w).Warn("elimination bracket generated with a warning")
	}
	logger.WithFields(logrus.Fields{
		"qualifiers":   len(qualifiers),
		"bracket_size": bracket.Size,
	}).Info("elimination stage started")

	return bracket, nil
}

// Loads the current elimination bracket
func (p *Progression) Bracket(ctx context.Context, tournamentId string) (*core.Bracket, error) {
	stage := core.StageElimination
	matches, err := p.store.ListMatches(ctx, tournamentId, store.Filter{Stage: &stage})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoElimination
	}
	return core.NewBracket(matches)
}

// Records the result of a match and persists every match the
// result changed in one transaction.
//
// When saving fails the whole transition is repeated on a freshly
// loaded snapshot. Errors of the result itself are never retried.
func (p *Progression) RecordResult(ctx context.Context, matchId string, result core.Result) (*core.ResultUpdate, error) {
	match, err := p.store.GetMatch(ctx, matchId)
	if err != nil {
		return nil, err
	}

	unlock := p.locks.lock(match.TournamentId)
	defer unlock()

	logger := p.log.WithFields(logrus.Fields{
		"tournament_id": match.TournamentId,
		"match_id":      matchId,
	})

	var saveErr error
	for attempt := 1; attempt <= p.opts.SaveRetries; attempt += 1 {
		update, err := p.transition(ctx, matchId, result)
		if err != nil {
			return nil, err
		}

		saveErr = p.store.SaveMatches(ctx, update.Changed()...)
		if saveErr == nil {
			logger.WithFields(logrus.Fields{
				"attempt":  attempt,
				"cascaded": len(update.Cascaded),
			}).Info("match result recorded")
			return update, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.WithError(saveErr).WithField("attempt", attempt).Warn("saving the match result failed")
	}

	return nil, fmt.Errorf("saving the result failed after %v attempts: %w", p.opts.SaveRetries, saveErr)
}

// Loads the current snapshot and applies the result to it
func (p *Progression) transition(ctx context.Context, matchId string, result core.Result) (*core.ResultUpdate, error) {
	match, err := p.store.GetMatch(ctx, matchId)
	if err != nil {
		return nil, err
	}

	var bracket *core.Bracket
	if match.Stage == core.StageElimination {
		bracket, err = p.Bracket(ctx, match.TournamentId)
		if err != nil {
			return nil, err
		}
		var ok bool
		match, ok = bracket.MatchById(matchId)
		if !ok {
			return nil, fmt.Errorf("%w: %v", store.ErrNotFound, matchId)
		}
	}

	return core.RecordMatchResult(match, bracket, result, p.opts.Rules)
}

// Deletes the elimination stage so it can be generated again
func (p *Progression) ResetElimination(ctx context.Context, tournamentId string) (int64, error) {
	unlock := p.locks.lock(tournamentId)
	defer unlock()

	deleted, err := p.store.DeleteMatches(ctx, tournamentId, core.StageElimination)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, ErrNoElimination
	}

	p.log.WithFields(logrus.Fields{
		"tournament_id": tournamentId,
		"matches":       deleted,
	}).Info("elimination stage reset")

	return deleted, nil
}
