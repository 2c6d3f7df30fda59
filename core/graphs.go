// This file contains thin wrappers around the graph module
// for managing the structure of an elimination bracket.
package core

import (
	"errors"
	"slices"

	"github.com/dominikbraun/graph"
)

func matchHash(m *Match) string {
	return m.Id
}

// The EliminationGraph has all matches of an elimination
// bracket as its nodes. The edges between the nodes model
// the path that the teams take towards the final like
// a conventional tournament tree.
//
// The graph is a directed tree pointing from the first
// round towards the final.
type EliminationGraph struct {
	graph.Graph[string, *Match]

	predecessorMap map[string]map[string]graph.Edge[string]
}

func newEliminationGraph(matches []*Match) *EliminationGraph {
	g := &EliminationGraph{
		Graph: graph.New(matchHash, graph.Directed(), graph.Acyclic()),
	}
	for _, m := range matches {
		_ = g.AddVertex(m)
	}
	return g
}

// Adds the edge from the feeding match to the match that its
// winner moves into
func (g *EliminationGraph) link(feeder, next *Match) error {
	err := g.AddEdge(feeder.Id, next.Id)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return err
	}
	g.predecessorMap = nil
	return nil
}

// Returns the matches whose winners feed the given match
// ordered by position
func (g *EliminationGraph) Feeders(match *Match) []*Match {
	if g.predecessorMap == nil {
		// The bracket structure does not change after it is
		// linked so the predecessor map is stored on the first call
		g.predecessorMap, _ = g.PredecessorMap()
	}

	inEdges := g.predecessorMap[match.Id]
	feeders := make([]*Match, 0, len(inEdges))
	for k := range inEdges {
		feeder, err := g.Vertex(k)
		if err != nil {
			continue
		}
		feeders = append(feeders, feeder)
	}
	slices.SortFunc(feeders, func(a, b *Match) int { return a.Position - b.Position })

	return feeders
}

// Returns the match feeding the given side of the match or
// nil when the side has no feeding match
func (g *EliminationGraph) FeederOf(match *Match, side Side) *Match {
	for _, f := range g.Feeders(match) {
		if feedSide(f.Position) == side {
			return f
		}
	}
	return nil
}
