// Package graph provides the read-only Boolean graph view consumed by
// the quantitative analyzers: basic-event descriptors addressed by
// positive variable indices, and the minimal-cut-set collection
// produced by the qualitative stage.
package graph

import (
	"errors"
	"fmt"
)

// ErrInconsistency indicates a variable index with no descriptor bound
// in the graph.
var ErrInconsistency = errors.New("boolean graph inconsistency")

// ErrDistributionDomain indicates a distribution produced a non-finite
// sample.
var ErrDistributionDomain = errors.New("distribution domain error")

// CutSet is a conjunction of signed variable indices. A negative
// literal -i denotes the complement of variable i.
type CutSet []int

// Order is the number of literals in the cut set.
func (c CutSet) Order() int { return len(c) }

// Graph is the immutable index namespace over basic events.
// Variable i in [1, N] maps to the i-th descriptor.
type Graph struct {
	events []*BasicEvent
}

// New binds descriptors to variable indices 1..len(events) in order.
func New(events []*BasicEvent) *Graph {
	return &Graph{events: events}
}

// Size returns N, the number of variables.
func (g *Graph) Size() int { return len(g.events) }

// BasicEvent returns the descriptor bound to variable i. The sign of i
// is ignored; literal -i refers to the same event as i.
func (g *Graph) BasicEvent(i int) (*BasicEvent, error) {
	if i < 0 {
		i = -i
	}
	if i < 1 || i > len(g.events) {
		return nil, fmt.Errorf("%w: variable %d has no descriptor", ErrInconsistency, i)
	}
	return g.events[i-1], nil
}

// VarProbs builds the working probability vector, length N+1 with
// slot 0 unused, seeded from the nominal event probabilities.
func (g *Graph) VarProbs() []float64 {
	probs := make([]float64, len(g.events)+1)
	for i, e := range g.events {
		probs[i+1] = e.Prob
	}
	return probs
}

// UncertainEvents returns the indices and descriptors of events that
// carry a non-point distribution, in index order.
func (g *Graph) UncertainEvents() []IndexedEvent {
	var out []IndexedEvent
	for i, e := range g.events {
		if e.Dist != nil {
			out = append(out, IndexedEvent{Index: i + 1, Event: e})
		}
	}
	return out
}

// IndexedEvent pairs a variable index with its descriptor.
type IndexedEvent struct {
	Index int
	Event *BasicEvent
}
