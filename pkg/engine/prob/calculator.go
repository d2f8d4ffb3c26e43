// Package prob computes the top-event probability from minimal cut
// sets or from a shared BDD. The calculator owns the working vector of
// per-variable probabilities; the importance and uncertainty analyzers
// borrow it and restore it before returning.
package prob

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/riskhound/faultquant/pkg/bdd"
	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/graph"
)

// ErrMissingPrerequisite indicates an analysis invoked out of order:
// importance or uncertainty without a completed probability analysis,
// or a repeated single-shot Analyze call.
var ErrMissingPrerequisite = errors.New("missing prerequisite analysis")

// Calculator is the quantitative core. Construction validates the
// inputs; after that CalculateTotalProbability never fails.
type Calculator struct {
	graph   *graph.Graph
	cutSets []graph.CutSet
	diagram *bdd.BDD // nil selects cut-set mode

	approx  config.Approx
	numSums int

	varProbs    []float64
	currentMark bool

	pTotal   float64
	analyzed bool

	logger *slog.Logger
}

// New validates every cut-set literal against the graph and the
// configured order limit, then seeds the working probability vector
// from the nominal event probabilities.
func New(g *graph.Graph, cutSets []graph.CutSet, diagram *bdd.BDD, settings config.Settings, logger *slog.Logger) (*Calculator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, cs := range cutSets {
		if cs.Order() > settings.LimitOrder {
			return nil, fmt.Errorf("%w: cut set of order %d exceeds limit_order %d",
				config.ErrInvalidSettings, cs.Order(), settings.LimitOrder)
		}
		for _, literal := range cs {
			if _, err := g.BasicEvent(literal); err != nil {
				return nil, err
			}
		}
	}
	return &Calculator{
		graph:    g,
		cutSets:  cutSets,
		diagram:  diagram,
		approx:   settings.Approx,
		numSums:  settings.NumSums,
		varProbs: g.VarProbs(),
		logger:   logger,
	}, nil
}

// Graph returns the Boolean graph view.
func (c *Calculator) Graph() *graph.Graph { return c.graph }

// CutSets returns the minimal-cut-set collection.
func (c *Calculator) CutSets() []graph.CutSet { return c.cutSets }

// Diagram returns the shared BDD, or nil in cut-set mode.
func (c *Calculator) Diagram() *bdd.BDD { return c.diagram }

// VarProbs exposes the working probability vector. Borrowers must
// leave it equal to its entry state.
func (c *Calculator) VarProbs() []float64 { return c.varProbs }

// PTotal returns the published total probability.
func (c *Calculator) PTotal() float64 { return c.pTotal }

// Analyzed reports whether Analyze has completed.
func (c *Calculator) Analyzed() bool { return c.analyzed }

// Analyze computes and publishes the total probability. Single-shot.
func (c *Calculator) Analyze() error {
	if c.analyzed {
		return fmt.Errorf("%w: probability analysis already run", ErrMissingPrerequisite)
	}
	c.pTotal = c.CalculateTotalProbability()
	c.analyzed = true
	c.logger.Info("Probability analysis complete", "p_total", c.pTotal, "cut_sets", len(c.cutSets))
	return nil
}

// CalculateTotalProbability evaluates the top-event probability with
// the current working vector. The result is clamped into [0,1];
// rare-event sums can marginally exceed 1 and truncated
// inclusion-exclusion can undershoot 0.
func (c *Calculator) CalculateTotalProbability() float64 {
	var p float64
	if c.diagram != nil {
		p = c.calculateBdd()
	} else {
		p = c.calculateCutSets()
	}
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}

func (c *Calculator) calculateCutSets() float64 {
	switch c.approx {
	case config.ApproxMCUB:
		prod := 1.0
		for _, cs := range c.cutSets {
			prod *= 1 - c.probCutSet(cs)
		}
		return 1 - prod
	case config.ApproxNone:
		return c.probOr(c.cutSets, c.numSums)
	default: // rare-event
		sum := 0.0
		for _, cs := range c.cutSets {
			sum += c.probCutSet(cs)
		}
		return sum
	}
}

// probCutSet is the conjunction probability: positive literals
// contribute p_i, negative literals 1-p_i.
func (c *Calculator) probCutSet(cs graph.CutSet) float64 {
	p := 1.0
	for _, literal := range cs {
		if literal > 0 {
			p *= c.varProbs[literal]
		} else {
			p *= 1 - c.varProbs[-literal]
		}
	}
	return p
}

// probOr is the inclusion-exclusion expansion truncated at nsums
// alternating terms:
//
//	P(A + rest) = P(A) + P(rest) - P(A & rest)
//
// where the last term recurses one level shallower.
func (c *Calculator) probOr(sets []graph.CutSet, nsums int) float64 {
	if nsums <= 0 || len(sets) == 0 {
		return 0
	}
	first, rest := sets[0], sets[1:]
	return c.probCutSet(first) + c.probOr(rest, nsums) - c.probOr(intersect(first, rest), nsums-1)
}

// intersect conjoins the first set onto every remaining set. A product
// containing a literal and its complement is impossible and dropped.
func intersect(first graph.CutSet, rest []graph.CutSet) []graph.CutSet {
	var out []graph.CutSet
	for _, cs := range rest {
		seen := make(map[int]bool, len(first)+len(cs))
		for _, literal := range first {
			seen[literal] = true
		}
		impossible := false
		combined := append(graph.CutSet{}, first...)
		for _, literal := range cs {
			if seen[-literal] {
				impossible = true
				break
			}
			if !seen[literal] {
				seen[literal] = true
				combined = append(combined, literal)
			}
		}
		if !impossible {
			out = append(out, combined)
		}
	}
	return out
}

// calculateBdd runs one bottom-up annotation pass. Mark flipping makes
// the previous pass's memoised values stale without a clearing walk; a
// full traversal leaves every reachable vertex on the new mark.
func (c *Calculator) calculateBdd() float64 {
	c.currentMark = !c.currentMark
	p := c.vertexProb(c.diagram.Root.Vertex, c.currentMark)
	if c.diagram.Root.Complement {
		p = 1 - p
	}
	return p
}

func (c *Calculator) vertexProb(v bdd.Vertex, mark bool) float64 {
	if term, ok := v.(*bdd.Term); ok {
		if term.Value {
			return 1
		}
		return 0
	}
	ite := v.(*bdd.Ite)
	if ite.Mark == mark {
		return ite.Prob
	}
	ite.Mark = mark

	var varProb float64
	if ite.Module {
		fn := c.diagram.Gates[ite.Index]
		p := c.vertexProb(fn.Vertex, mark)
		if fn.Complement {
			p = 1 - p
		}
		varProb = p
	} else {
		varProb = c.varProbs[ite.Index]
	}
	high := c.vertexProb(ite.High, mark)
	low := c.vertexProb(ite.Low, mark)
	if ite.ComplementEdge {
		low = 1 - low
	}
	ite.Prob = varProb*high + (1-varProb)*low
	return ite.Prob
}

// CurrentMark is the mark state of the last completed full pass.
func (c *Calculator) CurrentMark() bool { return c.currentMark }
