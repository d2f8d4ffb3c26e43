// Package importance ranks the basic events appearing in the minimal
// cut sets by their contribution to the top-event probability.
package importance

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/riskhound/faultquant/pkg/bdd"
	"github.com/riskhound/faultquant/pkg/engine/prob"
	"github.com/riskhound/faultquant/pkg/graph"
)

// Factors collects the importance measures of one basic event.
type Factors struct {
	MIF float64 // Birnbaum marginal importance
	CIF float64 // critical importance
	DIF float64 // Fussell-Vesely diagnosis importance
	RAW float64 // risk achievement worth
	RRW float64 // risk reduction worth
}

// RankedEvent pairs an event with its factors, in the order the event
// was first encountered in the cut sets.
type RankedEvent struct {
	Event   *graph.BasicEvent
	Factors Factors
}

// Analyzer computes importance factors through a completed probability
// analysis. It borrows the calculator's working vector and, in BDD
// mode, the vertex scratch fields, restoring both before returning.
type Analyzer struct {
	calc   *prob.Calculator
	logger *slog.Logger

	importance map[string]Factors
	ranked     []RankedEvent
	analyzed   bool
}

func New(calc *prob.Calculator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{calc: calc, logger: logger}
}

// Importance returns the map from event id to factors.
func (a *Analyzer) Importance() map[string]Factors { return a.importance }

// ImportantEvents returns the ranked collection in first-encounter
// order.
func (a *Analyzer) ImportantEvents() []RankedEvent { return a.ranked }

// Analyze runs once over all events present in the cut sets.
func (a *Analyzer) Analyze() error {
	if a.analyzed {
		return fmt.Errorf("%w: importance analysis already run", prob.ErrMissingPrerequisite)
	}
	if !a.calc.Analyzed() {
		return fmt.Errorf("%w: importance analysis requires a completed probability analysis",
			prob.ErrMissingPrerequisite)
	}

	events, err := a.gatherImportantEvents()
	if err != nil {
		return err
	}

	a.importance = make(map[string]Factors, len(events))
	a.ranked = make([]RankedEvent, 0, len(events))
	for _, ev := range events {
		factors := a.calculateFactors(ev.Index, ev.Event)
		a.importance[ev.Event.ID] = factors
		a.ranked = append(a.ranked, RankedEvent{Event: ev.Event, Factors: factors})
	}
	a.analyzed = true
	a.logger.Info("Importance analysis complete", "events", len(events))
	return nil
}

// gatherImportantEvents walks the cut sets collecting each positive
// index once, in first-encounter order.
func (a *Analyzer) gatherImportantEvents() ([]graph.IndexedEvent, error) {
	var events []graph.IndexedEvent
	seen := make(map[int]bool)
	for _, cs := range a.calc.CutSets() {
		for _, literal := range cs {
			index := literal
			if index < 0 {
				index = -index
			}
			if seen[index] {
				continue
			}
			seen[index] = true
			ev, err := a.calc.Graph().BasicEvent(index)
			if err != nil {
				return nil, err
			}
			events = append(events, graph.IndexedEvent{Index: index, Event: ev})
		}
	}
	return events, nil
}

// calculateFactors derives all measures from the conditional top-event
// probabilities with the variable pinned to 1 and 0.
func (a *Analyzer) calculateFactors(index int, event *graph.BasicEvent) Factors {
	var mif, pOne, pZero float64
	if a.calc.Diagram() != nil {
		mif = a.calculateMifBdd(index)
		p := a.calc.PTotal()
		pOne = p + (1-event.Prob)*mif
		pZero = p - event.Prob*mif
	} else {
		mif, pOne, pZero = a.calculateMifCutSets(index, event)
	}

	p := a.calc.PTotal()
	f := Factors{MIF: mif}
	if p > 0 {
		f.CIF = mif * event.Prob / p
		f.RAW = pOne / p
	}
	if pZero > 0 {
		f.RRW = p / pZero
	} else {
		f.RRW = math.Inf(1)
	}
	f.DIF = event.Prob * f.RAW
	return f
}

// calculateMifCutSets pins the working probability to 1 and 0,
// re-running the calculator, then restores the nominal value.
func (a *Analyzer) calculateMifCutSets(index int, event *graph.BasicEvent) (mif, pOne, pZero float64) {
	varProbs := a.calc.VarProbs()

	varProbs[index] = 1
	pOne = a.calc.CalculateTotalProbability()

	varProbs[index] = 0
	pZero = a.calc.CalculateTotalProbability()

	varProbs[index] = event.Prob
	return pOne - pZero, pOne, pZero
}

// calculateMifBdd runs one partial mark-flipped traversal reusing the
// vertex probabilities memoised by the probability pass, then restores
// the marks. The graph gets continuously-but-partially marked, so the
// clearing walk is mandatory.
func (a *Analyzer) calculateMifBdd(index int) float64 {
	diagram := a.calc.Diagram()
	root := diagram.Root.Vertex
	if root.Terminal() {
		return 0
	}
	original := diagram.RootMark()
	order := diagram.IndexToOrder[index]

	mif := a.vertexMif(root, index, order, !original)
	if diagram.Root.Complement {
		mif = -mif
	}
	diagram.ClearMarks(original)
	return mif
}

func (a *Analyzer) vertexMif(v bdd.Vertex, index, order int, mark bool) float64 {
	if v.Terminal() {
		return 0
	}
	ite := v.(*bdd.Ite)
	if ite.Mark == mark {
		return ite.Factor
	}
	ite.Mark = mark
	diagram := a.calc.Diagram()

	switch {
	case ite.Order > order:
		// The sub-graph is entirely below the query variable in the
		// ordering, so only a module can still mention it.
		if !ite.Module || !diagram.ModuleContains(ite.Index, index) {
			ite.Factor = 0
			break
		}
		high := retrieveProb(ite.High)
		low := retrieveProb(ite.Low)
		if ite.ComplementEdge {
			low = 1 - low
		}
		fn := diagram.Gates[ite.Index]
		mif := a.vertexMif(fn.Vertex, index, order, mark)
		if fn.Complement {
			mif = -mif
		}
		ite.Factor = (high - low) * mif

	case ite.Order == order:
		// This vertex is the query variable.
		high := retrieveProb(ite.High)
		low := retrieveProb(ite.Low)
		if ite.ComplementEdge {
			low = 1 - low
		}
		ite.Factor = high - low

	default:
		var varProb float64
		if ite.Module {
			fn := diagram.Gates[ite.Index]
			varProb = retrieveProb(fn.Vertex)
			if fn.Complement {
				varProb = 1 - varProb
			}
		} else {
			varProb = a.calc.VarProbs()[ite.Index]
		}
		highFactor := a.vertexMif(ite.High, index, order, mark)
		lowFactor := a.vertexMif(ite.Low, index, order, mark)
		if ite.ComplementEdge {
			lowFactor = -lowFactor
		}
		ite.Factor = varProb*highFactor + (1-varProb)*lowFactor
	}
	return ite.Factor
}

// retrieveProb reads the probability memoised by the preceding full
// calculator pass.
func retrieveProb(v bdd.Vertex) float64 {
	if term, ok := v.(*bdd.Term); ok {
		if term.Value {
			return 1
		}
		return 0
	}
	return v.(*bdd.Ite).Prob
}
