package importance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskhound/faultquant/pkg/bdd"
	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/engine/prob"
	"github.com/riskhound/faultquant/pkg/graph"
)

func newCalculator(t *testing.T, g *graph.Graph, cutSets []graph.CutSet, diagram *bdd.BDD, approx config.Approx) *prob.Calculator {
	t.Helper()
	s := config.DefaultSettings()
	s.Approx = approx
	calc, err := prob.New(g, cutSets, diagram, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())
	return calc
}

func TestSingleEventFactors(t *testing.T) {
	// Top = A with p = 0.1:
	// MIF = 1, CIF = 1, RAW = 10, RRW = +inf, DIF = 1.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}})
	calc := newCalculator(t, g, []graph.CutSet{{1}}, nil, config.ApproxRareEvent)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	f, ok := analyzer.Importance()["A"]
	require.True(t, ok, "A must be ranked")
	assert.InDelta(t, 1.0, f.MIF, 1e-9)
	assert.InDelta(t, 1.0, f.CIF, 1e-9)
	assert.InDelta(t, 10.0, f.RAW, 1e-9)
	assert.True(t, math.IsInf(f.RRW, 1), "RRW must be +inf, got %v", f.RRW)
	assert.InDelta(t, 1.0, f.DIF, 1e-9)
}

func TestAndGateFactors(t *testing.T) {
	// Cut set {A,B}, p(A)=0.1, p(B)=0.2: p_total = 0.02,
	// MIF(A) = 0.2, CIF(A) = 0.2*0.1/0.02 = 1.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	calc := newCalculator(t, g, []graph.CutSet{{1, 2}}, nil, config.ApproxRareEvent)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	f := analyzer.Importance()["A"]
	assert.InDelta(t, 0.2, f.MIF, 1e-9)
	assert.InDelta(t, 1.0, f.CIF, 1e-9)
}

func TestVarProbsRestored(t *testing.T) {
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	calc := newCalculator(t, g, []graph.CutSet{{1}, {2}}, nil, config.ApproxMCUB)

	before := append([]float64{}, calc.VarProbs()...)
	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())
	assert.Equal(t, before, calc.VarProbs(), "working vector must be bit-identical after analysis")
}

func TestOrBddMif(t *testing.T) {
	// Exact BDD for A or B, p(A)=0.1, p(B)=0.2:
	// MIF(A) = 1 - p(B) = 0.8, MIF(B) = 1 - p(A) = 0.9.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	vertexB := &bdd.Ite{Index: 2, Order: 2, High: bdd.True, Low: bdd.False}
	vertexA := &bdd.Ite{Index: 1, Order: 1, High: bdd.True, Low: vertexB}
	diagram := bdd.New(bdd.Function{Vertex: vertexA}, nil, map[int]int{1: 1, 2: 2})

	calc := newCalculator(t, g, []graph.CutSet{{1}, {2}}, diagram, config.ApproxRareEvent)
	require.InDelta(t, 0.28, calc.PTotal(), 1e-12)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	assert.InDelta(t, 0.8, analyzer.Importance()["A"].MIF, 1e-9)
	assert.InDelta(t, 0.9, analyzer.Importance()["B"].MIF, 1e-9)
}

func TestBddMarksRestored(t *testing.T) {
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	vertexB := &bdd.Ite{Index: 2, Order: 2, High: bdd.True, Low: bdd.False}
	vertexA := &bdd.Ite{Index: 1, Order: 1, High: bdd.True, Low: vertexB}
	diagram := bdd.New(bdd.Function{Vertex: vertexA}, nil, map[int]int{1: 1, 2: 2})

	calc := newCalculator(t, g, []graph.CutSet{{1}, {2}}, diagram, config.ApproxRareEvent)
	markBefore := diagram.RootMark()

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	assert.Equal(t, markBefore, vertexA.Mark, "root mark must be restored")
	assert.Equal(t, markBefore, vertexB.Mark, "inner mark must be restored")
}

func TestModuleSharing(t *testing.T) {
	// Module M = A and B instanced as the whole top function.
	// p_total = p(A)p(B) = 0.02; MIF(A) = p(B) = 0.2. The module
	// traversal must not double-count the shared sub-graph.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	vertexB := &bdd.Ite{Index: 2, Order: 2, High: bdd.True, Low: bdd.False}
	vertexA := &bdd.Ite{Index: 1, Order: 1, High: vertexB, Low: bdd.False}
	moduleVertex := &bdd.Ite{Index: 10, Order: 3, High: bdd.True, Low: bdd.False, Module: true}
	diagram := bdd.New(
		bdd.Function{Vertex: moduleVertex},
		map[int]bdd.Function{10: {Vertex: vertexA}},
		map[int]int{1: 1, 2: 2, 10: 3},
	)

	calc := newCalculator(t, g, []graph.CutSet{{1, 2}}, diagram, config.ApproxRareEvent)
	require.InDelta(t, 0.02, calc.PTotal(), 1e-12)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	assert.InDelta(t, 0.2, analyzer.Importance()["A"].MIF, 1e-9)
	assert.InDelta(t, 0.1, analyzer.Importance()["B"].MIF, 1e-9)
}

func TestMifAgreesAcrossModes(t *testing.T) {
	// The same function computed through cut sets (exact
	// inclusion-exclusion) and through the BDD yields the same MIF.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}})
	cutSets := []graph.CutSet{{1}, {2}}

	s := config.DefaultSettings()
	s.Approx = config.ApproxNone
	cutSetCalc, err := prob.New(g, cutSets, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, cutSetCalc.Analyze())

	cutSetAnalyzer := New(cutSetCalc, nil)
	require.NoError(t, cutSetAnalyzer.Analyze())

	vertexB := &bdd.Ite{Index: 2, Order: 2, High: bdd.True, Low: bdd.False}
	vertexA := &bdd.Ite{Index: 1, Order: 1, High: bdd.True, Low: vertexB}
	diagram := bdd.New(bdd.Function{Vertex: vertexA}, nil, map[int]int{1: 1, 2: 2})
	bddCalc := newCalculator(t, g, cutSets, diagram, config.ApproxRareEvent)

	bddAnalyzer := New(bddCalc, nil)
	require.NoError(t, bddAnalyzer.Analyze())

	for _, id := range []string{"A", "B"} {
		assert.InDelta(t, cutSetAnalyzer.Importance()[id].MIF, bddAnalyzer.Importance()[id].MIF, 1e-9,
			"MIF(%s) must agree across modes", id)
	}
}

func TestRequiresProbabilityAnalysis(t *testing.T) {
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}})
	s := config.DefaultSettings()
	calc, err := prob.New(g, []graph.CutSet{{1}}, nil, s, nil)
	require.NoError(t, err)

	analyzer := New(calc, nil)
	err = analyzer.Analyze()
	assert.True(t, errors.Is(err, prob.ErrMissingPrerequisite), "got %v", err)
}

func TestSingleShot(t *testing.T) {
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.1}})
	calc := newCalculator(t, g, []graph.CutSet{{1}}, nil, config.ApproxRareEvent)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())
	err := analyzer.Analyze()
	assert.True(t, errors.Is(err, prob.ErrMissingPrerequisite), "got %v", err)
}

func TestFirstEncounterOrder(t *testing.T) {
	g := graph.New([]*graph.BasicEvent{
		{ID: "A", Prob: 0.1}, {ID: "B", Prob: 0.2}, {ID: "C", Prob: 0.3},
	})
	calc := newCalculator(t, g, []graph.CutSet{{3, 1}, {2, -1}}, nil, config.ApproxRareEvent)

	analyzer := New(calc, nil)
	require.NoError(t, analyzer.Analyze())

	var ids []string
	for _, re := range analyzer.ImportantEvents() {
		ids = append(ids, re.Event.ID)
	}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}
