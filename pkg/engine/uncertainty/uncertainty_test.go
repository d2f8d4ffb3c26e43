package uncertainty

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/engine/prob"
	"github.com/riskhound/faultquant/pkg/graph"
)

func lognormalGraph() *graph.Graph {
	return graph.New([]*graph.BasicEvent{
		{ID: "A", Prob: 0.01, Dist: graph.NewLogNormalEF(0.01, 3)},
		{ID: "B", Prob: 0.5},
	})
}

func runAnalysis(t *testing.T, seed int64, trials int) *Result {
	t.Helper()
	s := config.DefaultSettings()
	s.Seed = seed
	s.NumTrials = trials

	calc, err := prob.New(lognormalGraph(), []graph.CutSet{{1}, {2}}, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())

	analyzer := New(calc, s, nil)
	require.NoError(t, analyzer.Analyze())
	return analyzer.Result()
}

func TestDeterminism(t *testing.T) {
	// Identical seed and trial count reproduce the statistics
	// bit-for-bit across independent runs.
	first := runAnalysis(t, 12345, 2000)
	second := runAnalysis(t, 12345, 2000)

	assert.Equal(t, first.Mean, second.Mean)
	assert.Equal(t, first.Sigma, second.Sigma)
	assert.Equal(t, first.Quantiles, second.Quantiles)
	assert.Equal(t, first.Histogram, second.Histogram)
}

func TestSeedChangesSamples(t *testing.T) {
	first := runAnalysis(t, 1, 500)
	second := runAnalysis(t, 2, 500)
	assert.NotEqual(t, first.Mean, second.Mean)
}

func TestStatisticsInvariants(t *testing.T) {
	result := runAnalysis(t, 42, 5000)

	// The confidence interval brackets the mean.
	assert.LessOrEqual(t, result.CI95Low, result.Mean)
	assert.GreaterOrEqual(t, result.CI95High, result.Mean)

	// Histogram densities integrate to one.
	require.NotEmpty(t, result.Histogram)
	if len(result.Histogram) > 1 {
		width := result.Histogram[1].Lower - result.Histogram[0].Lower
		sum := 0.0
		for _, bin := range result.Histogram {
			sum += bin.Density * width
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	// Quantile table is the 100-quantile grid, non-decreasing.
	require.Len(t, result.Quantiles, 99)
	for i := 1; i < len(result.Quantiles); i++ {
		assert.LessOrEqual(t, result.Quantiles[i-1], result.Quantiles[i])
	}

	assert.GreaterOrEqual(t, result.ErrorFactor, 1.0)
}

func TestVarProbsRestored(t *testing.T) {
	s := config.DefaultSettings()
	s.NumTrials = 100

	calc, err := prob.New(lognormalGraph(), []graph.CutSet{{1}, {2}}, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())
	before := append([]float64{}, calc.VarProbs()...)

	analyzer := New(calc, s, nil)
	require.NoError(t, analyzer.Analyze())
	assert.Equal(t, before, calc.VarProbs(), "working vector must be bit-identical after analysis")
}

func TestSamplesClamped(t *testing.T) {
	// A wide normal distribution strays outside [0,1]; every trial
	// result must still be a probability.
	g := graph.New([]*graph.BasicEvent{
		{ID: "A", Prob: 0.5, Dist: graph.Normal{Mu: 0.5, Sigma: 5}},
	})
	s := config.DefaultSettings()
	s.NumTrials = 500

	calc, err := prob.New(g, []graph.CutSet{{1}}, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())

	analyzer := New(calc, s, nil)
	require.NoError(t, analyzer.Analyze())
	result := analyzer.Result()

	assert.GreaterOrEqual(t, result.Quantiles[0], 0.0)
	assert.LessOrEqual(t, result.Quantiles[98], 1.0)
}

func TestDegenerateSamples(t *testing.T) {
	// A point-only model yields identical samples; the histogram
	// collapses to one unit-width bin of density one.
	g := graph.New([]*graph.BasicEvent{{ID: "A", Prob: 0.25}})
	s := config.DefaultSettings()
	s.NumTrials = 50

	calc, err := prob.New(g, []graph.CutSet{{1}}, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())

	analyzer := New(calc, s, nil)
	require.NoError(t, analyzer.Analyze())
	result := analyzer.Result()

	assert.Equal(t, 0.25, result.Mean)
	assert.Equal(t, 0.0, result.Sigma)
	require.Len(t, result.Histogram, 1)
	assert.Equal(t, 1.0, result.Histogram[0].Density)
}

func TestRequiresProbabilityAnalysis(t *testing.T) {
	s := config.DefaultSettings()
	calc, err := prob.New(lognormalGraph(), []graph.CutSet{{1}}, nil, s, nil)
	require.NoError(t, err)

	analyzer := New(calc, s, nil)
	err = analyzer.Analyze()
	assert.True(t, errors.Is(err, prob.ErrMissingPrerequisite), "got %v", err)
}

func TestSingleShot(t *testing.T) {
	s := config.DefaultSettings()
	s.NumTrials = 10
	calc, err := prob.New(lognormalGraph(), []graph.CutSet{{1}}, nil, s, nil)
	require.NoError(t, err)
	require.NoError(t, calc.Analyze())

	analyzer := New(calc, s, nil)
	require.NoError(t, analyzer.Analyze())
	err = analyzer.Analyze()
	assert.True(t, errors.Is(err, prob.ErrMissingPrerequisite), "got %v", err)
}
