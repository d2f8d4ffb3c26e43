// Package uncertainty propagates basic-event probability distributions
// to the top event with Monte Carlo sampling and summarises the
// resulting sample distribution.
package uncertainty

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/engine/prob"
)

// Bin is one histogram cell: the lower bound and the probability
// density over the bin width.
type Bin struct {
	Lower   float64
	Density float64
}

// Result holds the summary statistics of the sampled top-event
// probability.
type Result struct {
	Mean        float64
	Sigma       float64
	ErrorFactor float64
	CI95Low     float64
	CI95High    float64
	Histogram   []Bin
	Quantiles   []float64
}

const histogramBins = 20

// Analyzer runs the Monte Carlo loop through a completed probability
// analysis. One RNG per analyzer, seeded from the settings.
type Analyzer struct {
	calc      *prob.Calculator
	numTrials int
	seed      int64
	logger    *slog.Logger

	result   *Result
	analyzed bool
}

func New(calc *prob.Calculator, settings config.Settings, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		calc:      calc,
		numTrials: settings.NumTrials,
		seed:      settings.Seed,
		logger:    logger,
	}
}

// Result returns the published statistics.
func (a *Analyzer) Result() *Result { return a.result }

// Analyze samples the distributions for the configured number of
// trials. Single-shot; the working probability vector is restored
// before returning, on success and on failure alike.
func (a *Analyzer) Analyze() error {
	if a.analyzed {
		return fmt.Errorf("%w: uncertainty analysis already run", prob.ErrMissingPrerequisite)
	}
	if !a.calc.Analyzed() {
		return fmt.Errorf("%w: uncertainty analysis requires a completed probability analysis",
			prob.ErrMissingPrerequisite)
	}

	samples, err := a.sample()
	if err != nil {
		return err
	}
	a.result = summarize(samples)
	a.analyzed = true
	a.logger.Info("Uncertainty analysis complete",
		"trials", a.numTrials, "mean", a.result.Mean, "sigma", a.result.Sigma)
	return nil
}

func (a *Analyzer) sample() ([]float64, error) {
	uncertain := a.calc.Graph().UncertainEvents()
	varProbs := a.calc.VarProbs()
	defer func() {
		for _, ev := range uncertain {
			varProbs[ev.Index] = ev.Event.Prob
		}
	}()

	src := rand.NewSource(uint64(a.seed))
	samples := make([]float64, 0, a.numTrials)
	for trial := 0; trial < a.numTrials; trial++ {
		for _, ev := range uncertain {
			ev.Event.Reset()
		}
		for _, ev := range uncertain {
			p, err := ev.Event.Sample(src)
			if err != nil {
				return nil, err
			}
			if p < 0 {
				p = 0
			} else if p > 1 {
				p = 1
			}
			varProbs[ev.Index] = p
		}
		samples = append(samples, a.calc.CalculateTotalProbability())
	}
	return samples, nil
}

func summarize(samples []float64) *Result {
	n := len(samples)
	mean := stat.Mean(samples, nil)
	sigma := stat.StdDev(samples, nil)
	if math.IsNaN(sigma) { // single trial
		sigma = 0
	}

	sorted := append([]float64{}, samples...)
	sort.Float64s(sorted)

	quantiles := make([]float64, 0, 99)
	for i := 1; i <= 99; i++ {
		quantiles = append(quantiles, stat.Quantile(float64(i)/100, stat.Empirical, sorted, nil))
	}

	q50 := stat.Quantile(0.50, stat.Empirical, sorted, nil)
	q95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)
	errorFactor := math.Inf(1)
	if q50 > 0 {
		errorFactor = q95 / q50
	}

	delta := 1.96 * sigma / math.Sqrt(float64(n))
	return &Result{
		Mean:        mean,
		Sigma:       sigma,
		ErrorFactor: errorFactor,
		CI95Low:     mean - delta,
		CI95High:    mean + delta,
		Histogram:   histogram(sorted),
		Quantiles:   quantiles,
	}
}

// histogram builds equi-width bins over [min,max] with density
// count/(n*width). Degenerate samples (min == max) collapse to a
// single unit-width bin so the densities still integrate to one.
func histogram(sorted []float64) []Bin {
	n := len(sorted)
	min, max := sorted[0], sorted[n-1]
	if min == max {
		return []Bin{{Lower: min, Density: 1}}
	}
	width := (max - min) / histogramBins
	counts := make([]int, histogramBins)
	for _, s := range sorted {
		k := int((s - min) / width)
		if k >= histogramBins { // s == max
			k = histogramBins - 1
		}
		counts[k]++
	}
	bins := make([]Bin, histogramBins)
	for k, count := range counts {
		bins[k] = Bin{
			Lower:   min + float64(k)*width,
			Density: float64(count) / (float64(n) * width),
		}
	}
	return bins
}
