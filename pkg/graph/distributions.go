package graph

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution produces random probability draws for one basic event.
// Implementations must be deterministic for a given source state.
type Distribution interface {
	// Reset clears per-trial state before a new Monte Carlo trial.
	Reset()
	// Sample draws one value from the given source. Draws are not
	// clamped here; range handling belongs to the caller.
	Sample(src rand.Source) float64
}

// Uniform is the flat distribution on [Min, Max].
type Uniform struct {
	Min, Max float64
}

func (d Uniform) Reset() {}

func (d Uniform) Sample(src rand.Source) float64 {
	return distuv.Uniform{Min: d.Min, Max: d.Max, Src: src}.Rand()
}

// Normal is the Gaussian distribution with mean Mu and deviation Sigma.
type Normal struct {
	Mu, Sigma float64
}

func (d Normal) Reset() {}

func (d Normal) Sample(src rand.Source) float64 {
	return distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: src}.Rand()
}

// LogNormal is parameterized by the location and scale of the
// underlying normal.
type LogNormal struct {
	Mu, Sigma float64
}

// z for the one-sided 95% level used by the error-factor convention.
const z95 = 1.6448536269514722

// NewLogNormalEF converts the PRA (mean, error factor) convention:
// EF = exp(z95 * sigma) and mean = exp(mu + sigma^2/2).
func NewLogNormalEF(mean, errorFactor float64) LogNormal {
	sigma := math.Log(errorFactor) / z95
	return LogNormal{
		Mu:    math.Log(mean) - sigma*sigma/2,
		Sigma: sigma,
	}
}

func (d LogNormal) Reset() {}

func (d LogNormal) Sample(src rand.Source) float64 {
	return distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: src}.Rand()
}

// Triangular spans [Lower, Upper] with the given Mode.
type Triangular struct {
	Lower, Mode, Upper float64
}

func (d Triangular) Reset() {}

func (d Triangular) Sample(src rand.Source) float64 {
	return distuv.NewTriangle(d.Lower, d.Upper, d.Mode, src).Rand()
}

// Beta is the Beta(Alpha, Beta) distribution on [0,1].
type Beta struct {
	Alpha, BetaP float64
}

func (d Beta) Reset() {}

func (d Beta) Sample(src rand.Source) float64 {
	return distuv.Beta{Alpha: d.Alpha, Beta: d.BetaP, Src: src}.Rand()
}

// Gamma is the Gamma(Shape, Rate) distribution.
type Gamma struct {
	Shape, Rate float64
}

func (d Gamma) Reset() {}

func (d Gamma) Sample(src rand.Source) float64 {
	return distuv.Gamma{Alpha: d.Shape, Beta: d.Rate, Src: src}.Rand()
}

// Weibull is the Weibull(K, Lambda) distribution.
type Weibull struct {
	K, Lambda float64
}

func (d Weibull) Reset() {}

func (d Weibull) Sample(src rand.Source) float64 {
	return distuv.Weibull{K: d.K, Lambda: d.Lambda, Src: src}.Rand()
}

// Histogram samples from weighted bins: a bin is chosen with
// probability proportional to its weight, then the value is drawn
// uniformly within the bin bounds. Boundaries has one more entry than
// Weights.
type Histogram struct {
	Boundaries []float64
	Weights    []float64
}

func (d Histogram) Reset() {}

func (d Histogram) Sample(src rand.Source) float64 {
	total := 0.0
	for _, w := range d.Weights {
		total += w
	}
	rng := rand.New(src)
	pick := rng.Float64() * total
	for i, w := range d.Weights {
		if pick < w || i == len(d.Weights)-1 {
			lo, hi := d.Boundaries[i], d.Boundaries[i+1]
			return lo + rng.Float64()*(hi-lo)
		}
		pick -= w
	}
	return d.Boundaries[0]
}
