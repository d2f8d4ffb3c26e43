// Package model loads fault-tree quantification inputs from HCL files:
// basic events with their probabilities or distributions, and the
// minimal cut sets produced by the qualitative stage.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/graph"
)

// ErrValidation indicates a model file that does not parse as the
// expected HCL structure or that describes an inconsistent model.
var ErrValidation = errors.New("model validation error")

type modelFile struct {
	BasicEvents []basicEventBlock `hcl:"basic_event,block"`
	CutSets     []cutSetBlock     `hcl:"cut_set,block"`
}

type basicEventBlock struct {
	Name        string   `hcl:"name,label"`
	Probability *float64 `hcl:"probability,optional"`
	// Lambda derives the nominal probability from a constant failure
	// rate over the mission time.
	Lambda *float64 `hcl:"lambda,optional"`

	Uniform    *uniformBlock    `hcl:"uniform,block"`
	Normal     *normalBlock     `hcl:"normal,block"`
	LogNormal  *logNormalBlock  `hcl:"lognormal,block"`
	Triangular *triangularBlock `hcl:"triangular,block"`
	Beta       *betaBlock       `hcl:"beta,block"`
	Gamma      *gammaBlock      `hcl:"gamma,block"`
	Weibull    *weibullBlock    `hcl:"weibull,block"`
	Histogram  *histogramBlock  `hcl:"histogram,block"`
	Expression *expressionBlock `hcl:"expression,block"`
}

type cutSetBlock struct {
	Events []string `hcl:"events"`
}

type uniformBlock struct {
	Min float64 `hcl:"min"`
	Max float64 `hcl:"max"`
}

type normalBlock struct {
	Mean  float64 `hcl:"mean"`
	Sigma float64 `hcl:"sigma"`
}

type logNormalBlock struct {
	Mu          *float64 `hcl:"mu,optional"`
	Sigma       *float64 `hcl:"sigma,optional"`
	Mean        *float64 `hcl:"mean,optional"`
	ErrorFactor *float64 `hcl:"error_factor,optional"`
}

type triangularBlock struct {
	Lower float64 `hcl:"lower"`
	Mode  float64 `hcl:"mode"`
	Upper float64 `hcl:"upper"`
}

type betaBlock struct {
	Alpha float64 `hcl:"alpha"`
	Beta  float64 `hcl:"beta"`
}

type gammaBlock struct {
	Shape float64 `hcl:"shape"`
	Rate  float64 `hcl:"rate"`
}

type weibullBlock struct {
	K      float64 `hcl:"k"`
	Lambda float64 `hcl:"lambda"`
}

type histogramBlock struct {
	Boundaries []float64 `hcl:"boundaries"`
	Weights    []float64 `hcl:"weights"`
}

type expressionBlock struct {
	Code string `hcl:"code"`
}

// Load parses the given model files and assembles the Boolean graph
// view plus the cut-set collection. Variable indices follow event
// declaration order across files.
func Load(paths []string, settings config.Settings) (*graph.Graph, []graph.CutSet, error) {
	parser := hclparse.NewParser()

	var events []*graph.BasicEvent
	indexOf := make(map[string]int)
	var cutSets []graph.CutSet
	var rawCutSets []cutSetBlock

	for _, path := range paths {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrValidation, path, diags)
		}
		var mf modelFile
		if diags := gohcl.DecodeBody(f.Body, nil, &mf); diags.HasErrors() {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrValidation, path, diags)
		}

		for _, block := range mf.BasicEvents {
			if _, dup := indexOf[block.Name]; dup {
				return nil, nil, fmt.Errorf("%w: basic event %q declared twice", ErrValidation, block.Name)
			}
			ev, err := buildEvent(block, settings)
			if err != nil {
				return nil, nil, err
			}
			events = append(events, ev)
			indexOf[block.Name] = len(events)
		}
		rawCutSets = append(rawCutSets, mf.CutSets...)
	}

	for _, block := range rawCutSets {
		cs := make(graph.CutSet, 0, len(block.Events))
		for _, name := range block.Events {
			negated := strings.HasPrefix(name, "!")
			name = strings.TrimPrefix(name, "!")
			index, found := indexOf[name]
			if !found {
				return nil, nil, fmt.Errorf("%w: cut set references unknown event %q", ErrValidation, name)
			}
			if negated {
				index = -index
			}
			cs = append(cs, index)
		}
		cutSets = append(cutSets, cs)
	}

	return graph.New(events), cutSets, nil
}

func buildEvent(block basicEventBlock, settings config.Settings) (*graph.BasicEvent, error) {
	ev := &graph.BasicEvent{ID: block.Name}

	switch {
	case block.Probability != nil && block.Lambda != nil:
		return nil, fmt.Errorf("%w: event %q sets both probability and lambda", ErrValidation, block.Name)
	case block.Probability != nil:
		ev.Prob = *block.Probability
	case block.Lambda != nil:
		ev.Prob = graph.ExponentialProb(*block.Lambda, settings.MissionTime)
	default:
		return nil, fmt.Errorf("%w: event %q needs a probability or a lambda", ErrValidation, block.Name)
	}
	if ev.Prob < 0 || ev.Prob > 1 {
		return nil, fmt.Errorf("%w: event %q probability %v outside [0,1]", ErrValidation, block.Name, ev.Prob)
	}

	dist, err := buildDistribution(block, settings)
	if err != nil {
		return nil, err
	}
	ev.Dist = dist
	return ev, nil
}

func buildDistribution(block basicEventBlock, settings config.Settings) (graph.Distribution, error) {
	var dists []graph.Distribution
	if block.Uniform != nil {
		dists = append(dists, graph.Uniform{Min: block.Uniform.Min, Max: block.Uniform.Max})
	}
	if block.Normal != nil {
		dists = append(dists, graph.Normal{Mu: block.Normal.Mean, Sigma: block.Normal.Sigma})
	}
	if block.LogNormal != nil {
		d, err := buildLogNormal(block.Name, block.LogNormal)
		if err != nil {
			return nil, err
		}
		dists = append(dists, d)
	}
	if block.Triangular != nil {
		dists = append(dists, graph.Triangular{
			Lower: block.Triangular.Lower,
			Mode:  block.Triangular.Mode,
			Upper: block.Triangular.Upper,
		})
	}
	if block.Beta != nil {
		dists = append(dists, graph.Beta{Alpha: block.Beta.Alpha, BetaP: block.Beta.Beta})
	}
	if block.Gamma != nil {
		dists = append(dists, graph.Gamma{Shape: block.Gamma.Shape, Rate: block.Gamma.Rate})
	}
	if block.Weibull != nil {
		dists = append(dists, graph.Weibull{K: block.Weibull.K, Lambda: block.Weibull.Lambda})
	}
	if block.Histogram != nil {
		if len(block.Histogram.Boundaries) != len(block.Histogram.Weights)+1 {
			return nil, fmt.Errorf("%w: event %q histogram needs one more boundary than weights",
				ErrValidation, block.Name)
		}
		dists = append(dists, graph.Histogram{
			Boundaries: block.Histogram.Boundaries,
			Weights:    block.Histogram.Weights,
		})
	}
	if block.Expression != nil {
		expr, err := graph.NewExpression(block.Expression.Code, settings.MissionTime)
		if err != nil {
			return nil, fmt.Errorf("%w: event %q: %v", ErrValidation, block.Name, err)
		}
		dists = append(dists, expr)
	}

	switch len(dists) {
	case 0:
		return nil, nil // point value
	case 1:
		return dists[0], nil
	}
	return nil, fmt.Errorf("%w: event %q declares more than one distribution", ErrValidation, block.Name)
}

func buildLogNormal(name string, block *logNormalBlock) (graph.Distribution, error) {
	switch {
	case block.Mu != nil && block.Sigma != nil:
		return graph.LogNormal{Mu: *block.Mu, Sigma: *block.Sigma}, nil
	case block.Mean != nil && block.ErrorFactor != nil:
		if *block.Mean <= 0 || *block.ErrorFactor <= 1 {
			return nil, fmt.Errorf("%w: event %q lognormal needs mean > 0 and error_factor > 1",
				ErrValidation, name)
		}
		return graph.NewLogNormalEF(*block.Mean, *block.ErrorFactor), nil
	}
	return nil, fmt.Errorf("%w: event %q lognormal needs (mu, sigma) or (mean, error_factor)",
		ErrValidation, name)
}
