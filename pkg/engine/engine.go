// Package engine wires the quantitative analyses together: probability
// first, then importance and uncertainty, each reusing the same
// calculator and its working probability vector.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/riskhound/faultquant/pkg/bdd"
	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/engine/importance"
	"github.com/riskhound/faultquant/pkg/engine/prob"
	"github.com/riskhound/faultquant/pkg/engine/uncertainty"
	"github.com/riskhound/faultquant/pkg/graph"
)

// Config holds engine settings.
type Config struct {
	Settings config.Settings

	// JsonLogs switches the default logger to JSON output.
	JsonLogs bool

	// Dependencies.
	Logger *slog.Logger
}

// Results is the published outcome of one run. ProbabilityRan reports
// whether the probability analysis ran; the importance and uncertainty
// fields are nil for analyses that were not enabled.
type Results struct {
	ProbabilityRan bool
	PTotal         float64

	Importance      map[string]importance.Factors
	ImportantEvents []importance.RankedEvent

	Uncertainty *uncertainty.Result
}

// Engine is the runtime core.
type Engine struct {
	Graph   *graph.Graph
	CutSets []graph.CutSet
	Diagram *bdd.BDD
	Logger  *slog.Logger

	config Config
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.config.JsonLogs && e.config.Logger == nil {
		e.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if e.Graph == nil {
		return nil, fmt.Errorf("%w: engine requires a boolean graph", graph.ErrInconsistency)
	}
	if err := e.config.Settings.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
	}
}

// WithModel sets the graph view and cut-set collection.
func WithModel(g *graph.Graph, cutSets []graph.CutSet) Option {
	return func(e *Engine) {
		e.Graph = g
		e.CutSets = cutSets
	}
}

// WithDiagram provides the optional BDD; the calculator then uses
// exact bottom-up propagation instead of the cut-set approximations.
func WithDiagram(d *bdd.BDD) Option {
	return func(e *Engine) { e.Diagram = d }
}

// Run executes the enabled analyses in dependency order. The core is
// single-threaded cooperative; a started analysis runs to completion
// and ctx is consulted only between analyses.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	s := e.config.Settings
	results := &Results{}
	if !s.ProbabilityAnalysis {
		e.Logger.Info("Probability analysis disabled; nothing to quantify")
		return results, nil
	}
	if s.CcfAnalysis {
		// CCF expansion happens upstream of graph construction; the
		// flag is only logged and is not part of the Results record.
		e.Logger.Info("Model built with common-cause-failure expansion")
	}

	calc, err := prob.New(e.Graph, e.CutSets, e.Diagram, s, e.Logger)
	if err != nil {
		return nil, err
	}
	if err := calc.Analyze(); err != nil {
		return nil, err
	}
	results.ProbabilityRan = true
	results.PTotal = calc.PTotal()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.ImportanceAnalysis {
		imp := importance.New(calc, e.Logger)
		if err := imp.Analyze(); err != nil {
			return nil, err
		}
		results.Importance = imp.Importance()
		results.ImportantEvents = imp.ImportantEvents()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.UncertaintyAnalysis {
		unc := uncertainty.New(calc, s, e.Logger)
		if err := unc.Analyze(); err != nil {
			return nil, err
		}
		results.Uncertainty = unc.Result()
	}

	return results, nil
}
