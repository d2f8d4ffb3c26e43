package graph

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"golang.org/x/exp/rand"
)

// Expression is a user-defined probability formula evaluated with CEL.
// The compiled program sees two variables:
//
//	mission_time  the configured mission time in hours
//	u             a uniform [0,1) deviate, drawn once per trial
//
// The deviate is memoised between Reset calls, so an expression
// referenced from several events within one trial stays correlated.
type Expression struct {
	Code        string
	MissionTime float64

	prg     cel.Program
	sampled bool
	value   float64
}

// NewExpression compiles the CEL formula once; evaluation happens per
// sample.
func NewExpression(code string, missionTime float64) (*Expression, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("mission_time", decls.Double),
			decls.NewVar("u", decls.Double),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	ast, issues := env.Compile(code)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expression compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expression program creation error: %w", err)
	}
	return &Expression{Code: code, MissionTime: missionTime, prg: prg}, nil
}

// Reset discards the memoised draw so the next Sample starts a fresh
// trial.
func (d *Expression) Reset() { d.sampled = false }

func (d *Expression) Sample(src rand.Source) float64 {
	if d.sampled {
		return d.value
	}
	u := rand.New(src).Float64()
	out, _, err := d.prg.Eval(map[string]interface{}{
		"mission_time": d.MissionTime,
		"u":            u,
	})
	if err != nil {
		slog.Error("Expression evaluation failed", "code", d.Code, "error", err)
		d.sampled = true
		d.value = math.NaN()
		return d.value
	}
	d.sampled = true
	switch v := out.Value().(type) {
	case float64:
		d.value = v
	case int64:
		d.value = float64(v)
	default:
		d.value = math.NaN()
	}
	return d.value
}

// ExponentialProb is the constant-rate failure model p = 1 - e^(-lt),
// used to derive a nominal probability from a failure rate and the
// mission time.
func ExponentialProb(lambda, missionTime float64) float64 {
	return -math.Expm1(-lambda * missionTime)
}
