// Package config defines analysis settings, defaults, and validation.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSettings indicates an option value outside its allowed range
// or an unrecognized option string.
var ErrInvalidSettings = errors.New("invalid settings")

// Approx selects the cut-set probability formula.
type Approx string

const (
	// ApproxRareEvent sums cut-set probabilities.
	ApproxRareEvent Approx = "rare-event"
	// ApproxMCUB is the min-cut-upper-bound formula.
	ApproxMCUB Approx = "mcub"
	// ApproxNone runs truncated inclusion-exclusion (exact if num_sums
	// covers all terms).
	ApproxNone Approx = "no"
)

// Settings holds the quantitative analysis options.
type Settings struct {
	ProbabilityAnalysis bool `mapstructure:"probability_analysis"`
	ImportanceAnalysis  bool `mapstructure:"importance_analysis"`
	UncertaintyAnalysis bool `mapstructure:"uncertainty_analysis"`
	CcfAnalysis         bool `mapstructure:"ccf_analysis"`

	Approx      Approx  `mapstructure:"approx" validate:"oneof=rare-event mcub no"`
	LimitOrder  int     `mapstructure:"limit_order" validate:"gte=1"`
	MissionTime float64 `mapstructure:"mission_time" validate:"gt=0"`
	CutOff      float64 `mapstructure:"cut_off" validate:"gte=0,lte=1"`
	NumSums     int     `mapstructure:"num_sums" validate:"gte=1"`
	NumTrials   int     `mapstructure:"num_trials" validate:"gte=1"`
	Seed        int64   `mapstructure:"seed"`
}

// Defaults mirror the common PRA tool baseline.
func DefaultSettings() Settings {
	return Settings{
		ProbabilityAnalysis: true,
		Approx:              ApproxRareEvent,
		LimitOrder:          20,
		MissionTime:         8760,
		CutOff:              1e-8,
		NumSums:             7,
		NumTrials:           1000,
		Seed:                0,
	}
}

var validate = validator.New()

// Validate checks all numeric ranges and enum values.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.ImportanceAnalysis && !s.ProbabilityAnalysis {
		return fmt.Errorf("%w: importance_analysis requires probability_analysis", ErrInvalidSettings)
	}
	if s.UncertaintyAnalysis && !s.ProbabilityAnalysis {
		return fmt.Errorf("%w: uncertainty_analysis requires probability_analysis", ErrInvalidSettings)
	}
	return nil
}

// ParseBool converts the option strings accepted in configuration files.
// Only "1", "true", "0", "false" are recognized; anything else is a
// validation error rather than a silent fall-through.
func ParseBool(flag string) (bool, error) {
	switch flag {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: boolean option must be 0/1/true/false, got %q", ErrInvalidSettings, flag)
}
