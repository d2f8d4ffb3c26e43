package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load reads a YAML configuration file on top of DefaultSettings.
//
// The analysis.* switches are string booleans ("1"/"true"/"0"/"false")
// so that hand-written configs fail loudly on typos instead of viper's
// permissive coercion.
func Load(path string) (Settings, error) {
	s := DefaultSettings()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return s, fmt.Errorf("config file %s: %w", path, statErr)
		}
		return s, fmt.Errorf("%w: config file %s: %v", ErrInvalidSettings, path, err)
	}

	flags := []struct {
		key  string
		dest *bool
	}{
		{"analysis.probability", &s.ProbabilityAnalysis},
		{"analysis.importance", &s.ImportanceAnalysis},
		{"analysis.uncertainty", &s.UncertaintyAnalysis},
		{"analysis.ccf", &s.CcfAnalysis},
	}
	for _, f := range flags {
		if !v.IsSet(f.key) {
			continue
		}
		val, err := ParseBool(v.GetString(f.key))
		if err != nil {
			return s, fmt.Errorf("option %s: %w", f.key, err)
		}
		*f.dest = val
	}

	if v.IsSet("approx") {
		s.Approx = Approx(v.GetString("approx"))
	}
	if v.IsSet("limits.limit_order") {
		s.LimitOrder = v.GetInt("limits.limit_order")
	}
	if v.IsSet("limits.mission_time") {
		s.MissionTime = v.GetFloat64("limits.mission_time")
	}
	if v.IsSet("limits.cut_off") {
		s.CutOff = v.GetFloat64("limits.cut_off")
	}
	if v.IsSet("limits.num_sums") {
		s.NumSums = v.GetInt("limits.num_sums")
	}
	if v.IsSet("limits.num_trials") {
		s.NumTrials = v.GetInt("limits.num_trials")
	}
	if v.IsSet("limits.seed") {
		s.Seed = v.GetInt64("limits.seed")
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
