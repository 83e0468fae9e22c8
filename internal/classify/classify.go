// Package classify maps a device's reading set to an operating-health state.
// Classification is an ordered cascade of pure rules; the first matching rule
// wins and a default rule guarantees the cascade is total.
package classify

import (
	"strings"

	"github.com/HenilJainIO/trapsight/internal/domain"
)

// Config carries the heuristic thresholds. The defaults come from the source
// heuristic and are not derived from a physical model; treat them as tunables.
type Config struct {
	// NormalAboveDeltaC: an inlet−outlet differential above this is a
	// working trap.
	NormalAboveDeltaC float64 `yaml:"normal_above_delta_c"`
	// FloodingBelowDeltaC: a differential below this indicates flooding.
	FloodingBelowDeltaC float64 `yaml:"flooding_below_delta_c"`
}

func (c *Config) ApplyDefaults() {
	if c.NormalAboveDeltaC == 0 {
		c.NormalAboveDeltaC = 100
	}
	if c.FloodingBelowDeltaC == 0 {
		c.FloodingBelowDeltaC = 20
	}
}

// Rule is one step of the cascade. Apply returns the classification and true
// when the rule matches; rules never mutate the readings.
type Rule interface {
	Name() string
	Apply(readings []domain.SensorReading) (domain.HealthState, bool)
}

// Classifier evaluates its rules in order. Identical reading sets always
// classify identically.
type Classifier struct {
	rules []Rule
}

// New builds the standard cascade: status-code match, status-name substring,
// temperature-differential heuristic, then default-normal.
func New(cfg Config) *Classifier {
	cfg.ApplyDefaults()
	return &Classifier{
		rules: []Rule{
			codeMatchRule{},
			nameMatchRule{},
			tempDifferentialRule{cfg: cfg},
			defaultRule{},
		},
	}
}

// Classify runs the cascade. It is total: the default rule always matches.
func (c *Classifier) Classify(readings []domain.SensorReading) domain.HealthState {
	for _, r := range c.rules {
		if state, ok := r.Apply(readings); ok {
			return state
		}
	}
	return domain.Unknown
}

// Rules exposes the cascade so each step can be audited and tested in
// isolation.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

var statusLabelNeedles = []string{"status", "condition", "trap"}

// statusReading locates the first reading whose label looks like a trap
// status sensor.
func statusReading(readings []domain.SensorReading) (domain.SensorReading, bool) {
	for _, r := range readings {
		label := strings.ToLower(r.Label)
		for _, needle := range statusLabelNeedles {
			if strings.Contains(label, needle) {
				return r, true
			}
		}
	}
	return domain.SensorReading{}, false
}

// codeMatchRule resolves an integer status value against the known code table.
type codeMatchRule struct{}

func (codeMatchRule) Name() string { return "status-code" }

func (codeMatchRule) Apply(readings []domain.SensorReading) (domain.HealthState, bool) {
	r, ok := statusReading(readings)
	if !ok {
		return domain.Unknown, false
	}
	code, ok := r.Value.Int()
	if !ok {
		return domain.Unknown, false
	}
	return domain.HealthByCode(code)
}

// nameMatchRule scans the status value's text for a known state name.
type nameMatchRule struct{}

func (nameMatchRule) Name() string { return "status-name" }

func (nameMatchRule) Apply(readings []domain.SensorReading) (domain.HealthState, bool) {
	r, ok := statusReading(readings)
	if !ok {
		return domain.Unknown, false
	}
	text, ok := r.Value.Text()
	if !ok {
		return domain.Unknown, false
	}
	lowered := strings.ToLower(text)
	for _, state := range domain.KnownStates() {
		if strings.Contains(lowered, strings.ToLower(state.Name)) {
			return state, true
		}
	}
	return domain.Unknown, false
}

// tempDifferentialRule infers health from the inlet/outlet spread when no
// status sensor is present.
type tempDifferentialRule struct {
	cfg Config
}

func (tempDifferentialRule) Name() string { return "temp-differential" }

func (t tempDifferentialRule) Apply(readings []domain.SensorReading) (domain.HealthState, bool) {
	diff, ok := TempDifferential(readings)
	if !ok {
		return domain.Unknown, false
	}
	if diff > t.cfg.NormalAboveDeltaC {
		return domain.Normal, true
	}
	if diff < t.cfg.FloodingBelowDeltaC {
		return domain.HeavyFlooding, true
	}
	return domain.Unknown, false
}

// defaultRule closes the cascade: no evidence of fault means normal.
type defaultRule struct{}

func (defaultRule) Name() string { return "default-normal" }

func (defaultRule) Apply([]domain.SensorReading) (domain.HealthState, bool) {
	return domain.Normal, true
}

// TempDifferential returns inlet−outlet when both temperature readings are
// present and numeric. The aggregator reuses it for the fleet average.
func TempDifferential(readings []domain.SensorReading) (float64, bool) {
	inlet, inletOK := findTemp(readings, "inlet")
	outlet, outletOK := findTemp(readings, "outlet")
	if !inletOK || !outletOK {
		return 0, false
	}
	return inlet - outlet, true
}

func findTemp(readings []domain.SensorReading, side string) (float64, bool) {
	for _, r := range readings {
		label := strings.ToLower(r.Label)
		if strings.Contains(label, side) && strings.Contains(label, "temp") {
			if v, ok := r.Value.Float(); ok {
				return v, true
			}
		}
	}
	return 0, false
}
