package domain

import "time"

// StatusCounts buckets every device of a fleet into exactly one tier.
type StatusCounts struct {
	Normal   int `json:"normal"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Offline  int `json:"offline"`
}

// Sum is the number of devices accounted for across all tiers.
func (c StatusCounts) Sum() int {
	return c.Normal + c.Warning + c.Critical + c.Offline
}

// FleetKPIs is a derived value recomputed on demand from the current snapshot
// set; it is never mutated in place.
type FleetKPIs struct {
	Total               int          `json:"total"`
	Online              int          `json:"online"`
	StatusCounts        StatusCounts `json:"status_counts"`
	EfficiencyPct       float64      `json:"efficiency_pct"`
	UptimePct           float64      `json:"uptime_pct"`
	EnergyLossUnits     float64      `json:"energy_loss_units"`
	AvgTempDifferential float64      `json:"avg_temp_differential"`
	ComputedAt          time.Time    `json:"computed_at"`
}
