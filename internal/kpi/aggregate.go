// Package kpi reduces the current snapshot set into fleet-level indicators.
// Aggregation is pure: it never mutates a snapshot and never fails, degrading
// to zeroed percentages over an empty fleet.
package kpi

import (
	"time"

	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/domain"
)

// Config carries the energy-loss constants per critical state. Like the
// temperature thresholds these come from the source heuristic, not a stated
// physical model.
type Config struct {
	ChokingLossUnits   float64 `yaml:"choking_loss_units"`
	HeavyLeakLossUnits float64 `yaml:"heavy_leak_loss_units"`
}

func (c *Config) ApplyDefaults() {
	if c.ChokingLossUnits == 0 {
		c.ChokingLossUnits = 10
	}
	if c.HeavyLeakLossUnits == 0 {
		c.HeavyLeakLossUnits = 15
	}
}

// Aggregator buckets devices by tier and rolls the fleet KPIs up. It shares
// its tier derivation with the filter engine so the two always agree.
type Aggregator struct {
	cfg Config
	cls *classify.Classifier
}

func New(cfg Config, cls *classify.Classifier) *Aggregator {
	cfg.ApplyDefaults()
	return &Aggregator{cfg: cfg, cls: cls}
}

// TierOf derives the tier bucket for one device. A missing or failed
// snapshot, a pending snapshot with no completed fetch, or a ready snapshot
// with no readings all count as offline; everything else classifies.
func (a *Aggregator) TierOf(snap *domain.DeviceSnapshot) domain.Tier {
	if snap == nil || snap.State == domain.StateFailed {
		return domain.TierOffline
	}
	if len(snap.Readings) == 0 {
		return domain.TierOffline
	}
	return a.cls.Classify(snap.Readings).Tier()
}

// Aggregate computes the fleet KPIs over the full current snapshot set.
func (a *Aggregator) Aggregate(snapshots map[string]*domain.DeviceSnapshot) domain.FleetKPIs {
	k := domain.FleetKPIs{
		Total:      len(snapshots),
		ComputedAt: time.Now(),
	}

	var diffSum float64
	var diffCount int

	for _, snap := range snapshots {
		if snap.Online() {
			k.Online++
		}

		switch a.TierOf(snap) {
		case domain.TierNormal:
			k.StatusCounts.Normal++
		case domain.TierWarning:
			k.StatusCounts.Warning++
		case domain.TierCritical:
			k.StatusCounts.Critical++
			state := a.cls.Classify(snap.Readings)
			switch state.Code {
			case domain.Choking.Code:
				k.EnergyLossUnits += a.cfg.ChokingLossUnits
			case domain.HeavyLeak.Code:
				k.EnergyLossUnits += a.cfg.HeavyLeakLossUnits
			}
		default:
			k.StatusCounts.Offline++
		}

		if snap != nil {
			if diff, ok := classify.TempDifferential(snap.Readings); ok {
				diffSum += diff
				diffCount++
			}
		}
	}

	if k.Total > 0 {
		k.EfficiencyPct = float64(k.StatusCounts.Normal) / float64(k.Total) * 100
		k.UptimePct = float64(k.Online) / float64(k.Total) * 100
	}
	if diffCount > 0 {
		k.AvgTempDifferential = diffSum / float64(diffCount)
	}
	return k
}
