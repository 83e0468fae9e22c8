package kpi

import (
	"testing"
	"time"

	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/domain"
)

func newAggregator() *Aggregator {
	return New(Config{}, classify.New(classify.Config{}))
}

func readySnapshot(id string, readings ...domain.SensorReading) *domain.DeviceSnapshot {
	return &domain.DeviceSnapshot{
		DeviceID:    id,
		Readings:    readings,
		State:       domain.StateReady,
		LastFetched: time.Now(),
	}
}

func statusReading(code float64) domain.SensorReading {
	return domain.SensorReading{Label: "trap status", Value: domain.NumberValue(code)}
}

func tempReadings(inlet, outlet float64) []domain.SensorReading {
	return []domain.SensorReading{
		{Label: "inlet temp", Value: domain.NumberValue(inlet)},
		{Label: "outlet temp", Value: domain.NumberValue(outlet)},
	}
}

func TestAggregateEmptyFleet(t *testing.T) {
	k := newAggregator().Aggregate(map[string]*domain.DeviceSnapshot{})
	if k.Total != 0 || k.EfficiencyPct != 0 || k.UptimePct != 0 {
		t.Fatalf("empty fleet must produce zeroes, got %+v", k)
	}
}

func TestAggregateTierCountsSumToTotal(t *testing.T) {
	snaps := map[string]*domain.DeviceSnapshot{
		"a": readySnapshot("a", statusReading(1)),
		"b": readySnapshot("b", statusReading(3)),
		"c": readySnapshot("c", statusReading(9)),
		"d": readySnapshot("d"), // ready, no readings: offline
		"e": {DeviceID: "e", State: domain.StateFailed, Err: "boom", Readings: []domain.SensorReading{}},
		"f": {DeviceID: "f", State: domain.StatePending, Readings: []domain.SensorReading{}},
	}
	k := newAggregator().Aggregate(snaps)
	if k.Total != 6 {
		t.Fatalf("expected total 6, got %d", k.Total)
	}
	if got := k.StatusCounts.Sum(); got != k.Total {
		t.Fatalf("tier counts must sum to total: %d != %d", got, k.Total)
	}
	if k.StatusCounts.Normal != 1 || k.StatusCounts.Warning != 1 || k.StatusCounts.Critical != 1 || k.StatusCounts.Offline != 3 {
		t.Fatalf("unexpected buckets: %+v", k.StatusCounts)
	}
}

func TestAggregateEfficiencyAndUptime(t *testing.T) {
	snaps := map[string]*domain.DeviceSnapshot{
		"a": readySnapshot("a", statusReading(1)),
		"b": readySnapshot("b", statusReading(1)),
		"c": readySnapshot("c", statusReading(6)),
		"d": {DeviceID: "d", State: domain.StateFailed, Err: "timeout", Readings: []domain.SensorReading{}},
	}
	k := newAggregator().Aggregate(snaps)
	if k.EfficiencyPct != 50 {
		t.Fatalf("expected efficiency 50, got %f", k.EfficiencyPct)
	}
	if k.Online != 3 {
		t.Fatalf("expected 3 online, got %d", k.Online)
	}
	if k.UptimePct != 75 {
		t.Fatalf("expected uptime 75, got %f", k.UptimePct)
	}
}

func TestAggregateReadyEmptyCountsOnlineButOffline(t *testing.T) {
	// A successful fetch with zero readings is online for uptime purposes but
	// sits in the offline tier.
	snaps := map[string]*domain.DeviceSnapshot{
		"a": readySnapshot("a"),
	}
	k := newAggregator().Aggregate(snaps)
	if k.Online != 1 {
		t.Fatalf("ready device should count online, got %d", k.Online)
	}
	if k.StatusCounts.Offline != 1 {
		t.Fatalf("empty reading list should bucket offline, got %+v", k.StatusCounts)
	}
	if k.AvgTempDifferential != 0 {
		t.Fatalf("device without temps must not affect the differential, got %f", k.AvgTempDifferential)
	}
}

func TestAggregateEnergyLoss(t *testing.T) {
	snaps := map[string]*domain.DeviceSnapshot{
		"choking": readySnapshot("choking", statusReading(6)),
		"leak":    readySnapshot("leak", statusReading(9)),
		"normal":  readySnapshot("normal", statusReading(1)),
	}
	k := newAggregator().Aggregate(snaps)
	if k.EnergyLossUnits != 25 {
		t.Fatalf("expected 10+15 loss units, got %f", k.EnergyLossUnits)
	}
}

func TestAggregateEnergyLossConfigurable(t *testing.T) {
	agg := New(Config{ChokingLossUnits: 1, HeavyLeakLossUnits: 2}, classify.New(classify.Config{}))
	snaps := map[string]*domain.DeviceSnapshot{
		"choking": readySnapshot("choking", statusReading(6)),
		"leak":    readySnapshot("leak", statusReading(9)),
	}
	if k := agg.Aggregate(snaps); k.EnergyLossUnits != 3 {
		t.Fatalf("expected 3 loss units, got %f", k.EnergyLossUnits)
	}
}

func TestAggregateAvgTempDifferential(t *testing.T) {
	snaps := map[string]*domain.DeviceSnapshot{
		"a": readySnapshot("a", tempReadings(260, 50)...), // diff 210
		"b": readySnapshot("b", tempReadings(100, 90)...), // diff 10
		"c": readySnapshot("c", statusReading(1)),         // no temps, excluded
	}
	k := newAggregator().Aggregate(snaps)
	if k.AvgTempDifferential != 110 {
		t.Fatalf("expected mean differential 110, got %f", k.AvgTempDifferential)
	}
}

func TestTierOfMissingSnapshot(t *testing.T) {
	if tier := newAggregator().TierOf(nil); tier != domain.TierOffline {
		t.Fatalf("missing snapshot must be offline, got %s", tier)
	}
}

func TestTierOfMatchesHealthTier(t *testing.T) {
	agg := newAggregator()
	snap := readySnapshot("a", statusReading(9))
	if tier := agg.TierOf(snap); tier != domain.TierCritical {
		t.Fatalf("expected critical, got %s", tier)
	}
}
