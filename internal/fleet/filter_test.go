package fleet

import (
	"testing"
	"time"

	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/kpi"
)

func testAggregator() *kpi.Aggregator {
	return kpi.New(kpi.Config{}, classify.New(classify.Config{}))
}

func snapWithStatus(id string, code float64) *domain.DeviceSnapshot {
	return &domain.DeviceSnapshot{
		DeviceID: id,
		Readings: []domain.SensorReading{
			{Label: "status", Value: domain.NumberValue(code)},
		},
		State:       domain.StateReady,
		LastFetched: time.Now(),
	}
}

func TestFilterAllPreservesOrder(t *testing.T) {
	devices := []domain.Device{
		{ID: "c", TypeID: "steam"},
		{ID: "a", TypeID: "steam"},
		{ID: "b", TypeID: "steam"},
	}
	got := FilterByTier(devices, nil, domain.TierAll, testAggregator())
	if len(got) != len(devices) {
		t.Fatalf("expected %d devices, got %d", len(devices), len(got))
	}
	for i := range devices {
		if got[i].ID != devices[i].ID {
			t.Fatalf("order changed at %d: %s vs %s", i, got[i].ID, devices[i].ID)
		}
	}
}

func TestFilterByTierSelectsMatching(t *testing.T) {
	devices := []domain.Device{
		{ID: "normal"}, {ID: "warning"}, {ID: "critical"}, {ID: "failed"},
	}
	snaps := map[string]*domain.DeviceSnapshot{
		"normal":   snapWithStatus("normal", 1),
		"warning":  snapWithStatus("warning", 3),
		"critical": snapWithStatus("critical", 9),
		"failed":   {DeviceID: "failed", State: domain.StateFailed, Err: "nope", Readings: []domain.SensorReading{}},
	}
	agg := testAggregator()

	if got := FilterByTier(devices, snaps, domain.TierCritical, agg); len(got) != 1 || got[0].ID != "critical" {
		t.Fatalf("unexpected critical filter result: %+v", got)
	}
	if got := FilterByTier(devices, snaps, domain.TierOffline, agg); len(got) != 1 || got[0].ID != "failed" {
		t.Fatalf("unexpected offline filter result: %+v", got)
	}
}

func TestFilterMissingSnapshotOnlyOffline(t *testing.T) {
	devices := []domain.Device{{ID: "ghost"}}
	agg := testAggregator()

	for _, tier := range []domain.Tier{domain.TierNormal, domain.TierWarning, domain.TierCritical} {
		if got := FilterByTier(devices, map[string]*domain.DeviceSnapshot{}, tier, agg); len(got) != 0 {
			t.Fatalf("device without snapshot must not match %s", tier)
		}
	}
	if got := FilterByTier(devices, map[string]*domain.DeviceSnapshot{}, domain.TierOffline, agg); len(got) != 1 {
		t.Fatalf("device without snapshot must match offline")
	}
}

func TestFilterAgreesWithAggregator(t *testing.T) {
	devices := []domain.Device{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
	}
	snaps := map[string]*domain.DeviceSnapshot{
		"a": snapWithStatus("a", 1),
		"b": snapWithStatus("b", 5),
		"c": snapWithStatus("c", 6),
		"d": {DeviceID: "d", State: domain.StateReady, Readings: []domain.SensorReading{}, LastFetched: time.Now()},
		"e": {DeviceID: "e", State: domain.StateFailed, Err: "x", Readings: []domain.SensorReading{}},
	}
	agg := testAggregator()
	k := agg.Aggregate(snaps)

	counts := map[domain.Tier]int{
		domain.TierNormal:   k.StatusCounts.Normal,
		domain.TierWarning:  k.StatusCounts.Warning,
		domain.TierCritical: k.StatusCounts.Critical,
		domain.TierOffline:  k.StatusCounts.Offline,
	}
	for tier, want := range counts {
		if got := len(FilterByTier(devices, snaps, tier, agg)); got != want {
			t.Fatalf("tier %s: filter returned %d, aggregator counted %d", tier, got, want)
		}
	}
}
