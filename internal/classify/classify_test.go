package classify

import (
	"testing"
	"time"

	"github.com/HenilJainIO/trapsight/internal/domain"
)

func reading(label string, v domain.Value) domain.SensorReading {
	return domain.SensorReading{Label: label, Value: v, ObservedAt: time.Now()}
}

func TestClassifyStatusCodeNormal(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("Trap Status", domain.NumberValue(1)),
	})
	if state != domain.Normal {
		t.Fatalf("expected Normal, got %+v", state)
	}
	if state.Tier() != domain.TierNormal {
		t.Fatalf("expected normal tier, got %s", state.Tier())
	}
}

func TestClassifyStatusCodeHeavyLeak(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("status", domain.NumberValue(9)),
	})
	if state != domain.HeavyLeak {
		t.Fatalf("expected Heavy Leak, got %+v", state)
	}
	if state.Code != 9 || state.Tier() != domain.TierCritical {
		t.Fatalf("expected code 9 critical, got code %d tier %s", state.Code, state.Tier())
	}
}

func TestClassifyStatusCodeAsText(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("Condition", domain.TextValue(" 6 ")),
	})
	if state != domain.Choking {
		t.Fatalf("expected Choking from textual code, got %+v", state)
	}
}

func TestClassifyStatusNameSubstring(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("trap condition", domain.TextValue("reported HEAVY FLOODING upstream")),
	})
	if state != domain.HeavyFlooding {
		t.Fatalf("expected Heavy Flooding, got %+v", state)
	}
}

func TestClassifyUnknownCodeFallsThrough(t *testing.T) {
	// Code 4 is not in the table; the text holds no known name either, and
	// there are no temperature readings, so the default rule applies.
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("status", domain.NumberValue(4)),
	})
	if state != domain.Normal {
		t.Fatalf("expected default Normal, got %+v", state)
	}
}

func TestClassifyTempDifferentialNormal(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("Inlet Temp", domain.NumberValue(260)),
		reading("Outlet Temp", domain.NumberValue(50)),
	})
	if state != domain.Normal {
		t.Fatalf("expected Normal for diff 210, got %+v", state)
	}
}

func TestClassifyTempDifferentialFlooding(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("inlet temperature", domain.NumberValue(100)),
		reading("outlet temperature", domain.NumberValue(90)),
	})
	if state != domain.HeavyFlooding {
		t.Fatalf("expected Heavy Flooding for diff 10, got %+v", state)
	}
}

func TestClassifyTempDifferentialMidbandDefaultsNormal(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("inlet temp", domain.NumberValue(150)),
		reading("outlet temp", domain.NumberValue(100)),
	})
	if state != domain.Normal {
		t.Fatalf("expected default Normal for diff 50, got %+v", state)
	}
}

func TestClassifyEmptyReadingsDefaultsNormal(t *testing.T) {
	c := New(Config{})
	if state := c.Classify(nil); state != domain.Normal {
		t.Fatalf("expected default Normal on empty readings, got %+v", state)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := New(Config{})
	readings := []domain.SensorReading{
		reading("status", domain.TextValue("choking detected")),
		reading("inlet temp", domain.NumberValue(200)),
		reading("outlet temp", domain.NumberValue(40)),
	}
	first := c.Classify(readings)
	for i := 0; i < 50; i++ {
		if got := c.Classify(readings); got != first {
			t.Fatalf("classification changed between calls: %+v vs %+v", first, got)
		}
	}
}

func TestClassifyStatusRuleWinsOverHeuristic(t *testing.T) {
	c := New(Config{})
	state := c.Classify([]domain.SensorReading{
		reading("status", domain.NumberValue(9)),
		reading("inlet temp", domain.NumberValue(260)),
		reading("outlet temp", domain.NumberValue(50)),
	})
	if state != domain.HeavyLeak {
		t.Fatalf("status code must win over the temperature heuristic, got %+v", state)
	}
}

func TestConfigurableThresholds(t *testing.T) {
	c := New(Config{NormalAboveDeltaC: 5, FloodingBelowDeltaC: 1})
	state := c.Classify([]domain.SensorReading{
		reading("inlet temp", domain.NumberValue(20)),
		reading("outlet temp", domain.NumberValue(10)),
	})
	if state != domain.Normal {
		t.Fatalf("expected Normal with lowered threshold, got %+v", state)
	}
}

func TestRuleOrder(t *testing.T) {
	c := New(Config{})
	rules := c.Rules()
	want := []string{"status-code", "status-name", "temp-differential", "default-normal"}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, name := range want {
		if rules[i].Name() != name {
			t.Fatalf("rule %d: expected %s, got %s", i, name, rules[i].Name())
		}
	}
}

func TestTempDifferentialMissingReadings(t *testing.T) {
	if _, ok := TempDifferential([]domain.SensorReading{
		reading("inlet temp", domain.NumberValue(100)),
	}); ok {
		t.Fatalf("differential requires both inlet and outlet")
	}
	if _, ok := TempDifferential([]domain.SensorReading{
		reading("inlet temp", domain.TextValue("n/a")),
		reading("outlet temp", domain.NumberValue(50)),
	}); ok {
		t.Fatalf("differential requires numeric values")
	}
}
