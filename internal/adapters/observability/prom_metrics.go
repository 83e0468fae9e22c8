package observability

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HenilJainIO/trapsight/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	fetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trapsight_fetches_total",
		Help: "Total snapshot fetches issued against the telemetry source.",
	})
	fetchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trapsight_fetch_failures_total",
		Help: "Fetches that the telemetry source failed to serve.",
	})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trapsight_refresh_cycles_total",
		Help: "Completed fleet refresh cycles.",
	})
	devices := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trapsight_devices",
		Help: "Monitored devices in the current working set.",
	})
	offline := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trapsight_devices_offline",
		Help: "Devices counted in the offline tier after the last cycle.",
	})
	efficiency := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trapsight_fleet_efficiency_pct",
		Help: "Share of devices classified normal, in percent.",
	})
	cycleSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trapsight_refresh_cycle_seconds",
		Help:    "Wall time of one full list+fetch+aggregate cycle.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	prometheus.MustRegister(fetches, fetchFailures, cycles, devices, offline, efficiency, cycleSeconds)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"trapsight_fetches_total":        fetches,
			"trapsight_fetch_failures_total": fetchFailures,
			"trapsight_refresh_cycles_total": cycles,
		},
		gauges: map[string]prometheus.Gauge{
			"trapsight_devices":              devices,
			"trapsight_devices_offline":      offline,
			"trapsight_fleet_efficiency_pct": efficiency,
		},
		histos: map[string]prometheus.Observer{
			"trapsight_refresh_cycle_seconds": cycleSeconds,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, renderFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, renderFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func renderFields(fields []ports.Field) string {
	out := ""
	for _, f := range fields {
		out += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return out
}
