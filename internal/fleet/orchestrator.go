// Package fleet coordinates concurrent snapshot retrieval for the whole
// device fleet and recomputes the aggregate after every cycle.
package fleet

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/identify"
	"github.com/HenilJainIO/trapsight/internal/kpi"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// Config controls the refresh cadences and fetch fan-out.
type Config struct {
	// CardRefresh is the fast per-card cadence.
	CardRefresh time.Duration `yaml:"card_refresh"`
	// TableRefresh is the slower fleet-table cadence.
	TableRefresh time.Duration `yaml:"table_refresh"`
	// MaxConcurrentFetches bounds the fan-out per cycle.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`
}

func (c *Config) ApplyDefaults() {
	if c.CardRefresh <= 0 {
		c.CardRefresh = 10 * time.Second
	}
	if c.TableRefresh <= 0 {
		c.TableRefresh = time.Minute
	}
	if c.MaxConcurrentFetches <= 0 {
		c.MaxConcurrentFetches = 16
	}
}

// Orchestrator owns the snapshot map exclusively. Fetch tasks report their
// results back to the cycle goroutine, which applies them serially and swaps
// the published view under a read lock, so no per-device locking is needed.
type Orchestrator struct {
	cfg      Config
	src      ports.TelemetrySource
	agg      *kpi.Aggregator
	cls      *classify.Classifier
	obs      ports.Observability
	notifier ports.Notifier
	store    ports.StateStore

	refreshCh chan struct{}

	mu        sync.RWMutex
	devices   []domain.Device
	meta      map[string]*domain.DeviceMetadata
	snapshots map[string]*domain.DeviceSnapshot
	kpis      domain.FleetKPIs
}

// New wires an orchestrator; notifier may be nil when nothing consumes
// aggregate updates.
func New(cfg Config, src ports.TelemetrySource, agg *kpi.Aggregator, cls *classify.Classifier, obs ports.Observability, notifier ports.Notifier) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		cfg:       cfg,
		src:       src,
		agg:       agg,
		cls:       cls,
		obs:       obs,
		notifier:  notifier,
		refreshCh: make(chan struct{}, 1),
		meta:      make(map[string]*domain.DeviceMetadata),
		snapshots: make(map[string]*domain.DeviceSnapshot),
	}
}

// AttachStateStore enables warm-start journaling. Must be called before Run.
func (o *Orchestrator) AttachStateStore(s ports.StateStore) { o.store = s }

// Restore seeds the published view from the last journaled cycle so readers
// see stale-but-real data until the first fresh cycle lands. Only raw state is
// journaled; the aggregate is recomputed here.
func (o *Orchestrator) Restore() {
	if o.store == nil {
		return
	}
	state, ok, err := o.store.LoadLatest()
	if err != nil {
		o.obs.LogError("state_restore_failed", err)
		return
	}
	if !ok {
		return
	}
	if state.Metadata == nil {
		state.Metadata = make(map[string]*domain.DeviceMetadata)
	}
	if state.Snapshots == nil {
		state.Snapshots = make(map[string]*domain.DeviceSnapshot)
	}

	kpis := o.agg.Aggregate(state.Snapshots)

	o.mu.Lock()
	o.devices = state.Devices
	o.meta = state.Metadata
	o.snapshots = state.Snapshots
	o.kpis = kpis
	o.mu.Unlock()

	o.obs.LogInfo("state_restored", ports.Field{Key: "devices", Value: len(state.Devices)})
}

// Run blocks until the context is cancelled. Both periodic cadences and the
// manual refresh signal converge on the same cycle; a trigger arriving while
// a cycle is in flight coalesces into the buffered channel.
func (o *Orchestrator) Run(ctx context.Context) error {
	card := time.NewTicker(o.cfg.CardRefresh)
	defer card.Stop()
	table := time.NewTicker(o.cfg.TableRefresh)
	defer table.Stop()

	o.Restore()
	o.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-card.C:
			o.Refresh(ctx)
		case <-table.C:
			o.Refresh(ctx)
		case <-o.refreshCh:
			o.Refresh(ctx)
		}
	}
}

// RefreshNow requests a refresh without blocking the caller; redundant
// requests while one is pending are collapsed.
func (o *Orchestrator) RefreshNow() {
	select {
	case o.refreshCh <- struct{}{}:
	default:
	}
}

type cycleResult struct {
	drop bool
	meta *domain.DeviceMetadata
	snap *domain.DeviceSnapshot
}

// Refresh runs one full cycle synchronously: list, filter, fan-out fetch,
// fan-in, aggregate, publish, notify. Per-device failures are recorded as
// failed snapshots and never abort the cycle.
func (o *Orchestrator) Refresh(ctx context.Context) {
	start := time.Now()

	raw, err := o.src.ListDevices(ctx)
	if err != nil {
		// Keep the previous working set; the next trigger retries.
		o.obs.LogError("device_list_failed", err)
		return
	}

	coarse := make([]domain.Device, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, d := range raw {
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		if identify.Monitored(d.TypeID, "") {
			coarse = append(coarse, d)
		}
	}

	results := make([]cycleResult, len(coarse))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentFetches)
	for i, d := range coarse {
		i, d := i, d
		g.Go(func() error {
			meta, err := o.src.Metadata(gctx, d.ID)
			if err != nil {
				o.obs.LogError("metadata_fetch_failed", err, ports.Field{Key: "device", Value: d.ID})
				meta = nil
			}
			typeName := ""
			if meta != nil {
				typeName = meta.TypeName
			}
			if !identify.Monitored(d.TypeID, typeName) {
				results[i] = cycleResult{drop: true}
				return nil
			}
			results[i] = cycleResult{meta: meta, snap: o.fetchOne(gctx, d.ID)}
			return nil
		})
	}
	// Fetch tasks represent failure as data and never return errors.
	_ = g.Wait()

	devices := make([]domain.Device, 0, len(coarse))
	meta := make(map[string]*domain.DeviceMetadata, len(coarse))
	snapshots := make(map[string]*domain.DeviceSnapshot, len(coarse))
	for i, res := range results {
		if res.drop {
			continue
		}
		d := coarse[i]
		devices = append(devices, d)
		if res.meta != nil {
			meta[d.ID] = res.meta
		}
		snapshots[d.ID] = res.snap
	}

	kpis := o.agg.Aggregate(snapshots)

	o.mu.Lock()
	o.devices = devices
	o.meta = meta
	o.snapshots = snapshots
	o.kpis = kpis
	o.mu.Unlock()

	o.obs.IncCounter("trapsight_refresh_cycles_total", 1)
	o.obs.SetGauge("trapsight_devices", float64(kpis.Total))
	o.obs.SetGauge("trapsight_devices_offline", float64(kpis.StatusCounts.Offline))
	o.obs.SetGauge("trapsight_fleet_efficiency_pct", kpis.EfficiencyPct)
	o.obs.ObserveLatency("trapsight_refresh_cycle_seconds", time.Since(start).Seconds())

	if o.notifier != nil {
		o.notifier.AggregateUpdated(kpis)
	}

	// Journaling is best-effort; the published view above is already live.
	if o.store != nil {
		state := &domain.FleetState{Devices: devices, Metadata: meta, Snapshots: snapshots}
		if err := o.store.SaveCycle(state); err != nil {
			o.obs.LogError("state_save_failed", err)
		}
	}
}

// fetchOne retrieves the latest reading set for one device. Collaborator
// errors become a failed snapshot, never a raised error; a device with no
// readings is ready with an empty list.
func (o *Orchestrator) fetchOne(ctx context.Context, deviceID string) *domain.DeviceSnapshot {
	o.obs.IncCounter("trapsight_fetches_total", 1)

	readings, err := o.src.LatestReadings(ctx, deviceID)
	if err != nil {
		o.obs.IncCounter("trapsight_fetch_failures_total", 1)
		o.obs.LogError("fetch_failed", err, ports.Field{Key: "device", Value: deviceID})
		return &domain.DeviceSnapshot{
			DeviceID: deviceID,
			Readings: []domain.SensorReading{},
			State:    domain.StateFailed,
			Err:      err.Error(),
		}
	}
	if readings == nil {
		readings = []domain.SensorReading{}
	}
	return &domain.DeviceSnapshot{
		DeviceID:    deviceID,
		Readings:    readings,
		State:       domain.StateReady,
		LastFetched: time.Now(),
	}
}

// Devices returns the current confirmed device set in fetch order.
func (o *Orchestrator) Devices() []domain.Device {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.Device, len(o.devices))
	copy(out, o.devices)
	return out
}

// Snapshot returns a copy of one device's current snapshot.
func (o *Orchestrator) Snapshot(deviceID string) (domain.DeviceSnapshot, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap, ok := o.snapshots[deviceID]
	if !ok {
		return domain.DeviceSnapshot{}, false
	}
	return *snap, true
}

// Metadata returns the enrichment record for a device when one was supplied.
func (o *Orchestrator) Metadata(deviceID string) (*domain.DeviceMetadata, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.meta[deviceID]
	return m, ok
}

// Health classifies the device's current snapshot. It is computed fresh on
// every call so it can never outlive the snapshot it came from.
func (o *Orchestrator) Health(deviceID string) domain.HealthState {
	o.mu.RLock()
	snap, ok := o.snapshots[deviceID]
	o.mu.RUnlock()
	if !ok || snap.State == domain.StateFailed || len(snap.Readings) == 0 {
		return domain.Unknown
	}
	return o.cls.Classify(snap.Readings)
}

// KPIs returns the aggregate from the most recent cycle.
func (o *Orchestrator) KPIs() domain.FleetKPIs {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.kpis
}

// FilterByTier applies the filter engine to the current working set.
func (o *Orchestrator) FilterByTier(tier domain.Tier) []domain.Device {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return FilterByTier(o.devices, o.snapshots, tier, o.agg)
}
