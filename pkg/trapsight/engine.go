// Package trapsight wires the classification engine, its telemetry-source
// adapter, and the presentation surfaces into a runnable service so the
// engine can be embedded in any Go program.
package trapsight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HenilJainIO/trapsight/internal/adapters/notify"
	"github.com/HenilJainIO/trapsight/internal/adapters/observability"
	"github.com/HenilJainIO/trapsight/internal/adapters/source"
	"github.com/HenilJainIO/trapsight/internal/adapters/statecache"
	"github.com/HenilJainIO/trapsight/internal/app/config"
	"github.com/HenilJainIO/trapsight/internal/app/httpapi"
	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/fleet"
	"github.com/HenilJainIO/trapsight/internal/kpi"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// Option customizes the dependencies used by Engine.
type Option func(*overrides)

type overrides struct {
	src ports.TelemetrySource
	obs ports.Observability
}

// WithTelemetrySource injects a custom collaborator implementation
// (simulators, test stubs, other transports).
func WithTelemetrySource(src ports.TelemetrySource) Option {
	return func(o *overrides) {
		o.src = src
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) {
		o.obs = obs
	}
}

// Engine owns the orchestrator, the websocket hub, and both HTTP servers.
type Engine struct {
	cfg  *config.Config
	obs  ports.Observability
	orch *fleet.Orchestrator
	hub  *notify.Hub

	apiSrv     *http.Server
	metricsSrv *http.Server

	db      *sql.DB
	mqttSrc *source.MQTTSource
	cache   *statecache.FileCache
}

// New bootstraps the default adapters: the configured telemetry source,
// Prometheus observability, and the websocket notifier. Options can override
// the source and observability backends.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	e := &Engine{cfg: cfg, obs: obs}

	src := ov.src
	if src == nil {
		var err error
		src, err = e.buildSource(cfg)
		if err != nil {
			return nil, err
		}
	}

	cls := classify.New(cfg.Classify)
	agg := kpi.New(cfg.KPI, cls)
	e.hub = notify.NewHub(obs)
	e.orch = fleet.New(cfg.Fleet, src, agg, cls, obs, e.hub)

	if cfg.StateCache.Dir != "" {
		cache, err := statecache.New(cfg.StateCache.Dir)
		if err != nil {
			return nil, fmt.Errorf("state cache: %w", err)
		}
		e.cache = cache
		e.orch.AttachStateStore(cache)
	}

	api := httpapi.NewServer(e.orch, e.hub)
	e.apiSrv = &http.Server{Addr: cfg.API.Addr, Handler: api.Router()}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	e.metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	return e, nil
}

func (e *Engine) buildSource(cfg *config.Config) (ports.TelemetrySource, error) {
	switch cfg.Source.Kind {
	case "http":
		return source.NewHTTPSource(cfg.Source.HTTP)
	case "sql":
		src, db, err := source.OpenSQLSource(cfg.Source.SQL)
		if err != nil {
			return nil, err
		}
		e.db = db
		return src, nil
	case "mqtt":
		src, err := source.NewMQTTSource(cfg.Source.MQTT)
		if err != nil {
			return nil, err
		}
		e.mqttSrc = src
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// Orchestrator exposes the engine's read model for embedding callers.
func (e *Engine) Orchestrator() *fleet.Orchestrator {
	return e.orch
}

// Run starts the hub, both HTTP servers, and the refresh loop, then blocks
// until the context is cancelled and everything has shut down.
func (e *Engine) Run(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go e.hub.Run(hubCtx)

	go func() {
		if err := e.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
	go func() {
		if err := e.apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api server exited: %v", err)
		}
	}()

	err := e.orch.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	return err
}

// Shutdown stops the HTTP servers and closes adapter connections.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error

	if e.apiSrv != nil {
		if err := e.apiSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if e.metricsSrv != nil {
		if err := e.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.mqttSrc != nil {
		e.mqttSrc.Close()
	}

	return errors.Join(errs...)
}

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
