package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/fleet"
	"github.com/HenilJainIO/trapsight/internal/kpi"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

type stubSource struct {
	devices  []domain.Device
	meta     map[string]*domain.DeviceMetadata
	readings map[string][]domain.SensorReading
	fail     map[string]bool
}

func (s *stubSource) ListDevices(context.Context) ([]domain.Device, error) {
	return s.devices, nil
}

func (s *stubSource) Metadata(_ context.Context, id string) (*domain.DeviceMetadata, error) {
	return s.meta[id], nil
}

func (s *stubSource) LatestReadings(_ context.Context, id string) ([]domain.SensorReading, error) {
	if s.fail[id] {
		return nil, fmt.Errorf("telemetry backend down")
	}
	return s.readings[id], nil
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) ObserveLatency(string, float64)         {}
func (nopObs) SetGauge(string, float64)               {}

func statusReading(code int) domain.SensorReading {
	return domain.SensorReading{
		Label:      "Trap Status",
		Value:      domain.NumberValue(float64(code)),
		ObservedAt: time.Now(),
	}
}

func newTestServer(t *testing.T, src *stubSource) *Server {
	t.Helper()
	cls := classify.New(classify.Config{})
	agg := kpi.New(kpi.Config{}, cls)
	orch := fleet.New(fleet.Config{}, src, agg, cls, nopObs{}, nil)
	orch.Refresh(context.Background())
	return NewServer(orch, nil)
}

func fleetFixture() *stubSource {
	return &stubSource{
		devices: []domain.Device{
			{ID: "trap-1", TypeID: "STEAM_TRAP3"},
			{ID: "trap-2", TypeID: "steamtrap"},
			{ID: "trap-3", TypeID: "steamtrap"},
		},
		meta: map[string]*domain.DeviceMetadata{
			"trap-1": {Name: "Boiler House East"},
		},
		readings: map[string][]domain.SensorReading{
			"trap-1": {statusReading(1)},
			"trap-2": {statusReading(9)},
		},
		fail: map[string]bool{"trap-3": true},
	}
}

func TestDevicesEndpoint(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	var rows []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		State string `json:"state"`
		Tier  string `json:"tier"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Name != "Boiler House East" {
		t.Fatalf("expected metadata name on first row, got %q", rows[0].Name)
	}
	if rows[0].Tier != "normal" || rows[1].Tier != "critical" || rows[2].Tier != "offline" {
		t.Fatalf("unexpected tiers: %+v", rows)
	}
	if rows[2].State != "failed" {
		t.Fatalf("failed fetch must surface as state failed, got %q", rows[2].State)
	}
}

func TestDevicesEndpointTierFilter(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices?tier=critical", nil))

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "trap-2" {
		t.Fatalf("expected only trap-2 in critical tier, got %+v", rows)
	}
}

func TestDevicesEndpointRejectsUnknownTier(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices?tier=purple", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tier, got %d", rec.Code)
	}
}

func TestDeviceDetailEndpoint(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/trap-2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail struct {
		Device struct {
			ID string `json:"id"`
		} `json:"device"`
		Health struct {
			Code int    `json:"code"`
			Name string `json:"name"`
		} `json:"health"`
		Tier string `json:"tier"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Device.ID != "trap-2" {
		t.Fatalf("unexpected device: %+v", detail)
	}
	if detail.Health.Code != domain.HeavyLeak.Code || detail.Tier != "critical" {
		t.Fatalf("expected heavy-leak critical, got %+v", detail)
	}
}

func TestDeviceDetailUnknownDevice(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestKPIsEndpoint(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))

	var kpis domain.FleetKPIs
	if err := json.Unmarshal(rec.Body.Bytes(), &kpis); err != nil {
		t.Fatalf("decode kpis: %v", err)
	}
	if kpis.Total != 3 {
		t.Fatalf("expected 3 devices in aggregate, got %d", kpis.Total)
	}
	if kpis.StatusCounts.Normal != 1 || kpis.StatusCounts.Critical != 1 || kpis.StatusCounts.Offline != 1 {
		t.Fatalf("unexpected tier counts: %+v", kpis.StatusCounts)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(t, fleetFixture())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
