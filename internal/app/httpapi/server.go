// Package httpapi exposes the engine's read model to the presentation layer:
// the device list, per-device snapshots and health, fleet KPIs, tier
// filtering, and the fire-and-forget refresh trigger.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HenilJainIO/trapsight/internal/adapters/notify"
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/fleet"
)

type Server struct {
	orch *fleet.Orchestrator
	hub  *notify.Hub
}

func NewServer(orch *fleet.Orchestrator, hub *notify.Hub) *Server {
	return &Server{orch: orch, hub: hub}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/devices", s.handleDevices)
	r.Get("/api/devices/{deviceID}", s.handleDevice)
	r.Get("/api/kpis", s.handleKPIs)
	r.Post("/api/refresh", s.handleRefresh)
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

type deviceRow struct {
	domain.Device
	Name  string            `json:"name,omitempty"`
	State domain.FetchState `json:"state"`
	Tier  domain.Tier       `json:"tier"`
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	tier, ok := domain.ParseTier(r.URL.Query().Get("tier"))
	if !ok {
		http.Error(w, "unknown tier", http.StatusBadRequest)
		return
	}

	devices := s.orch.FilterByTier(tier)
	rows := make([]deviceRow, 0, len(devices))
	for _, d := range devices {
		row := deviceRow{Device: d, State: domain.StatePending, Tier: domain.TierOffline}
		if snap, ok := s.orch.Snapshot(d.ID); ok {
			row.State = snap.State
			row.Tier = s.orch.Health(d.ID).Tier()
			if snap.State != domain.StateFailed && len(snap.Readings) == 0 {
				row.Tier = domain.TierOffline
			}
		}
		if meta, ok := s.orch.Metadata(d.ID); ok {
			row.Name = meta.Name
		}
		rows = append(rows, row)
	}
	writeJSON(w, rows)
}

type deviceDetail struct {
	Device   domain.Device          `json:"device"`
	Metadata *domain.DeviceMetadata `json:"metadata,omitempty"`
	Snapshot domain.DeviceSnapshot  `json:"snapshot"`
	Health   domain.HealthState     `json:"health"`
	Tier     domain.Tier            `json:"tier"`
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	var found *domain.Device
	for _, d := range s.orch.Devices() {
		if d.ID == deviceID {
			found = &d
			break
		}
	}
	if found == nil {
		http.Error(w, "unknown device", http.StatusNotFound)
		return
	}

	detail := deviceDetail{Device: *found}
	if snap, ok := s.orch.Snapshot(deviceID); ok {
		detail.Snapshot = snap
	} else {
		detail.Snapshot = domain.DeviceSnapshot{DeviceID: deviceID, State: domain.StatePending}
	}
	if meta, ok := s.orch.Metadata(deviceID); ok {
		detail.Metadata = meta
	}
	detail.Health = s.orch.Health(deviceID)
	detail.Tier = detail.Health.Tier()
	if detail.Health == domain.Unknown {
		detail.Tier = domain.TierOffline
	}
	writeJSON(w, detail)
}

func (s *Server) handleKPIs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.orch.KPIs())
}

// handleRefresh accepts the inbound refresh-all signal: no payload, no
// result, the cycle runs in the background.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.orch.RefreshNow()
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
