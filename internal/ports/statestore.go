package ports

import "github.com/HenilJainIO/trapsight/internal/domain"

// StateStore journals the published fleet state so a restarted engine can
// serve the last known view before its first cycle completes.
type StateStore interface {
	SaveCycle(state *domain.FleetState) error

	// LoadLatest returns the most recent complete cycle, or ok=false when the
	// store is empty.
	LoadLatest() (*domain.FleetState, bool, error)
}
