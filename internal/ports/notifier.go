package ports

import "github.com/HenilJainIO/trapsight/internal/domain"

// Notifier is told when a refresh cycle has produced a new aggregate so
// display dependents can re-render.
type Notifier interface {
	AggregateUpdated(kpis domain.FleetKPIs)
}
