package fleet

import (
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/kpi"
)

// FilterByTier selects the devices whose derived tier matches the request,
// preserving input order. TierAll returns the full list unchanged; a device
// with no snapshot yet only matches TierOffline. The tier derivation is the
// aggregator's, so filter and KPI counts always agree.
func FilterByTier(devices []domain.Device, snapshots map[string]*domain.DeviceSnapshot, tier domain.Tier, agg *kpi.Aggregator) []domain.Device {
	out := make([]domain.Device, 0, len(devices))
	if tier == domain.TierAll {
		return append(out, devices...)
	}
	for _, d := range devices {
		if agg.TierOf(snapshots[d.ID]) == tier {
			out = append(out, d)
		}
	}
	return out
}
