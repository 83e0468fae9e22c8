package ports

import (
	"context"

	"github.com/HenilJainIO/trapsight/internal/domain"
)

// TelemetrySource is the pre-authenticated collaborator that supplies device
// lists, metadata, and raw readings.
type TelemetrySource interface {
	// ListDevices returns the raw device list before any filtering.
	ListDevices(ctx context.Context) ([]domain.Device, error)

	// Metadata returns the enrichment record for a device, or nil when the
	// collaborator has none. A nil record is not an error.
	Metadata(ctx context.Context, deviceID string) (*domain.DeviceMetadata, error)

	// LatestReadings returns the single most recent reading per sensor,
	// calibrated and aliased, bounded to "as of now". An empty slice means
	// the device has no sensors or no data yet, which is distinct from an
	// error.
	LatestReadings(ctx context.Context, deviceID string) ([]domain.SensorReading, error)
}
