package domain

import "time"

// FetchState tracks where a snapshot is in its fetch lifecycle. A snapshot is
// in exactly one state at a time.
type FetchState string

const (
	StatePending FetchState = "pending"
	StateReady   FetchState = "ready"
	StateFailed  FetchState = "failed"
)

// DeviceSnapshot is the most recent reading set retrieved for one device.
// It is owned by the fleet orchestrator and overwritten wholesale on each
// fetch; there is no partial merge.
type DeviceSnapshot struct {
	DeviceID string          `json:"device_id"`
	Readings []SensorReading `json:"readings"`
	State    FetchState      `json:"state"`
	// Err carries the failure detail and is set only when State is failed.
	Err string `json:"error,omitempty"`
	// LastFetched is the last successful fetch time, zero until the first
	// success.
	LastFetched time.Time `json:"last_fetched,omitempty"`
}

// Online reports whether the device has a completed, successful fetch.
func (s *DeviceSnapshot) Online() bool {
	return s != nil && s.State == StateReady && !s.LastFetched.IsZero()
}
