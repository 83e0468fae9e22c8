package domain

import "time"

// Device is one entry in the collaborator's device list. The engine never
// mutates it; TypeID is the raw type identifier used by the coarse filter.
type Device struct {
	ID     string `json:"id"`
	TypeID string `json:"type_id"`
}

// SensorDescriptor describes one sensor attached to a device, in the order
// the collaborator reports them.
type SensorDescriptor struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
}

// GeoPoint is an optional device location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DeviceMetadata is the optional enrichment record keyed by device ID.
// A nil *DeviceMetadata means the collaborator has no record for the device.
type DeviceMetadata struct {
	DeviceID   string             `json:"device_id"`
	Name       string             `json:"name"`
	TypeName   string             `json:"type_name"`
	Sensors    []SensorDescriptor `json:"sensors,omitempty"`
	Location   *GeoPoint          `json:"location,omitempty"`
	EnrolledAt time.Time          `json:"enrolled_at"`
}
