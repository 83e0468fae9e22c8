package trapsight

import (
	"github.com/HenilJainIO/trapsight/internal/app/config"
	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

// Config is the root configuration, re-exported so embedding callers can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Device is one entry of the collaborator's device list.
	Device = domain.Device
	// DeviceMetadata is the optional enrichment record for a device.
	DeviceMetadata = domain.DeviceMetadata
	// SensorReading is one observed sensor value.
	SensorReading = domain.SensorReading
	// Value is a numeric, textual, or absent sensor value.
	Value = domain.Value
	// DeviceSnapshot is the latest fetched reading set for a device.
	DeviceSnapshot = domain.DeviceSnapshot
	// HealthState is the classified operating-health state of a trap.
	HealthState = domain.HealthState
	// FleetKPIs is the fleet-level aggregate.
	FleetKPIs = domain.FleetKPIs
	// Tier is the coarse severity bucket.
	Tier = domain.Tier

	// TelemetrySource supplies device lists, metadata, and readings.
	TelemetrySource = ports.TelemetrySource
	// Observability emits metrics and logs about refresh cycles and fetches.
	Observability = ports.Observability
	// Notifier is told when a new aggregate is available.
	Notifier = ports.Notifier
	// Field is a structured log field used by Observability implementations.
	Field = ports.Field
)

// Value constructors, re-exported for custom TelemetrySource implementations.
var (
	NumberValue = domain.NumberValue
	TextValue   = domain.TextValue
	NoValue     = domain.NoValue
)
