package domain

// FleetState is the raw result of one completed refresh cycle: the confirmed
// device set, its enrichment records, and the snapshot map. It is the unit
// persisted for warm starts. Derived values (health, tiers, KPIs) are never
// stored; a restorer recomputes them from the snapshots.
type FleetState struct {
	Devices   []Device                   `json:"devices"`
	Metadata  map[string]*DeviceMetadata `json:"metadata"`
	Snapshots map[string]*DeviceSnapshot `json:"snapshots"`
}
