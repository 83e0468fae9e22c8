package domain

// Tier is the coarse severity bucket a health state or device maps to.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierOffline  Tier = "offline"

	// TierAll is a filter sentinel, never a classification result.
	TierAll Tier = "all"
)

// ParseTier validates a tier selection coming from the presentation layer.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierNormal, TierWarning, TierCritical, TierOffline, TierAll:
		return Tier(s), true
	case "":
		return TierAll, true
	default:
		return "", false
	}
}

// HealthState is one operating-health classification of a steam trap.
type HealthState struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	Unknown       = HealthState{Code: 0, Name: "Unknown", Description: "No classification available"}
	Normal        = HealthState{Code: 1, Name: "Normal", Description: "Trap cycling normally"}
	HeavyFlooding = HealthState{Code: 3, Name: "Heavy Flooding", Description: "Condensate backing up through the trap"}
	ValveClosed   = HealthState{Code: 5, Name: "Valve Closed", Description: "Isolation valve closed, no flow"}
	Choking       = HealthState{Code: 6, Name: "Choking", Description: "Trap restricting flow below demand"}
	HeavyLeak     = HealthState{Code: 9, Name: "Heavy Leak", Description: "Live steam escaping through the trap"}
)

// knownStates is ordered; the name-substring rule scans it in this order so
// identical reading sets always classify identically.
var knownStates = []HealthState{Normal, HeavyFlooding, ValveClosed, Choking, HeavyLeak}

// KnownStates returns the classifiable states in their canonical order.
func KnownStates() []HealthState {
	out := make([]HealthState, len(knownStates))
	copy(out, knownStates)
	return out
}

// HealthByCode resolves a status code against the known table.
func HealthByCode(code int) (HealthState, bool) {
	for _, s := range knownStates {
		if s.Code == code {
			return s, true
		}
	}
	return Unknown, false
}

// Tier maps a state to its severity tier. The mapping is total: every code
// resolves to exactly one tier.
func (h HealthState) Tier() Tier {
	switch h.Code {
	case Normal.Code:
		return TierNormal
	case HeavyFlooding.Code, ValveClosed.Code:
		return TierWarning
	case Choking.Code, HeavyLeak.Code:
		return TierCritical
	default:
		return TierOffline
	}
}
