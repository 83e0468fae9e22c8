// Package identify decides whether a device record belongs to the monitored
// steam-trap class. The predicate is total and side-effect free; it is applied
// once against the raw device list and again after metadata arrives.
package identify

import "strings"

// reservedTypeCode is the collaborator's dedicated steam-trap device class.
const reservedTypeCode = "STEAM_TRAP3"

var nameNeedles = []string{"steamtrap", "steam"}

// Monitored reports whether the type identifier, or the metadata type name
// when known, marks the device as a steam trap. Matching is case-insensitive;
// pass an empty typeName before metadata is available.
func Monitored(typeID, typeName string) bool {
	if strings.EqualFold(typeID, reservedTypeCode) {
		return true
	}
	id := strings.ToLower(typeID)
	name := strings.ToLower(typeName)
	for _, needle := range nameNeedles {
		if strings.Contains(id, needle) || strings.Contains(name, needle) {
			return true
		}
	}
	return false
}
