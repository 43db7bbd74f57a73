package domain

import dErrors "steeple/pkg/domain-errors"

// ServiceType identifies one of the recurring church services.
// Invariant: the value must be one of the supported service types.
//
// Usage: construct via ParseServiceType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ServiceType string

// Supported service types. The wire values are what clients send and what
// stored records carry.
const (
	ServiceSabbathMorning   ServiceType = "SABBATH_MORNING"
	ServiceWednesdayVespers ServiceType = "WEDNESDAY_VESPERS"
	ServiceFridayVespers    ServiceType = "FRIDAY_VESPERS"
)

// validServiceTypes is the single source of truth for valid service types.
var validServiceTypes = map[ServiceType]bool{
	ServiceSabbathMorning:   true,
	ServiceWednesdayVespers: true,
	ServiceFridayVespers:    true,
}

// AllServiceTypes returns the supported service types in a stable order.
func AllServiceTypes() []ServiceType {
	return []ServiceType{ServiceSabbathMorning, ServiceWednesdayVespers, ServiceFridayVespers}
}

// ParseServiceType constructs a ServiceType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseServiceType(s string) (ServiceType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "service type cannot be empty")
	}
	t := ServiceType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid service type")
	}
	return t, nil
}

// IsValid checks if the service type is one of the supported enum values.
func (t ServiceType) IsValid() bool {
	return validServiceTypes[t]
}

// String returns the string representation of the service type.
func (t ServiceType) String() string {
	return string(t)
}
