package enums

import "fmt"

// MovementType tags an inventory movement with the reason it was appended.
type MovementType string

const (
	MovementTypeAdjust MovementType = "adjust"
	MovementTypeSale   MovementType = "sale"
	MovementTypeReturn MovementType = "return"
)

var validMovementTypes = []MovementType{
	MovementTypeAdjust,
	MovementTypeSale,
	MovementTypeReturn,
}

// IsValid reports whether the value is a known MovementType.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
