package enums

import "fmt"

// EntityType describes which catalog collection a line item points at.
type EntityType string

const (
	EntityTypeGrocery EntityType = "grocery"
	EntityTypeClothes EntityType = "clothes"
	EntityTypeFood    EntityType = "food"
)

var validEntityTypes = []EntityType{
	EntityTypeGrocery,
	EntityTypeClothes,
	EntityTypeFood,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into a EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}

// IsStockTracked reports whether availability is governed by a numeric stock count.
func (e EntityType) IsStockTracked() bool {
	return e == EntityTypeGrocery || e == EntityTypeClothes
}
