package enums

import "fmt"

// ItemType is the polymorphic discriminator for library items. Each type
// carries a distinct details payload.
type ItemType string

const (
	ItemTypeGear       ItemType = "gear"
	ItemTypeTreasure   ItemType = "treasure"
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeArmor      ItemType = "armor"
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeTool       ItemType = "tool"
	ItemTypeMagic      ItemType = "magic"
)

var validItemTypes = []ItemType{
	ItemTypeGear,
	ItemTypeTreasure,
	ItemTypeWeapon,
	ItemTypeArmor,
	ItemTypeConsumable,
	ItemTypeTool,
	ItemTypeMagic,
}

// String implements fmt.Stringer.
func (t ItemType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ItemType.
func (t ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
