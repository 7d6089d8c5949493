package enums

import "fmt"

// ItemRarity grades magic items.
type ItemRarity string

const (
	ItemRarityCommon    ItemRarity = "common"
	ItemRarityUncommon  ItemRarity = "uncommon"
	ItemRarityRare      ItemRarity = "rare"
	ItemRarityVeryRare  ItemRarity = "very_rare"
	ItemRarityLegendary ItemRarity = "legendary"
	ItemRarityArtifact  ItemRarity = "artifact"
)

var validItemRarities = []ItemRarity{
	ItemRarityCommon,
	ItemRarityUncommon,
	ItemRarityRare,
	ItemRarityVeryRare,
	ItemRarityLegendary,
	ItemRarityArtifact,
}

// String implements fmt.Stringer.
func (r ItemRarity) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ItemRarity.
func (r ItemRarity) IsValid() bool {
	for _, candidate := range validItemRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseItemRarity converts raw input into an ItemRarity.
func ParseItemRarity(value string) (ItemRarity, error) {
	for _, candidate := range validItemRarities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item rarity %q", value)
}
