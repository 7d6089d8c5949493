package enums

import "fmt"

// ShopCategory represents the storefront archetypes a DM can pick from.
type ShopCategory string

const (
	ShopCategoryBlacksmith ShopCategory = "blacksmith"
	ShopCategoryArmorer    ShopCategory = "armorer"
	ShopCategoryAlchemist  ShopCategory = "alchemist"
	ShopCategoryGeneral    ShopCategory = "general_store"
	ShopCategoryMagic      ShopCategory = "magic_emporium"
	ShopCategoryTavern     ShopCategory = "tavern"
	ShopCategoryJeweler    ShopCategory = "jeweler"
	ShopCategoryFletcher   ShopCategory = "fletcher"
	ShopCategoryStable     ShopCategory = "stable"
	ShopCategoryCuriosity  ShopCategory = "curiosity_shop"
)

var validShopCategories = []ShopCategory{
	ShopCategoryBlacksmith,
	ShopCategoryArmorer,
	ShopCategoryAlchemist,
	ShopCategoryGeneral,
	ShopCategoryMagic,
	ShopCategoryTavern,
	ShopCategoryJeweler,
	ShopCategoryFletcher,
	ShopCategoryStable,
	ShopCategoryCuriosity,
}

// String implements fmt.Stringer.
func (c ShopCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ShopCategory.
func (c ShopCategory) IsValid() bool {
	for _, candidate := range validShopCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseShopCategory converts raw input into a ShopCategory.
func ParseShopCategory(value string) (ShopCategory, error) {
	for _, candidate := range validShopCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shop category %q", value)
}
