package library

import (
	"bytes"
	"encoding/json"

	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
)

// WeaponRange carries optional normal/long reach in feet.
type WeaponRange struct {
	Normal *int `json:"normal,omitempty"`
	Long   *int `json:"long,omitempty"`
}

// WeaponDamage is the damage roll and its type.
type WeaponDamage struct {
	Dice string `json:"dice"`
	Type string `json:"type"`
}

// WeaponDetails is the payload for weapon items.
type WeaponDetails struct {
	WeaponType string       `json:"weapon_type"`
	Damage     WeaponDamage `json:"damage"`
	Properties []string     `json:"properties,omitempty"`
	Range      *WeaponRange `json:"range,omitempty"`
}

// ArmorDetails is the payload for armor items.
type ArmorDetails struct {
	BaseAC              int  `json:"base_ac"`
	DexCap              *int `json:"dex_cap,omitempty"`
	StrengthRequirement *int `json:"strength_requirement,omitempty"`
	StealthDisadvantage bool `json:"stealth_disadvantage"`
}

// MagicDetails is the payload for magic items.
type MagicDetails struct {
	Rarity     enums.ItemRarity `json:"rarity"`
	Attunement bool             `json:"attunement"`
	Effects    []string         `json:"effects,omitempty"`
}

// NormalizeDetails validates the type-specific payload and returns its
// canonical form. Weapon payloads drop `range` entirely when neither
// bound is supplied. Types without a structured payload pass through
// as-is (any valid JSON object, or nothing).
func NormalizeDetails(itemType enums.ItemType, raw json.RawMessage) (json.RawMessage, error) {
	if isEmptyJSON(raw) {
		if itemType == enums.ItemTypeWeapon || itemType == enums.ItemTypeArmor || itemType == enums.ItemTypeMagic {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "details are required for "+string(itemType)+" items")
		}
		return nil, nil
	}

	switch itemType {
	case enums.ItemTypeWeapon:
		var details WeaponDetails
		if err := decodeStrict(raw, &details); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weapon details")
		}
		if details.WeaponType == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weapon_type is required")
		}
		if details.Damage.Dice == "" || details.Damage.Type == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "damage dice and type are required")
		}
		if details.Range != nil && details.Range.Normal == nil && details.Range.Long == nil {
			details.Range = nil
		}
		return marshalDetails(details)

	case enums.ItemTypeArmor:
		var details ArmorDetails
		if err := decodeStrict(raw, &details); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid armor details")
		}
		if details.BaseAC <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_ac must be positive")
		}
		return marshalDetails(details)

	case enums.ItemTypeMagic:
		var details MagicDetails
		if err := decodeStrict(raw, &details); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid magic details")
		}
		if !details.Rarity.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rarity")
		}
		return marshalDetails(details)

	default:
		if !json.Valid(raw) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "details must be valid JSON")
		}
		return raw, nil
	}
}

func decodeStrict(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func marshalDetails(v any) (json.RawMessage, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal details")
	}
	return out, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}
