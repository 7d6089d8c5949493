package types

import (
	"github.com/shopspring/decimal"
)

// Coin radix: 1 gold = 10 silver = 100 copper.
const (
	CopperPerSilver = 10
	CopperPerGold   = 100
)

// Currency is a mixed-denomination coin amount. Components may be
// individually un-normalized (e.g. 15 silver); arithmetic goes through
// the copper equivalent and re-splits.
type Currency struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Copper int `json:"copper"`
}

// TotalCopper converts the amount to its smallest-denomination equivalent.
func (c Currency) TotalCopper() int {
	return c.Gold*CopperPerGold + c.Silver*CopperPerSilver + c.Copper
}

// FromCopper re-splits a copper total into gold/silver/copper.
// Negative totals split on the absolute value with every component negated,
// so round-tripping preserves the copper equivalent.
func FromCopper(total int) Currency {
	neg := total < 0
	if neg {
		total = -total
	}
	c := Currency{
		Gold:   total / CopperPerGold,
		Silver: (total % CopperPerGold) / CopperPerSilver,
		Copper: total % CopperPerSilver,
	}
	if neg {
		c.Gold, c.Silver, c.Copper = -c.Gold, -c.Silver, -c.Copper
	}
	return c
}

// Normalize re-splits the amount so silver < 10 and copper < 10.
func (c Currency) Normalize() Currency {
	return FromCopper(c.TotalCopper())
}

// Add returns the normalized sum.
func (c Currency) Add(other Currency) Currency {
	return FromCopper(c.TotalCopper() + other.TotalCopper())
}

// Sub returns the normalized difference; ok is false when the result
// would be negative.
func (c Currency) Sub(other Currency) (Currency, bool) {
	total := c.TotalCopper() - other.TotalCopper()
	if total < 0 {
		return Currency{}, false
	}
	return FromCopper(total), true
}

// Mul scales the amount by a non-negative quantity.
func (c Currency) Mul(qty int) Currency {
	return FromCopper(c.TotalCopper() * qty)
}

// Covers reports whether the held amount can pay the price.
func (c Currency) Covers(price Currency) bool {
	return c.TotalCopper() >= price.TotalCopper()
}

// IsZero reports whether every component is zero.
func (c Currency) IsZero() bool {
	return c.Gold == 0 && c.Silver == 0 && c.Copper == 0
}

// GoldValue is the decimal gold-piece equivalent, for display (e.g. 12.35).
func (c Currency) GoldValue() decimal.Decimal {
	return decimal.New(int64(c.TotalCopper()), 0).Div(decimal.New(CopperPerGold, 0))
}

// Price is a coin amount attached to a shop item. Unlike Currency it must
// have non-negative components and at least one positive denomination.
type Price = Currency

// ValidPrice enforces the shop item price invariant.
func ValidPrice(p Price) bool {
	if p.Gold < 0 || p.Silver < 0 || p.Copper < 0 {
		return false
	}
	return p.TotalCopper() > 0
}
