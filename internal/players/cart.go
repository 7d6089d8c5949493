package players

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

// Cart is a pseudonymous player's ledger for one market visit. It lives in
// the cart store under (access code, player token); there is no account and
// no durable archive, once deleted the data is gone.
type Cart struct {
	Token       string         `json:"token"`
	AccessCode  string         `json:"access_code"`
	DisplayName string         `json:"display_name"`
	Starting    types.Currency `json:"starting"`
	Current     types.Currency `json:"current"`
	Purchases   []PurchaseLine `json:"purchases,omitempty"`
	Sales       []SaleLine     `json:"sales,omitempty"`
	EnteredAt   time.Time      `json:"entered_at"`
}

// PurchaseLine accumulates repeat purchases of the same shop item.
type PurchaseLine struct {
	ShopItemID uuid.UUID      `json:"shop_item_id"`
	Name       string         `json:"name"`
	UnitPrice  types.Price    `json:"unit_price"`
	Quantity   int            `json:"quantity"`
	TotalSpent types.Currency `json:"total_spent"`
}

// SaleLine records an item the player sold to a shopkeeper. One-way; the
// item never enters any shop's stock.
type SaleLine struct {
	Name   string         `json:"name"`
	Price  types.Currency `json:"price"`
	SoldAt time.Time      `json:"sold_at"`
}

func (c *Cart) hasPurchased() bool {
	return len(c.Purchases) > 0
}

// recordPurchase deducts cost from held currency and appends or increments
// the matching inventory line. The caller has already verified coverage.
func (c *Cart) recordPurchase(item PurchaseLine, qty int, cost types.Currency) {
	remaining, _ := c.Current.Sub(cost)
	c.Current = remaining

	for i := range c.Purchases {
		if c.Purchases[i].ShopItemID == item.ShopItemID {
			c.Purchases[i].Quantity += qty
			c.Purchases[i].TotalSpent = c.Purchases[i].TotalSpent.Add(cost)
			return
		}
	}
	item.Quantity = qty
	item.TotalSpent = cost
	c.Purchases = append(c.Purchases, item)
}

func (c *Cart) recordSale(name string, price types.Currency, at time.Time) {
	c.Current = c.Current.Add(price)
	c.Sales = append(c.Sales, SaleLine{Name: name, Price: price, SoldAt: at})
}

// spent derives the audit total as starting minus current, through the
// copper equivalent. Sale proceeds flow back into the same pool, so this
// can diverge from (and even undercut) the line-item sum; lineItemTotal
// keeps that divergence visible.
func (c *Cart) spent() types.Currency {
	return types.FromCopper(c.Starting.TotalCopper() - c.Current.TotalCopper())
}

func (c *Cart) lineItemTotal() types.Currency {
	var total types.Currency
	for _, line := range c.Purchases {
		total = total.Add(line.TotalSpent)
	}
	return total
}
