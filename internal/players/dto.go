package players

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

// MarketView is the market as a player sees it. No DM identifiers, no
// activation bookkeeping beyond the closing time.
type MarketView struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ActiveUntil *time.Time `json:"active_until,omitempty"`
}

type ShopView struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Category    enums.ShopCategory `json:"category"`
	Location    *string            `json:"location,omitempty"`
	Shopkeeper  *string            `json:"shopkeeper,omitempty"`
	Description *string            `json:"description,omitempty"`
	Position    int                `json:"position"`
}

// ShopItemView carries the snapshot plus the session-aware remaining stock
// (nil means unlimited).
type ShopItemView struct {
	ID        uuid.UUID          `json:"id"`
	Snapshot  types.ItemSnapshot `json:"snapshot"`
	Price     types.Price        `json:"price"`
	PriceGold string             `json:"price_gold"`
	Stock     *int               `json:"stock"`
	Position  int                `json:"position"`
}

type ShopDetailView struct {
	Shop  ShopView       `json:"shop"`
	Items []ShopItemView `json:"items"`
}

type EnterResult struct {
	PlayerToken string     `json:"player_token"`
	DisplayName string     `json:"display_name"`
	Market      MarketView `json:"market"`
}

// StatusView is the poll target players hit while browsing.
type StatusView struct {
	Active           bool  `json:"active"`
	SecondsRemaining int64 `json:"seconds_remaining"`
	ClosingSoon      bool  `json:"closing_soon"`
	Players          int   `json:"players"`
}

// MaxPurchaseQuantity bounds one purchase call. Keeps the copper
// arithmetic far away from integer overflow.
const MaxPurchaseQuantity = 999

type PurchaseInput struct {
	ShopItemID uuid.UUID `json:"shop_item_id"`
	Quantity   int       `json:"quantity"`
}

type SellInput struct {
	Name  string         `json:"name"`
	Price types.Currency `json:"price"`
}

type CartView struct {
	DisplayName string         `json:"display_name"`
	Starting    types.Currency `json:"starting_currency"`
	Current     types.Currency `json:"current_currency"`
	Purchases   []PurchaseLine `json:"purchases"`
	Sales       []SaleLine     `json:"sales"`
}

// SummaryView adds the derived audit figures to the cart. Spent is
// starting minus current in copper; LineItemTotal is the sum of purchase
// lines, which diverges from Spent once sales occurred.
type SummaryView struct {
	CartView
	Spent         types.Currency `json:"spent"`
	LineItemTotal types.Currency `json:"line_item_total"`
}

func shopView(shop models.Shop) ShopView {
	return ShopView{
		ID:          shop.ID,
		Name:        shop.Name,
		Category:    shop.Category,
		Location:    shop.Location,
		Shopkeeper:  shop.Shopkeeper,
		Description: shop.Description,
		Position:    shop.Position,
	}
}

func cartView(cart *Cart) CartView {
	view := CartView{
		DisplayName: cart.DisplayName,
		Starting:    cart.Starting,
		Current:     cart.Current,
		Purchases:   cart.Purchases,
		Sales:       cart.Sales,
	}
	if view.Purchases == nil {
		view.Purchases = []PurchaseLine{}
	}
	if view.Sales == nil {
		view.Sales = []SaleLine{}
	}
	return view
}
