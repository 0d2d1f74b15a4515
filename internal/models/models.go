// Package models provides the canonical broker-agnostic domain models.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
	CDS Exchange = "CDS" // Currency
	MCX Exchange = "MCX" // Commodity
)

// OrderAction represents the side of an order.
type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket   OrderType = "MARKET"
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypeSLLimit  OrderType = "SL-LIMIT"
	OrderTypeSLMarket OrderType = "SL-MARKET"
)

// RequiresPrice reports whether the order type needs a limit price.
func (t OrderType) RequiresPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeSLLimit
}

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductCNC  ProductType = "CNC"  // Delivery
	ProductMIS  ProductType = "MIS"  // Intraday
	ProductNRML ProductType = "NRML" // F&O Normal
)

// Validity represents how long an order stays live.
type Validity string

const (
	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
	ValidityGTD Validity = "GTD"
)

// OrderStatus is the canonical order lifecycle state. Every broker-specific
// status token maps onto exactly one of these five values.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusPartial   OrderStatus = "PARTIAL"
)

// AccountStatus is the persisted usability state of a stored account record.
type AccountStatus string

const (
	AccountStatusActive          AccountStatus = "ACTIVE"
	AccountStatusInactive        AccountStatus = "INACTIVE"
	AccountStatusProceedToOAuth  AccountStatus = "PROCEED_TO_OAUTH"
	AccountStatusRefreshRequired AccountStatus = "REFRESH_REQUIRED"
)

// Quote represents a market quote.
type Quote struct {
	Symbol        string
	Exchange      Exchange
	LTP           float64
	Change        float64
	ChangePercent float64
	Volume        int64
	High          float64
	Low           float64
	Open          float64
	Close         float64
	Timestamp     time.Time
}

// Position represents an open trading position. PnL is always derived from
// its inputs, never carried independently of them.
type Position struct {
	Symbol       string
	Exchange     Exchange
	Product      ProductType
	Quantity     int
	AveragePrice float64
	CurrentPrice float64
	PnL          float64
}

// ComputePnL derives profit and loss from current price, average price and
// quantity.
func ComputePnL(currentPrice, averagePrice float64, quantity int) float64 {
	return (currentPrice - averagePrice) * float64(quantity)
}

// SearchResult represents a scrip returned by symbol search.
type SearchResult struct {
	Symbol   string
	Name     string
	Token    string
	Exchange Exchange
	LotSize  int
	TickSize float64
}
