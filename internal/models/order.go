package models

import "time"

// OrderRequest is the canonical order placement request.
type OrderRequest struct {
	Symbol       string
	Action       OrderAction
	Quantity     int
	OrderType    OrderType
	Price        float64
	TriggerPrice float64
	Exchange     Exchange
	Product      ProductType
	Validity     Validity
	AccountID    string
	Remarks      string
}

// OrderResponse is the canonical order placement result.
type OrderResponse struct {
	Success bool
	Message string
	Data    *OrderData
}

// OrderData carries the identifiers of a placed order.
type OrderData struct {
	OrderID       string
	BrokerOrderID string
	Status        OrderStatus
}

// OrderInfo is the minimal broker-order linkage extracted from a placement
// response for persistence by the caller.
type OrderInfo struct {
	BrokerOrderID string
}

// OrderStatusDetail is the normalized view of a broker order record.
type OrderStatusDetail struct {
	OrderID         string
	BrokerOrderID   string
	Symbol          string
	Exchange        Exchange
	Action          OrderAction
	OrderType       OrderType
	Product         ProductType
	Quantity        int
	FilledQuantity  int
	Price           float64
	TriggerPrice    float64
	AveragePrice    float64
	Status          OrderStatus
	RawStatus       string
	RejectionReason string
	PlacedAt        time.Time
	UpdatedAt       time.Time
}

// Trade represents an executed fill from the trade book.
type Trade struct {
	OrderID      string
	Symbol       string
	Exchange     Exchange
	Action       OrderAction
	Quantity     int
	Price        float64
	Product      ProductType
	TradeTime    time.Time
}
