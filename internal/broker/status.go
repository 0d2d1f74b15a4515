package broker

import (
	"strings"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// shoonyaOrderStatuses maps Shoonya order status strings onto the canonical
// vocabulary.
var shoonyaOrderStatuses = map[string]models.OrderStatus{
	"OPEN":             models.OrderStatusPending,
	"PENDING":          models.OrderStatusPending,
	"TRIGGER_PENDING":  models.OrderStatusPending,
	"COMPLETE":         models.OrderStatusExecuted,
	"CANCELED":         models.OrderStatusCancelled,
	"CANCELLED":        models.OrderStatusCancelled,
	"REJECTED":         models.OrderStatusRejected,
	"INVALID":          models.OrderStatusRejected,
	"PARTIALLY FILLED": models.OrderStatusPartial,
}

// fyersOrderStatuses maps Fyers numeric status codes onto the canonical
// vocabulary.
var fyersOrderStatuses = map[string]models.OrderStatus{
	"1": models.OrderStatusCancelled, // cancelled
	"2": models.OrderStatusExecuted,  // traded / filled
	"4": models.OrderStatusPending,   // transit
	"5": models.OrderStatusRejected,  // rejected
	"6": models.OrderStatusPending,   // pending
	"7": models.OrderStatusCancelled, // expired
}

// normalizeOrderStatus resolves a broker status token through its table.
// The mapping is total: unrecognized tokens resolve to PENDING, never an
// error.
func normalizeOrderStatus(table map[string]models.OrderStatus, token string) models.OrderStatus {
	if status, ok := table[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return status
	}
	return models.OrderStatusPending
}
