// Package broker provides the unified broker integration layer: the
// canonical capability interface, the plugin registry and factory, and one
// adapter per supported broker.
package broker

import (
	"context"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// Broker is the canonical capability interface every adapter implements.
// The factory returns this interface, never a concrete type, so calling
// code stays broker-agnostic.
type Broker interface {
	// Name returns the broker key this adapter serves.
	Name() string

	// Authentication
	Login(ctx context.Context, creds models.BrokerCredentials) (*models.LoginResult, error)
	Logout(ctx context.Context) (*Result, error)
	IsLoggedIn() bool
	ValidateSession(ctx context.Context, accountID string) bool

	// Orders
	PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResponse, error)
	GetOrderBook(ctx context.Context, accountID string) ([]models.OrderStatusDetail, error)
	GetOrderStatus(ctx context.Context, accountID, orderID string) (*models.OrderStatusDetail, error)

	// Portfolio & Market Data
	GetPositions(ctx context.Context, accountID string) ([]models.Position, error)
	SearchScrip(ctx context.Context, exchange models.Exchange, text string) ([]models.SearchResult, error)
	GetQuotes(ctx context.Context, exchange models.Exchange, token string) (*models.Quote, error)

	// Normalization
	ExtractAccountInfo(loginResult *models.LoginResult, creds models.BrokerCredentials) (*models.AccountInfo, error)
	ExtractOrderInfo(orderResp *models.OrderResponse, orderInput *models.OrderRequest) models.OrderInfo
	MapOrderStatus(brokerStatus string) models.OrderStatus
}

// OrderAmender is the optional capability for amending or cancelling open
// orders. Callers type-assert on the Broker they hold; adapters whose
// upstream API has no amend endpoints simply don't implement it.
type OrderAmender interface {
	ModifyOrder(ctx context.Context, orderID string, req *models.OrderRequest) (*models.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (*Result, error)
}

// TradeBookProvider is the optional capability for listing the day's
// executed fills.
type TradeBookProvider interface {
	GetTradeBook(ctx context.Context, accountID string) ([]models.Trade, error)
}

// Result is the outcome of an operation that only succeeds or fails.
type Result struct {
	Success bool
	Message string
}
