package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// BrokerFyers is the registry key for the Fyers adapter.
const BrokerFyers = "fyers"

const (
	fyersBaseURL = "https://api.fyers.in/api/v2"
	fyersAuthURL = "https://api.fyers.in/api/v2/generate-authcode"
)

const (
	fyersEPValidateAuthCode = "/validate-authcode"
	fyersEPRefreshToken     = "/validate-refresh-token"
	fyersEPOrders           = "/orders"
	fyersEPPositions        = "/positions"
	fyersEPQuotes           = "/quotes"
	fyersEPProfile          = "/profile"
)

// fyersOK is the broker's success sentinel in the s field.
const fyersOK = "ok"

// Fyers token lifetimes: access tokens live for a fixed 24h window, refresh
// tokens for 15 days.
const (
	fyersAccessTokenTTL  = 24 * time.Hour
	fyersRefreshTokenTTL = 15 * 24 * time.Hour
)

// FyersBroker implements the Broker interface for the Fyers OAuth2
// authorization-code API.
type FyersBroker struct {
	client *apiClient
	logger zerolog.Logger

	mu            sync.RWMutex
	appID         string
	secretKey     string
	accountID     string
	accessToken   string
	refreshToken  string
	tokenExpiry   time.Time
	refreshExpiry time.Time
}

// FyersConfig holds configuration for the Fyers adapter.
type FyersConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewFyersBroker creates a new Fyers adapter instance.
func NewFyersBroker(cfg FyersConfig) *FyersBroker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fyersBaseURL
	}
	return &FyersBroker{
		client: newAPIClient(BrokerFyers, baseURL, cfg.Timeout, cfg.Logger),
		logger: cfg.Logger,
	}
}

// Name returns the broker key.
func (f *FyersBroker) Name() string {
	return BrokerFyers
}

// fyersEnvelope is the common s/code/message triple every response carries.
type fyersEnvelope struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// authCodeQuery builds the authorization redirect URL query string.
type authCodeQuery struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ResponseType string `url:"response_type"`
	State        string `url:"state"`
}

// AuthURL returns the authorization URL the end user must visit to obtain
// an auth code.
func AuthURL(clientID, redirectURI, state string) string {
	v, _ := query.Values(authCodeQuery{
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		ResponseType: "code",
		State:        state,
	})
	return fyersAuthURL + "?" + v.Encode()
}

// Login drives the authorization-code flow. Without an auth code it returns
// the authorization URL for the caller to redirect the user to; with one it
// exchanges the code for access and refresh tokens and exposes their expiry
// for the caller to persist. The adapter persists nothing itself.
func (f *FyersBroker) Login(ctx context.Context, creds models.BrokerCredentials) (*models.LoginResult, error) {
	if creds.OAuth == nil {
		return nil, apperrors.NewValidationError("fyers requires oauth credentials")
	}
	oc := creds.OAuth

	f.mu.Lock()
	f.appID = oc.ClientID
	f.secretKey = oc.SecretKey
	f.mu.Unlock()

	if oc.AuthCode == "" {
		return &models.LoginResult{
			Success: true,
			Message: "authorization required: complete login at the auth URL",
			AuthURL: AuthURL(oc.ClientID, oc.RedirectURI, "sample_state"),
		}, nil
	}

	payload := map[string]string{
		"grant_type": "authorization_code",
		"appIdHash":  sha256Hex(oc.ClientID + ":" + oc.SecretKey),
		"code":       oc.AuthCode,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "encoding token request")
	}

	headers := map[string]string{"Content-Type": "application/json"}
	_, respBody, err := f.client.post(ctx, "login", fyersEPValidateAuthCode, headers, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "login", fmt.Errorf("decoding response: %w", err))
	}

	if resp.S != fyersOK || resp.AccessToken == "" {
		msg := resp.Message
		if msg == "" {
			msg = "auth code exchange failed"
		}
		return &models.LoginResult{Success: false, Message: msg}, nil
	}

	now := time.Now()
	tokenExpiry := now.Add(fyersAccessTokenTTL)
	refreshExpiry := now.Add(fyersRefreshTokenTTL)

	f.mu.Lock()
	f.accessToken = resp.AccessToken
	f.refreshToken = resp.RefreshToken
	f.tokenExpiry = tokenExpiry
	f.refreshExpiry = refreshExpiry
	f.mu.Unlock()

	f.logger.Info().Str("broker", BrokerFyers).Str("app_id", oc.ClientID).Msg("token exchange successful")

	return &models.LoginResult{
		Success:                true,
		Message:                "login successful",
		AccessToken:            resp.AccessToken,
		RefreshToken:           resp.RefreshToken,
		TokenExpiryTime:        &tokenExpiry,
		RefreshTokenExpiryTime: &refreshExpiry,
		Raw: map[string]interface{}{
			"access_token":  resp.AccessToken,
			"refresh_token": resp.RefreshToken,
		},
	}, nil
}

// RefreshAccessToken exchanges the held refresh token for a fresh access
// token and returns the new expiry metadata for persistence.
func (f *FyersBroker) RefreshAccessToken(ctx context.Context) (*models.LoginResult, error) {
	f.mu.RLock()
	appID, secret, refresh := f.appID, f.secretKey, f.refreshToken
	f.mu.RUnlock()

	if refresh == "" {
		return nil, apperrors.NewAuthError(BrokerFyers, apperrors.AuthExpired, "no refresh token held", nil)
	}

	payload := map[string]string{
		"grant_type":    "refresh_token",
		"appIdHash":     sha256Hex(appID + ":" + secret),
		"refresh_token": refresh,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "encoding refresh request")
	}

	headers := map[string]string{"Content-Type": "application/json"}
	_, respBody, err := f.client.post(ctx, "refresh_token", fyersEPRefreshToken, headers, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "refresh_token", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK || resp.AccessToken == "" {
		f.clearTokens()
		return nil, apperrors.NewAuthError(BrokerFyers, apperrors.AuthExpired, resp.Message, nil)
	}

	tokenExpiry := time.Now().Add(fyersAccessTokenTTL)
	f.mu.Lock()
	f.accessToken = resp.AccessToken
	f.tokenExpiry = tokenExpiry
	refreshExpiry := f.refreshExpiry
	f.mu.Unlock()

	return &models.LoginResult{
		Success:                true,
		Message:                "token refreshed",
		AccessToken:            resp.AccessToken,
		TokenExpiryTime:        &tokenExpiry,
		RefreshTokenExpiryTime: &refreshExpiry,
	}, nil
}

// Logout clears held tokens. Fyers tokens age out on their own; there is no
// remote invalidation call.
func (f *FyersBroker) Logout(ctx context.Context) (*Result, error) {
	f.clearTokens()
	return &Result{Success: true, Message: "logged out"}, nil
}

func (f *FyersBroker) clearTokens() {
	f.mu.Lock()
	f.accessToken = ""
	f.refreshToken = ""
	f.tokenExpiry = time.Time{}
	f.refreshExpiry = time.Time{}
	f.mu.Unlock()
}

// IsLoggedIn reports whether an unexpired access token is held.
func (f *FyersBroker) IsLoggedIn() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.accessToken != "" && time.Now().Before(f.tokenExpiry)
}

// authHeader builds the bearer-style Authorization header value.
func (f *FyersBroker) authHeader() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return map[string]string{
		"Authorization": f.appID + ":" + f.accessToken,
		"Content-Type":  "application/json",
	}
}

// isAuthFailureMessage classifies authentication failures by inspecting the
// broker's error message for token/authorization patterns.
func isAuthFailureMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "token") || strings.Contains(m, "unauthorized") || strings.Contains(m, "not authenticated")
}

// businessOrAuthError turns a fyers error envelope into either a distinct
// AUTH_EXPIRED error (so callers re-authorize instead of retrying blindly)
// or a recovered business failure.
func (f *FyersBroker) authExpired(operation, message string) error {
	f.clearTokens()
	return apperrors.NewAuthError(BrokerFyers, apperrors.AuthExpired, fmt.Sprintf("%s: %s", operation, message), nil)
}

var fyersOrderTypes = map[models.OrderType]int{
	models.OrderTypeLimit:    1,
	models.OrderTypeMarket:   2,
	models.OrderTypeSLMarket: 3,
	models.OrderTypeSLLimit:  4,
}

var fyersSides = map[models.OrderAction]int{
	models.ActionBuy:  1,
	models.ActionSell: -1,
}

var fyersProducts = map[models.ProductType]string{
	models.ProductCNC:  "CNC",
	models.ProductMIS:  "INTRADAY",
	models.ProductNRML: "MARGIN",
}

// fyersSymbol builds the exchange-prefixed symbol format, e.g.
// "NSE:RELIANCE-EQ".
func fyersSymbol(exchange models.Exchange, symbol string) string {
	if (exchange == models.NSE || exchange == models.BSE) && !strings.Contains(symbol, "-") {
		return fmt.Sprintf("%s:%s-EQ", exchange, symbol)
	}
	return fmt.Sprintf("%s:%s", exchange, symbol)
}

// PlaceOrder validates and submits an order. Authentication failures
// surface as AUTH_EXPIRED errors; business rejections come back as a
// failure response.
func (f *FyersBroker) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResponse, error) {
	if v := ValidateOrderRequest(req); !v.IsValid {
		return &models.OrderResponse{Success: false, Message: v.Message()}, nil
	}

	if !f.IsLoggedIn() {
		return &models.OrderResponse{Success: false, Message: "login required before placing orders"}, nil
	}

	validity := req.Validity
	if validity == "" || validity == models.ValidityGTD {
		// Fyers has no GTD; orders fall back to day validity.
		validity = models.ValidityDay
	}

	payload := map[string]interface{}{
		"symbol":       fyersSymbol(req.Exchange, req.Symbol),
		"qty":          req.Quantity,
		"type":         fyersOrderTypes[req.OrderType],
		"side":         fyersSides[req.Action],
		"productType":  fyersProducts[req.Product],
		"limitPrice":   req.Price,
		"stopPrice":    req.TriggerPrice,
		"validity":     string(validity),
		"disclosedQty": 0,
		"offlineOrder": "False",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "encoding order payload")
	}

	_, respBody, err := f.client.post(ctx, "place_order", fyersEPOrders, f.authHeader(), body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "place_order", fmt.Errorf("decoding response: %w", err))
	}

	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("place_order", resp.Message)
		}
		return &models.OrderResponse{Success: false, Message: resp.Message}, nil
	}

	return &models.OrderResponse{
		Success: true,
		Message: "order placed",
		Data: &models.OrderData{
			OrderID:       resp.ID,
			BrokerOrderID: resp.ID,
			Status:        models.OrderStatusPending,
		},
	}, nil
}

// fyersOrder is the broker's order book record.
type fyersOrder struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Quantity     int     `json:"qty"`
	FilledQty    int     `json:"filledQty"`
	LimitPrice   float64 `json:"limitPrice"`
	StopPrice    float64 `json:"stopPrice"`
	TradedPrice  float64 `json:"tradedPrice"`
	Status       int     `json:"status"`
	Side         int     `json:"side"`
	Type         int     `json:"type"`
	ProductType  string  `json:"productType"`
	Message      string  `json:"message"`
	OrderDateTime string `json:"orderDateTime"`
}

func (f *FyersBroker) toOrderStatusDetail(o fyersOrder) models.OrderStatusDetail {
	rawStatus := fmt.Sprintf("%d", o.Status)
	status := f.MapOrderStatus(rawStatus)
	if status == models.OrderStatusPending && o.FilledQty > 0 && o.FilledQty < o.Quantity {
		status = models.OrderStatusPartial
	}

	exchange, symbol := splitFyersSymbol(o.Symbol)
	detail := models.OrderStatusDetail{
		OrderID:         o.ID,
		BrokerOrderID:   o.ID,
		Symbol:          symbol,
		Exchange:        exchange,
		Quantity:        o.Quantity,
		FilledQuantity:  o.FilledQty,
		Price:           o.LimitPrice,
		TriggerPrice:    o.StopPrice,
		AveragePrice:    o.TradedPrice,
		Status:          status,
		RawStatus:       rawStatus,
		RejectionReason: o.Message,
	}
	for action, side := range fyersSides {
		if side == o.Side {
			detail.Action = action
		}
	}
	for orderType, code := range fyersOrderTypes {
		if code == o.Type {
			detail.OrderType = orderType
		}
	}
	for product, code := range fyersProducts {
		if code == o.ProductType {
			detail.Product = product
		}
	}
	if t, err := time.Parse("02-Jan-2006 15:04:05", o.OrderDateTime); err == nil {
		detail.PlacedAt = t
	}
	return detail
}

// splitFyersSymbol breaks "NSE:RELIANCE-EQ" into exchange and bare symbol.
func splitFyersSymbol(s string) (models.Exchange, string) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", s
	}
	return models.Exchange(parts[0]), strings.TrimSuffix(parts[1], "-EQ")
}

// GetOrderBook returns all orders for the account, normalized.
func (f *FyersBroker) GetOrderBook(ctx context.Context, accountID string) ([]models.OrderStatusDetail, error) {
	if !f.IsLoggedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	_, respBody, err := f.client.get(ctx, "order_book", fyersEPOrders, f.authHeader())
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		OrderBook []fyersOrder `json:"orderBook"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "order_book", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("order_book", resp.Message)
		}
		return nil, apperrors.NewBrokerError(BrokerFyers, fmt.Sprintf("%d", resp.Code), resp.Message)
	}

	details := make([]models.OrderStatusDetail, 0, len(resp.OrderBook))
	for _, o := range resp.OrderBook {
		details = append(details, f.toOrderStatusDetail(o))
	}
	return details, nil
}

// GetOrderStatus returns the latest state of a single order.
func (f *FyersBroker) GetOrderStatus(ctx context.Context, accountID, orderID string) (*models.OrderStatusDetail, error) {
	if !f.IsLoggedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	type orderQuery struct {
		ID string `url:"id"`
	}
	v, _ := query.Values(orderQuery{ID: orderID})

	_, respBody, err := f.client.get(ctx, "order_status", fyersEPOrders+"?"+v.Encode(), f.authHeader())
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		OrderBook []fyersOrder `json:"orderBook"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "order_status", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("order_status", resp.Message)
		}
		return nil, apperrors.NewBrokerError(BrokerFyers, fmt.Sprintf("%d", resp.Code), resp.Message)
	}
	if len(resp.OrderBook) == 0 {
		return nil, apperrors.NewBrokerError(BrokerFyers, "", fmt.Sprintf("order %s not found", orderID))
	}

	detail := f.toOrderStatusDetail(resp.OrderBook[0])
	return &detail, nil
}

// GetPositions returns net positions with derived P&L.
func (f *FyersBroker) GetPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	if !f.IsLoggedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	_, respBody, err := f.client.get(ctx, "positions", fyersEPPositions, f.authHeader())
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		NetPositions []struct {
			Symbol      string  `json:"symbol"`
			NetQty      int     `json:"netQty"`
			NetAvg      float64 `json:"netAvg"`
			LTP         float64 `json:"ltp"`
			ProductType string  `json:"productType"`
		} `json:"netPositions"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "positions", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("positions", resp.Message)
		}
		return nil, apperrors.NewBrokerError(BrokerFyers, fmt.Sprintf("%d", resp.Code), resp.Message)
	}

	positions := make([]models.Position, 0, len(resp.NetPositions))
	for _, p := range resp.NetPositions {
		exchange, symbol := splitFyersSymbol(p.Symbol)
		pos := models.Position{
			Symbol:       symbol,
			Exchange:     exchange,
			Quantity:     p.NetQty,
			AveragePrice: p.NetAvg,
			CurrentPrice: p.LTP,
			PnL:          models.ComputePnL(p.LTP, p.NetAvg, p.NetQty),
		}
		for product, code := range fyersProducts {
			if code == p.ProductType {
				pos.Product = product
			}
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// SearchScrip searches tradeable symbols on an exchange.
func (f *FyersBroker) SearchScrip(ctx context.Context, exchange models.Exchange, text string) ([]models.SearchResult, error) {
	if !f.IsLoggedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	type searchQuery struct {
		Symbol   string `url:"symbol"`
		Exchange string `url:"exchange"`
	}
	v, _ := query.Values(searchQuery{Symbol: text, Exchange: string(exchange)})

	_, respBody, err := f.client.get(ctx, "search_scrip", "/search?"+v.Encode(), f.authHeader())
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		Symbols []struct {
			Symbol   string `json:"symbol"`
			Name     string `json:"description"`
			Token    string `json:"fyToken"`
			LotSize  int    `json:"minLotSize"`
			TickSize float64 `json:"tickSize"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "search_scrip", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("search_scrip", resp.Message)
		}
		return nil, apperrors.NewBrokerError(BrokerFyers, fmt.Sprintf("%d", resp.Code), resp.Message)
	}

	results := make([]models.SearchResult, 0, len(resp.Symbols))
	for _, sym := range resp.Symbols {
		ex, bare := splitFyersSymbol(sym.Symbol)
		if ex == "" {
			ex = exchange
		}
		results = append(results, models.SearchResult{
			Symbol:   bare,
			Name:     sym.Name,
			Token:    sym.Token,
			Exchange: ex,
			LotSize:  sym.LotSize,
			TickSize: sym.TickSize,
		})
	}
	return results, nil
}

// GetQuotes fetches a quote for an exchange-prefixed symbol token.
func (f *FyersBroker) GetQuotes(ctx context.Context, exchange models.Exchange, token string) (*models.Quote, error) {
	if !f.IsLoggedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	symbol := fyersSymbol(exchange, token)
	type quotesQuery struct {
		Symbols string `url:"symbols"`
	}
	v, _ := query.Values(quotesQuery{Symbols: symbol})

	_, respBody, err := f.client.get(ctx, "quotes", fyersEPQuotes+"?"+v.Encode(), f.authHeader())
	if err != nil {
		return nil, err
	}

	var resp struct {
		fyersEnvelope
		D []struct {
			N string `json:"n"`
			V struct {
				LP        float64 `json:"lp"`
				Change    float64 `json:"ch"`
				ChangePct float64 `json:"chp"`
				High      float64 `json:"high_price"`
				Low       float64 `json:"low_price"`
				Open      float64 `json:"open_price"`
				PrevClose float64 `json:"prev_close_price"`
				Volume    int64   `json:"volume"`
			} `json:"v"`
		} `json:"d"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewTransportError(BrokerFyers, "quotes", fmt.Errorf("decoding response: %w", err))
	}
	if resp.S != fyersOK {
		if isAuthFailureMessage(resp.Message) {
			return nil, f.authExpired("quotes", resp.Message)
		}
		return nil, apperrors.NewBrokerError(BrokerFyers, fmt.Sprintf("%d", resp.Code), resp.Message)
	}
	if len(resp.D) == 0 {
		return nil, apperrors.NewBrokerError(BrokerFyers, "", fmt.Sprintf("no quote for %s", symbol))
	}

	q := resp.D[0].V
	_, bare := splitFyersSymbol(resp.D[0].N)
	return &models.Quote{
		Symbol:        bare,
		Exchange:      exchange,
		LTP:           q.LP,
		Change:        q.Change,
		ChangePercent: q.ChangePct,
		Volume:        q.Volume,
		High:          q.High,
		Low:           q.Low,
		Open:          q.Open,
		Close:         q.PrevClose,
		Timestamp:     time.Now(),
	}, nil
}

// ValidateSession checks token expiry locally, then probes the profile
// endpoint. Any failure clears held tokens so later calls fail fast.
func (f *FyersBroker) ValidateSession(ctx context.Context, accountID string) bool {
	if !f.IsLoggedIn() {
		return false
	}

	_, respBody, err := f.client.get(ctx, "validate_session", fyersEPProfile, f.authHeader())
	if err != nil {
		f.clearTokens()
		return false
	}

	var resp fyersEnvelope
	if err := json.Unmarshal(respBody, &resp); err != nil || resp.S != fyersOK {
		f.clearTokens()
		return false
	}
	return true
}

// ExtractAccountInfo normalizes the login payload plus credentials into the
// canonical account identity. Fyers uses the app's client id as the account
// scope until the profile is fetched.
func (f *FyersBroker) ExtractAccountInfo(loginResult *models.LoginResult, creds models.BrokerCredentials) (*models.AccountInfo, error) {
	if loginResult == nil || !loginResult.Success {
		return nil, apperrors.ErrNotAuthenticated
	}
	if creds.OAuth == nil {
		return nil, apperrors.NewValidationError("fyers requires oauth credentials")
	}

	accountID := loginResult.AccountID
	if accountID == "" {
		accountID = creds.OAuth.ClientID
	}
	return &models.AccountInfo{
		AccountID: accountID,
		UserID:    creds.OAuth.ClientID,
		Broker:    BrokerFyers,
	}, nil
}

// ExtractOrderInfo pulls the broker order linkage out of a placement result.
func (f *FyersBroker) ExtractOrderInfo(orderResp *models.OrderResponse, orderInput *models.OrderRequest) models.OrderInfo {
	if orderResp == nil || orderResp.Data == nil {
		return models.OrderInfo{}
	}
	return models.OrderInfo{BrokerOrderID: orderResp.Data.BrokerOrderID}
}

// MapOrderStatus translates a Fyers numeric status code to the canonical
// value.
func (f *FyersBroker) MapOrderStatus(brokerStatus string) models.OrderStatus {
	return normalizeOrderStatus(fyersOrderStatuses, brokerStatus)
}

// Ensure FyersBroker implements the Broker interface
var _ Broker = (*FyersBroker)(nil)
