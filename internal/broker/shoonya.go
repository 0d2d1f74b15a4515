package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// BrokerShoonya is the registry key for the Shoonya adapter.
const BrokerShoonya = "shoonya"

const shoonyaBaseURL = "https://api.shoonya.com/NorenWClientTP"

// Shoonya wire endpoints. Authenticated calls append the session token as
// an additional jKey form field.
const (
	shoonyaEPQuickAuth   = "/QuickAuth"
	shoonyaEPLogout      = "/Logout"
	shoonyaEPPlaceOrder  = "/PlaceOrder"
	shoonyaEPModifyOrder = "/ModifyOrder"
	shoonyaEPCancelOrder = "/CancelOrder"
	shoonyaEPOrderBook   = "/OrderBook"
	shoonyaEPOrderStatus = "/SingleOrdStatus"
	shoonyaEPTradeBook   = "/TradeBook"
	shoonyaEPPositions   = "/PositionBook"
	shoonyaEPSearchScrip = "/SearchScrip"
	shoonyaEPGetQuotes   = "/GetQuotes"
	shoonyaEPLimits      = "/Limits"
)

// shoonyaOK is the broker's success sentinel in the stat field.
const shoonyaOK = "Ok"

// ShoonyaBroker implements the Broker interface for the Shoonya direct-auth
// REST API (SHA256 password hash + TOTP second factor, session token
// without fixed expiry).
type ShoonyaBroker struct {
	client *apiClient
	logger zerolog.Logger

	mu           sync.RWMutex
	userID       string
	accountID    string
	vendorCode   string
	sessionToken string
}

// ShoonyaConfig holds configuration for the Shoonya adapter.
type ShoonyaConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewShoonyaBroker creates a new Shoonya adapter instance. Session state
// lives on the instance; reuse one per account for session continuity.
func NewShoonyaBroker(cfg ShoonyaConfig) *ShoonyaBroker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = shoonyaBaseURL
	}
	return &ShoonyaBroker{
		client: newAPIClient(BrokerShoonya, baseURL, cfg.Timeout, cfg.Logger),
		logger: cfg.Logger,
	}
}

// Name returns the broker key.
func (s *ShoonyaBroker) Name() string {
	return BrokerShoonya
}

// shoonyaEnvelope is the common stat/emsg pair every response carries.
type shoonyaEnvelope struct {
	Stat string `json:"stat"`
	Emsg string `json:"emsg"`
}

// callRaw posts jData (and jKey when authenticated) to an endpoint and
// returns the raw response body.
func (s *ShoonyaBroker) callRaw(ctx context.Context, operation, endpoint string, payload interface{}, authenticated bool) ([]byte, error) {
	jData, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "encoding request payload")
	}

	body := "jData=" + string(jData)
	if authenticated {
		s.mu.RLock()
		token := s.sessionToken
		s.mu.RUnlock()
		body += "&jKey=" + token
	}

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	_, respBody, err := s.client.post(ctx, operation, endpoint, headers, []byte(body))
	return respBody, err
}

// call is callRaw plus decoding into out. Business failures surface via the
// envelope, not as errors.
func (s *ShoonyaBroker) call(ctx context.Context, operation, endpoint string, payload interface{}, authenticated bool, out interface{}) error {
	respBody, err := s.callRaw(ctx, operation, endpoint, payload, authenticated)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewTransportError(BrokerShoonya, operation, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Login performs the SHA256 + TOTP handshake and stores the returned
// session token on the instance. Credential failures come back as a failure
// result; only transport failures are errors.
func (s *ShoonyaBroker) Login(ctx context.Context, creds models.BrokerCredentials) (*models.LoginResult, error) {
	if creds.Direct == nil {
		return nil, apperrors.NewValidationError("shoonya requires direct-auth credentials")
	}
	dc := creds.Direct

	otpCode, err := totp.GenerateCode(dc.TOTPKey, time.Now())
	if err != nil {
		return nil, apperrors.NewValidationError("invalid TOTP key: " + err.Error())
	}

	payload := map[string]string{
		"source":     "API",
		"apkversion": "1.0.0",
		"uid":        dc.UserID,
		"pwd":        sha256Hex(dc.Password),
		"factor2":    otpCode,
		"vc":         dc.VendorCode,
		"appkey":     sha256Hex(dc.UserID + "|" + dc.APISecret),
		"imei":       dc.IMEI,
	}

	var resp struct {
		shoonyaEnvelope
		SessionToken string   `json:"susertoken"`
		AccountID    string   `json:"actid"`
		UserName     string   `json:"uname"`
		Email        string   `json:"email"`
		Exchanges    []string `json:"exarr"`
		Products     []string `json:"prarr"`
	}
	if err := s.call(ctx, "login", shoonyaEPQuickAuth, payload, false, &resp); err != nil {
		return nil, err
	}

	if resp.Stat != shoonyaOK || resp.SessionToken == "" {
		msg := resp.Emsg
		if msg == "" {
			msg = "login failed"
		}
		return &models.LoginResult{Success: false, Message: msg}, nil
	}

	s.mu.Lock()
	s.userID = dc.UserID
	s.accountID = resp.AccountID
	s.vendorCode = dc.VendorCode
	s.sessionToken = resp.SessionToken
	s.mu.Unlock()

	s.logger.Info().Str("broker", BrokerShoonya).Str("user_id", dc.UserID).Msg("login successful")

	return &models.LoginResult{
		Success:   true,
		Message:   "login successful",
		AccountID: resp.AccountID,
		Raw: map[string]interface{}{
			"uname": resp.UserName,
			"email": resp.Email,
			"exarr": resp.Exchanges,
			"prarr": resp.Products,
		},
	}, nil
}

// Logout invalidates the broker session and clears local state. Local state
// is cleared even when the remote call reports a failure.
func (s *ShoonyaBroker) Logout(ctx context.Context) (*Result, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()

	if token == "" {
		return &Result{Success: true, Message: "not logged in"}, nil
	}

	var resp shoonyaEnvelope
	err := s.call(ctx, "logout", shoonyaEPLogout, map[string]string{"uid": uid}, true, &resp)

	s.clearSession()

	if err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return &Result{Success: false, Message: resp.Emsg}, nil
	}
	return &Result{Success: true, Message: "logged out"}, nil
}

// IsLoggedIn reports whether a session token is held locally.
func (s *ShoonyaBroker) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken != ""
}

// ValidateSession probes the account limits endpoint. Shoonya tokens carry
// no fixed expiry, so a live probe is the only reliable check; any
// non-success response clears local state so later calls fail fast.
func (s *ShoonyaBroker) ValidateSession(ctx context.Context, accountID string) bool {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()

	if token == "" {
		return false
	}
	if accountID == "" {
		accountID = uid
	}

	var resp shoonyaEnvelope
	payload := map[string]string{"uid": uid, "actid": accountID}
	if err := s.call(ctx, "validate_session", shoonyaEPLimits, payload, true, &resp); err != nil {
		s.clearSession()
		return false
	}
	if resp.Stat != shoonyaOK {
		s.clearSession()
		return false
	}
	return true
}

func (s *ShoonyaBroker) clearSession() {
	s.mu.Lock()
	s.sessionToken = ""
	s.mu.Unlock()
}

// shoonyaTradingSymbol applies exchange-specific suffixing: NSE equity
// symbols carry an -EQ marker, other exchanges use the symbol as-is.
func shoonyaTradingSymbol(exchange models.Exchange, symbol string) string {
	if exchange == models.NSE && !hasSeriesSuffix(symbol) {
		return symbol + "-EQ"
	}
	return symbol
}

func hasSeriesSuffix(symbol string) bool {
	for i := len(symbol) - 1; i >= 0; i-- {
		if symbol[i] == '-' {
			return true
		}
	}
	return false
}

var shoonyaOrderTypes = map[models.OrderType]string{
	models.OrderTypeMarket:   "MKT",
	models.OrderTypeLimit:    "LMT",
	models.OrderTypeSLLimit:  "SL-LMT",
	models.OrderTypeSLMarket: "SL-MKT",
}

var shoonyaProducts = map[models.ProductType]string{
	models.ProductCNC:  "C",
	models.ProductMIS:  "I",
	models.ProductNRML: "M",
}

var shoonyaActions = map[models.OrderAction]string{
	models.ActionBuy:  "B",
	models.ActionSell: "S",
}

// PlaceOrder validates and submits an order. An unauthenticated instance
// fails locally without touching the network.
func (s *ShoonyaBroker) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResponse, error) {
	if v := ValidateOrderRequest(req); !v.IsValid {
		return &models.OrderResponse{Success: false, Message: v.Message()}, nil
	}

	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return &models.OrderResponse{Success: false, Message: "login required before placing orders"}, nil
	}

	accountID := req.AccountID
	if accountID == "" {
		accountID = uid
	}
	validity := req.Validity
	if validity == "" {
		validity = models.ValidityDay
	}

	payload := map[string]string{
		"uid":      uid,
		"actid":    accountID,
		"exch":     string(req.Exchange),
		"tsym":     shoonyaTradingSymbol(req.Exchange, req.Symbol),
		"qty":      strconv.Itoa(req.Quantity),
		"prc":      strconv.FormatFloat(req.Price, 'f', 2, 64),
		"prd":      shoonyaProducts[req.Product],
		"trantype": shoonyaActions[req.Action],
		"prctyp":   shoonyaOrderTypes[req.OrderType],
		"ret":      string(validity),
		"remarks":  req.Remarks,
	}
	if req.OrderType == models.OrderTypeSLLimit || req.OrderType == models.OrderTypeSLMarket {
		payload["trgprc"] = strconv.FormatFloat(req.TriggerPrice, 'f', 2, 64)
	}

	var resp struct {
		shoonyaEnvelope
		OrderNumber string `json:"norenordno"`
	}
	if err := s.call(ctx, "place_order", shoonyaEPPlaceOrder, payload, true, &resp); err != nil {
		return nil, err
	}

	if resp.Stat != shoonyaOK {
		return &models.OrderResponse{Success: false, Message: resp.Emsg}, nil
	}

	return &models.OrderResponse{
		Success: true,
		Message: "order placed",
		Data: &models.OrderData{
			OrderID:       resp.OrderNumber,
			BrokerOrderID: resp.OrderNumber,
			Status:        models.OrderStatusPending,
		},
	}, nil
}

// ModifyOrder amends price, quantity or type of an open order.
func (s *ShoonyaBroker) ModifyOrder(ctx context.Context, orderID string, req *models.OrderRequest) (*models.OrderResponse, error) {
	if v := ValidateOrderRequest(req); !v.IsValid {
		return &models.OrderResponse{Success: false, Message: v.Message()}, nil
	}

	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return &models.OrderResponse{Success: false, Message: "login required before modifying orders"}, nil
	}

	payload := map[string]string{
		"uid":        uid,
		"norenordno": orderID,
		"exch":       string(req.Exchange),
		"tsym":       shoonyaTradingSymbol(req.Exchange, req.Symbol),
		"qty":        strconv.Itoa(req.Quantity),
		"prc":        strconv.FormatFloat(req.Price, 'f', 2, 64),
		"prctyp":     shoonyaOrderTypes[req.OrderType],
		"ret":        string(models.ValidityDay),
	}

	var resp struct {
		shoonyaEnvelope
		Result string `json:"result"`
	}
	if err := s.call(ctx, "modify_order", shoonyaEPModifyOrder, payload, true, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return &models.OrderResponse{Success: false, Message: resp.Emsg}, nil
	}
	return &models.OrderResponse{
		Success: true,
		Message: "order modified",
		Data:    &models.OrderData{OrderID: orderID, BrokerOrderID: orderID, Status: models.OrderStatusPending},
	}, nil
}

// CancelOrder cancels an open order.
func (s *ShoonyaBroker) CancelOrder(ctx context.Context, orderID string) (*Result, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return &Result{Success: false, Message: "login required before cancelling orders"}, nil
	}

	var resp shoonyaEnvelope
	payload := map[string]string{"uid": uid, "norenordno": orderID}
	if err := s.call(ctx, "cancel_order", shoonyaEPCancelOrder, payload, true, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return &Result{Success: false, Message: resp.Emsg}, nil
	}
	return &Result{Success: true, Message: "order cancelled"}, nil
}

// shoonyaOrder is the broker's order book record.
type shoonyaOrder struct {
	shoonyaEnvelope
	OrderNumber  string `json:"norenordno"`
	Exchange     string `json:"exch"`
	Symbol       string `json:"tsym"`
	Quantity     string `json:"qty"`
	Price        string `json:"prc"`
	TriggerPrice string `json:"trgprc"`
	FillShares   string `json:"fillshares"`
	AveragePrice string `json:"avgprc"`
	Status       string `json:"status"`
	TranType     string `json:"trantype"`
	Product      string `json:"prd"`
	PriceType    string `json:"prctyp"`
	Rejection    string `json:"rejreason"`
	OrderTime    string `json:"norentm"`
}

func (s *ShoonyaBroker) toOrderStatusDetail(o shoonyaOrder) models.OrderStatusDetail {
	qty := parseInt(o.Quantity)
	filled := parseInt(o.FillShares)

	status := s.MapOrderStatus(o.Status)
	// An open order with partial fills reports as PARTIAL.
	if status == models.OrderStatusPending && filled > 0 && filled < qty {
		status = models.OrderStatusPartial
	}

	detail := models.OrderStatusDetail{
		OrderID:         o.OrderNumber,
		BrokerOrderID:   o.OrderNumber,
		Symbol:          o.Symbol,
		Exchange:        models.Exchange(o.Exchange),
		Quantity:        qty,
		FilledQuantity:  filled,
		Price:           parseFloat(o.Price),
		TriggerPrice:    parseFloat(o.TriggerPrice),
		AveragePrice:    parseFloat(o.AveragePrice),
		Status:          status,
		RawStatus:       o.Status,
		RejectionReason: o.Rejection,
	}

	for action, code := range shoonyaActions {
		if code == o.TranType {
			detail.Action = action
		}
	}
	for orderType, code := range shoonyaOrderTypes {
		if code == o.PriceType {
			detail.OrderType = orderType
		}
	}
	for product, code := range shoonyaProducts {
		if code == o.Product {
			detail.Product = product
		}
	}
	if t, err := time.Parse("15:04:05 02-01-2006", o.OrderTime); err == nil {
		detail.PlacedAt = t
	}
	return detail
}

// GetOrderBook returns all orders for the account, normalized.
func (s *ShoonyaBroker) GetOrderBook(ctx context.Context, accountID string) ([]models.OrderStatusDetail, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	respBody, err := s.callRaw(ctx, "order_book", shoonyaEPOrderBook, map[string]string{"uid": uid}, true)
	if err != nil {
		return nil, err
	}

	var resp []shoonyaOrder
	if err := json.Unmarshal(respBody, &resp); err != nil {
		// An empty or failed book comes back as a bare envelope, not an array.
		var env shoonyaEnvelope
		if jerr := json.Unmarshal(respBody, &env); jerr == nil && env.Stat != shoonyaOK {
			return []models.OrderStatusDetail{}, nil
		}
		return nil, apperrors.NewTransportError(BrokerShoonya, "order_book", fmt.Errorf("decoding response: %w", err))
	}

	details := make([]models.OrderStatusDetail, 0, len(resp))
	for _, o := range resp {
		if o.Stat != shoonyaOK && o.OrderNumber == "" {
			continue
		}
		details = append(details, s.toOrderStatusDetail(o))
	}
	return details, nil
}

// GetOrderStatus returns the latest state of a single order.
func (s *ShoonyaBroker) GetOrderStatus(ctx context.Context, accountID, orderID string) (*models.OrderStatusDetail, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	var resp shoonyaOrder
	payload := map[string]string{"uid": uid, "norenordno": orderID}
	if err := s.call(ctx, "order_status", shoonyaEPOrderStatus, payload, true, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return nil, apperrors.NewBrokerError(BrokerShoonya, "", resp.Emsg)
	}

	detail := s.toOrderStatusDetail(resp)
	return &detail, nil
}

// GetTradeBook returns the day's executed fills.
func (s *ShoonyaBroker) GetTradeBook(ctx context.Context, accountID string) ([]models.Trade, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if accountID == "" {
		accountID = uid
	}

	var resp []struct {
		shoonyaEnvelope
		OrderNumber string `json:"norenordno"`
		Exchange    string `json:"exch"`
		Symbol      string `json:"tsym"`
		Quantity    string `json:"flqty"`
		Price       string `json:"flprc"`
		TranType    string `json:"trantype"`
		Product     string `json:"prd"`
		FillTime    string `json:"fltm"`
	}
	payload := map[string]string{"uid": uid, "actid": accountID}
	respBody, err := s.callRaw(ctx, "trade_book", shoonyaEPTradeBook, payload, true)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		var env shoonyaEnvelope
		if jerr := json.Unmarshal(respBody, &env); jerr == nil && env.Stat != shoonyaOK {
			return []models.Trade{}, nil
		}
		return nil, apperrors.NewTransportError(BrokerShoonya, "trade_book", fmt.Errorf("decoding response: %w", err))
	}

	trades := make([]models.Trade, 0, len(resp))
	for _, t := range resp {
		trade := models.Trade{
			OrderID:  t.OrderNumber,
			Symbol:   t.Symbol,
			Exchange: models.Exchange(t.Exchange),
			Quantity: parseInt(t.Quantity),
			Price:    parseFloat(t.Price),
		}
		for action, code := range shoonyaActions {
			if code == t.TranType {
				trade.Action = action
			}
		}
		for product, code := range shoonyaProducts {
			if code == t.Product {
				trade.Product = product
			}
		}
		if ts, err := time.Parse("15:04:05 02-01-2006", t.FillTime); err == nil {
			trade.TradeTime = ts
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// GetPositions returns open positions with derived P&L.
func (s *ShoonyaBroker) GetPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if accountID == "" {
		accountID = uid
	}

	var resp []struct {
		shoonyaEnvelope
		Exchange     string `json:"exch"`
		Symbol       string `json:"tsym"`
		NetQuantity  string `json:"netqty"`
		AveragePrice string `json:"netavgprc"`
		LastPrice    string `json:"lp"`
		Product      string `json:"prd"`
	}
	payload := map[string]string{"uid": uid, "actid": accountID}
	respBody, err := s.callRaw(ctx, "positions", shoonyaEPPositions, payload, true)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		var env shoonyaEnvelope
		if jerr := json.Unmarshal(respBody, &env); jerr == nil && env.Stat != shoonyaOK {
			return []models.Position{}, nil
		}
		return nil, apperrors.NewTransportError(BrokerShoonya, "positions", fmt.Errorf("decoding response: %w", err))
	}

	positions := make([]models.Position, 0, len(resp))
	for _, p := range resp {
		if p.Stat != shoonyaOK && p.Symbol == "" {
			continue
		}
		qty := parseInt(p.NetQuantity)
		avg := parseFloat(p.AveragePrice)
		ltp := parseFloat(p.LastPrice)

		pos := models.Position{
			Symbol:       p.Symbol,
			Exchange:     models.Exchange(p.Exchange),
			Quantity:     qty,
			AveragePrice: avg,
			CurrentPrice: ltp,
			PnL:          models.ComputePnL(ltp, avg, qty),
		}
		for product, code := range shoonyaProducts {
			if code == p.Product {
				pos.Product = product
			}
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// SearchScrip searches tradeable symbols on an exchange.
func (s *ShoonyaBroker) SearchScrip(ctx context.Context, exchange models.Exchange, text string) ([]models.SearchResult, error) {
	s.mu.RLock()
	uid, token := s.userID, s.sessionToken
	s.mu.RUnlock()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	var resp struct {
		shoonyaEnvelope
		Values []struct {
			Exchange string `json:"exch"`
			Symbol   string `json:"tsym"`
			Token    string `json:"token"`
			Name     string `json:"cname"`
			LotSize  string `json:"ls"`
			TickSize string `json:"ti"`
		} `json:"values"`
	}
	payload := map[string]string{"uid": uid, "exch": string(exchange), "stext": text}
	if err := s.call(ctx, "search_scrip", shoonyaEPSearchScrip, payload, true, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return nil, apperrors.NewBrokerError(BrokerShoonya, "", resp.Emsg)
	}

	results := make([]models.SearchResult, 0, len(resp.Values))
	for _, v := range resp.Values {
		results = append(results, models.SearchResult{
			Symbol:   v.Symbol,
			Name:     v.Name,
			Token:    v.Token,
			Exchange: models.Exchange(v.Exchange),
			LotSize:  parseInt(v.LotSize),
			TickSize: parseFloat(v.TickSize),
		})
	}
	return results, nil
}

// GetQuotes fetches a quote by exchange and instrument token.
func (s *ShoonyaBroker) GetQuotes(ctx context.Context, exchange models.Exchange, token string) (*models.Quote, error) {
	s.mu.RLock()
	uid, session := s.userID, s.sessionToken
	s.mu.RUnlock()
	if session == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	var resp struct {
		shoonyaEnvelope
		Symbol    string `json:"tsym"`
		LastPrice string `json:"lp"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
	}
	payload := map[string]string{"uid": uid, "exch": string(exchange), "token": token}
	if err := s.call(ctx, "quotes", shoonyaEPGetQuotes, payload, true, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != shoonyaOK {
		return nil, apperrors.NewBrokerError(BrokerShoonya, "", resp.Emsg)
	}

	ltp := parseFloat(resp.LastPrice)
	prevClose := parseFloat(resp.Close)
	change := ltp - prevClose
	changePercent := 0.0
	if prevClose > 0 {
		changePercent = (change / prevClose) * 100
	}

	return &models.Quote{
		Symbol:        resp.Symbol,
		Exchange:      exchange,
		LTP:           ltp,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        int64(parseInt(resp.Volume)),
		High:          parseFloat(resp.High),
		Low:           parseFloat(resp.Low),
		Open:          parseFloat(resp.Open),
		Close:         prevClose,
		Timestamp:     time.Now(),
	}, nil
}

// ExtractAccountInfo normalizes the login payload plus credentials into the
// canonical account identity.
func (s *ShoonyaBroker) ExtractAccountInfo(loginResult *models.LoginResult, creds models.BrokerCredentials) (*models.AccountInfo, error) {
	if loginResult == nil || !loginResult.Success {
		return nil, apperrors.ErrNotAuthenticated
	}
	if creds.Direct == nil {
		return nil, apperrors.NewValidationError("shoonya requires direct-auth credentials")
	}

	info := &models.AccountInfo{
		AccountID: loginResult.AccountID,
		UserID:    creds.Direct.UserID,
		Broker:    BrokerShoonya,
	}
	if loginResult.Raw != nil {
		if v, ok := loginResult.Raw["uname"].(string); ok {
			info.UserName = v
		}
		if v, ok := loginResult.Raw["email"].(string); ok {
			info.Email = v
		}
		if v, ok := loginResult.Raw["exarr"].([]string); ok {
			info.Exchanges = v
		}
		if v, ok := loginResult.Raw["prarr"].([]string); ok {
			info.Products = v
		}
	}
	return info, nil
}

// ExtractOrderInfo pulls the broker order linkage out of a placement result.
func (s *ShoonyaBroker) ExtractOrderInfo(orderResp *models.OrderResponse, orderInput *models.OrderRequest) models.OrderInfo {
	if orderResp == nil || orderResp.Data == nil {
		return models.OrderInfo{}
	}
	return models.OrderInfo{BrokerOrderID: orderResp.Data.BrokerOrderID}
}

// MapOrderStatus translates a Shoonya status string to the canonical value.
func (s *ShoonyaBroker) MapOrderStatus(brokerStatus string) models.OrderStatus {
	return normalizeOrderStatus(shoonyaOrderStatuses, brokerStatus)
}

// Ensure ShoonyaBroker implements the Broker interface
var (
	_ Broker            = (*ShoonyaBroker)(nil)
	_ OrderAmender      = (*ShoonyaBroker)(nil)
	_ TradeBookProvider = (*ShoonyaBroker)(nil)
)
