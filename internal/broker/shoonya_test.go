package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

const testTOTPKey = "JBSWY3DPEHPK3PXP"

func shoonyaTestCredentials() models.BrokerCredentials {
	return models.NewDirectAuthCredentials(BrokerShoonya, models.DirectAuthCredentials{
		UserID:     "FA1234",
		Password:   "secret",
		VendorCode: "FA1234_U",
		APISecret:  "apikey99",
		IMEI:       "abc1234",
		TOTPKey:    testTOTPKey,
	})
}

// decodeJData splits a Shoonya form body into its jData payload and jKey
// token.
func decodeJData(t *testing.T, r *http.Request) (map[string]string, string) {
	t.Helper()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading request body: %v", err)
	}
	body := string(raw)
	if !strings.HasPrefix(body, "jData=") {
		t.Fatalf("expected jData form body, got %q", body)
	}
	body = strings.TrimPrefix(body, "jData=")

	var jKey string
	if idx := strings.Index(body, "&jKey="); idx >= 0 {
		jKey = body[idx+len("&jKey="):]
		body = body[:idx]
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decoding jData payload: %v", err)
	}
	return payload, jKey
}

func newShoonyaTestServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *ShoonyaBroker) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewShoonyaBroker(ShoonyaConfig{BaseURL: srv.URL})
}

func loginShoonya(t *testing.T, b *ShoonyaBroker) {
	t.Helper()
	result, err := b.Login(context.Background(), shoonyaTestCredentials())
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !result.Success {
		t.Fatalf("login failed: %s", result.Message)
	}
}

func quickAuthHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, jKey := decodeJData(t, r)
		if jKey != "" {
			t.Error("login must not carry a session token")
		}
		if payload["uid"] != "FA1234" {
			t.Errorf("uid = %q, want FA1234", payload["uid"])
		}
		if payload["pwd"] != sha256Hex("secret") {
			t.Error("password must be sent as its SHA256 hex digest")
		}
		if payload["appkey"] != sha256Hex("FA1234|apikey99") {
			t.Error("appkey must be sha256(uid|apisecret)")
		}
		if len(payload["factor2"]) != 6 {
			t.Errorf("factor2 = %q, want 6-digit TOTP", payload["factor2"])
		}
		if payload["source"] != "API" || payload["apkversion"] != "1.0.0" {
			t.Errorf("unexpected source/apkversion: %q/%q", payload["source"], payload["apkversion"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"stat":       "Ok",
			"susertoken": "tok123",
			"actid":      "FA1234",
			"uname":      "TEST USER",
			"email":      "test@example.com",
		})
	}
}

func TestShoonyaLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	_, b := newShoonyaTestServer(t, mux)

	result, err := b.Login(context.Background(), shoonyaTestCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.AccountID != "FA1234" {
		t.Errorf("AccountID = %q, want FA1234", result.AccountID)
	}
	if result.TokenExpiryTime != nil {
		t.Error("shoonya sessions have no fixed expiry, TokenExpiryTime must be nil")
	}
	if !b.IsLoggedIn() {
		t.Error("expected IsLoggedIn after successful login")
	}
}

func TestShoonyaLogin_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"stat": "Not_Ok",
			"emsg": "Invalid Input : Wrong Password",
		})
	})
	_, b := newShoonyaTestServer(t, mux)

	result, err := b.Login(context.Background(), shoonyaTestCredentials())
	if err != nil {
		t.Fatalf("credential rejection must not be an error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.Message, "Wrong Password") {
		t.Errorf("expected broker message passed through, got %q", result.Message)
	}
	if b.IsLoggedIn() {
		t.Error("failed login must not store a session")
	}
}

func TestShoonyaLogin_WrongCredentialVariant(t *testing.T) {
	b := NewShoonyaBroker(ShoonyaConfig{})

	_, err := b.Login(context.Background(), models.NewOAuthCredentials(BrokerShoonya, models.OAuthCredentials{
		ClientID: "X",
	}))
	if err == nil {
		t.Fatal("expected error for mismatched credential variant")
	}
}

func TestShoonyaPlaceOrder_WithoutLoginMakesNoHTTPCalls(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(map[string]string{"stat": "Ok"})
	})
	_, b := newShoonyaTestServer(t, mux)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "RELIANCE",
		Action:    models.ActionBuy,
		Quantity:  1,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "FA1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected local failure without a session")
	}
	if !strings.Contains(resp.Message, "login required") {
		t.Errorf("expected login-required message, got %q", resp.Message)
	}
	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("expected zero HTTP calls, got %d", n)
	}
}

func TestShoonyaPlaceOrder_InvalidOrderMakesNoHTTPCalls(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPPlaceOrder, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "RELIANCE",
		Action:    models.ActionBuy,
		Quantity:  10,
		OrderType: models.OrderTypeLimit, // limit without price
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "FA1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(resp.Message, "price is required") {
		t.Errorf("expected price message, got %q", resp.Message)
	}
	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("validation failures must not reach the network, got %d calls", n)
	}
}

func TestShoonyaPlaceOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPPlaceOrder, func(w http.ResponseWriter, r *http.Request) {
		payload, jKey := decodeJData(t, r)
		if jKey != "tok123" {
			t.Errorf("jKey = %q, want session token", jKey)
		}
		if payload["tsym"] != "RELIANCE-EQ" {
			t.Errorf("tsym = %q, want RELIANCE-EQ (NSE equity suffix)", payload["tsym"])
		}
		if payload["prctyp"] != "LMT" || payload["trantype"] != "B" || payload["prd"] != "I" {
			t.Errorf("unexpected order codes: prctyp=%q trantype=%q prd=%q",
				payload["prctyp"], payload["trantype"], payload["prd"])
		}
		if payload["qty"] != "10" || payload["prc"] != "820.50" {
			t.Errorf("unexpected qty/prc: %q/%q", payload["qty"], payload["prc"])
		}
		if payload["ret"] != "DAY" {
			t.Errorf("ret = %q, want DAY default", payload["ret"])
		}

		json.NewEncoder(w).Encode(map[string]string{
			"stat":       "Ok",
			"norenordno": "24083100001234",
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "RELIANCE",
		Action:    models.ActionBuy,
		Quantity:  10,
		OrderType: models.OrderTypeLimit,
		Price:     820.50,
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "FA1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Message)
	}
	if resp.Data.OrderID != "24083100001234" {
		t.Errorf("OrderID = %q", resp.Data.OrderID)
	}
	if resp.Data.Status != models.OrderStatusPending {
		t.Errorf("fresh orders report PENDING, got %s", resp.Data.Status)
	}

	info := b.ExtractOrderInfo(resp, nil)
	if info.BrokerOrderID != "24083100001234" {
		t.Errorf("BrokerOrderID = %q", info.BrokerOrderID)
	}
}

func TestShoonyaPlaceOrder_BusinessRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPPlaceOrder, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"stat": "Not_Ok",
			"emsg": "Insufficient margin",
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "RELIANCE",
		Action:    models.ActionBuy,
		Quantity:  10,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "FA1234",
	})
	if err != nil {
		t.Fatalf("business rejections are results, not errors: %v", err)
	}
	if resp.Success {
		t.Fatal("expected rejection")
	}
	if resp.Message != "Insufficient margin" {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestShoonyaGetOrderBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPOrderBook, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{
				"stat":       "Ok",
				"norenordno": "1001",
				"exch":       "NSE",
				"tsym":       "RELIANCE-EQ",
				"qty":        "10",
				"fillshares": "4",
				"prc":        "820.50",
				"avgprc":     "820.10",
				"status":     "OPEN",
				"trantype":   "B",
				"prd":        "I",
				"prctyp":     "LMT",
			},
			{
				"stat":       "Ok",
				"norenordno": "1002",
				"exch":       "NSE",
				"tsym":       "SBIN-EQ",
				"qty":        "5",
				"fillshares": "5",
				"prc":        "0.00",
				"status":     "COMPLETE",
				"trantype":   "S",
				"prd":        "C",
				"prctyp":     "MKT",
			},
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	orders, err := b.GetOrderBook(context.Background(), "FA1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	// Open order with partial fills reports PARTIAL.
	if orders[0].Status != models.OrderStatusPartial {
		t.Errorf("partially filled open order: Status = %s, want PARTIAL", orders[0].Status)
	}
	if orders[0].RawStatus != "OPEN" {
		t.Errorf("RawStatus = %q, want original broker token", orders[0].RawStatus)
	}
	if orders[0].Action != models.ActionBuy || orders[0].OrderType != models.OrderTypeLimit || orders[0].Product != models.ProductMIS {
		t.Errorf("reverse-mapped codes wrong: %+v", orders[0])
	}

	if orders[1].Status != models.OrderStatusExecuted {
		t.Errorf("Status = %s, want EXECUTED", orders[1].Status)
	}
	if orders[1].Action != models.ActionSell || orders[1].Product != models.ProductCNC {
		t.Errorf("reverse-mapped codes wrong: %+v", orders[1])
	}
}

func TestShoonyaGetOrderBook_EmptyEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPOrderBook, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"stat": "Not_Ok",
			"emsg": "no data",
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	orders, err := b.GetOrderBook(context.Background(), "FA1234")
	if err != nil {
		t.Fatalf("an empty book is not an error: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty slice, got %d orders", len(orders))
	}
}

func TestShoonyaValidateSession_ClearsDeadSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPLimits, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"stat": "Not_Ok",
			"emsg": "Session Expired",
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	if b.ValidateSession(context.Background(), "FA1234") {
		t.Fatal("expected validation to fail")
	}
	if b.IsLoggedIn() {
		t.Error("dead session must be cleared so later calls fail fast")
	}
}

func TestShoonyaLogout_ClearsStateEvenOnRemoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPLogout, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"stat": "Not_Ok",
			"emsg": "server busy",
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	result, err := b.Logout(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("remote failure should be reported")
	}
	if b.IsLoggedIn() {
		t.Error("local state must clear regardless of remote outcome")
	}
}

func TestShoonyaTradingSymbol(t *testing.T) {
	tests := []struct {
		exchange models.Exchange
		symbol   string
		want     string
	}{
		{models.NSE, "RELIANCE", "RELIANCE-EQ"},
		{models.NSE, "M&M", "M&M-EQ"},
		{models.NSE, "RELIANCE-EQ", "RELIANCE-EQ"},
		{models.NSE, "SBIN-BE", "SBIN-BE"},
		{models.BSE, "RELIANCE", "RELIANCE"},
		{models.NFO, "NIFTY24DECFUT", "NIFTY24DECFUT"},
	}
	for _, tt := range tests {
		if got := shoonyaTradingSymbol(tt.exchange, tt.symbol); got != tt.want {
			t.Errorf("shoonyaTradingSymbol(%s, %q) = %q, want %q", tt.exchange, tt.symbol, got, tt.want)
		}
	}
}

func TestShoonyaExtractAccountInfo(t *testing.T) {
	b := NewShoonyaBroker(ShoonyaConfig{})

	result := &models.LoginResult{
		Success:   true,
		AccountID: "FA1234",
		Raw: map[string]interface{}{
			"uname": "TEST USER",
			"email": "test@example.com",
		},
	}
	info, err := b.ExtractAccountInfo(result, shoonyaTestCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.AccountID != "FA1234" || info.UserID != "FA1234" || info.Broker != BrokerShoonya {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.UserName != "TEST USER" {
		t.Errorf("UserName = %q", info.UserName)
	}

	if _, err := b.ExtractAccountInfo(&models.LoginResult{Success: false}, shoonyaTestCredentials()); err == nil {
		t.Error("expected error for failed login result")
	}
}

func TestShoonyaModifyOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPModifyOrder, func(w http.ResponseWriter, r *http.Request) {
		payload, jKey := decodeJData(t, r)
		if jKey != "tok123" {
			t.Errorf("jKey = %q, want tok123", jKey)
		}
		if payload["norenordno"] != "ORD42" {
			t.Errorf("norenordno = %q, want ORD42", payload["norenordno"])
		}
		if payload["qty"] != "20" || payload["prc"] != "815.00" {
			t.Errorf("unexpected qty/prc: %q/%q", payload["qty"], payload["prc"])
		}
		json.NewEncoder(w).Encode(map[string]string{"stat": "Ok", "result": "ORD42"})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	resp, err := b.ModifyOrder(context.Background(), "ORD42", &models.OrderRequest{
		Symbol:    "RELIANCE",
		Action:    models.ActionBuy,
		Quantity:  20,
		OrderType: models.OrderTypeLimit,
		Price:     815,
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "FA1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Data.OrderID != "ORD42" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestShoonyaModifyOrder_InvalidRequestMakesNoHTTPCalls(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPModifyOrder, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	resp, err := b.ModifyOrder(context.Background(), "ORD42", &models.OrderRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success {
		t.Error("expected validation failure")
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("expected no HTTP calls, got %d", calls)
	}
}

func TestShoonyaCancelOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPCancelOrder, func(w http.ResponseWriter, r *http.Request) {
		payload, jKey := decodeJData(t, r)
		if jKey != "tok123" {
			t.Errorf("jKey = %q, want tok123", jKey)
		}
		if payload["norenordno"] != "ORD42" {
			t.Errorf("norenordno = %q, want ORD42", payload["norenordno"])
		}
		json.NewEncoder(w).Encode(map[string]string{"stat": "Ok"})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	result, err := b.CancelOrder(context.Background(), "ORD42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Errorf("cancel failed: %s", result.Message)
	}
}

func TestShoonyaCancelOrder_WithoutLogin(t *testing.T) {
	b := NewShoonyaBroker(ShoonyaConfig{})
	result, err := b.CancelOrder(context.Background(), "ORD42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "login required") {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestShoonyaGetTradeBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPTradeBook, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{
				"stat":       "Ok",
				"norenordno": "ORD42",
				"exch":       "NSE",
				"tsym":       "RELIANCE-EQ",
				"flqty":      "10",
				"flprc":      "820.50",
				"trantype":   "B",
				"prd":        "I",
				"fltm":       "10:15:30 26-08-2026",
			},
		})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	trades, err := b.GetTradeBook(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	trade := trades[0]
	if trade.OrderID != "ORD42" || trade.Quantity != 10 || trade.Price != 820.50 {
		t.Errorf("unexpected trade: %+v", trade)
	}
	if trade.Action != models.ActionBuy || trade.Product != models.ProductMIS {
		t.Errorf("reverse mapping failed: %+v", trade)
	}
	if trade.TradeTime.IsZero() {
		t.Error("expected fill time to parse")
	}
}

func TestShoonyaGetTradeBook_EmptyEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shoonyaEPQuickAuth, quickAuthHandler(t))
	mux.HandleFunc(shoonyaEPTradeBook, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"stat": "Not_Ok", "emsg": "no data"})
	})
	_, b := newShoonyaTestServer(t, mux)
	loginShoonya(t, b)

	trades, err := b.GetTradeBook(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected empty trade book, got %d", len(trades))
	}
}
