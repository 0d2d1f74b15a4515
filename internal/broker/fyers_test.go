package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

func fyersTestCredentials(authCode string) models.BrokerCredentials {
	return models.NewOAuthCredentials(BrokerFyers, models.OAuthCredentials{
		ClientID:    "ABCD1234-100",
		SecretKey:   "topsecret",
		RedirectURI: "https://example.com/callback",
		AuthCode:    authCode,
	})
}

func newFyersTestServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *FyersBroker) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewFyersBroker(FyersConfig{BaseURL: srv.URL})
}

func tokenExchangeHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding token request: %v", err)
		}
		if payload["grant_type"] != "authorization_code" {
			t.Errorf("grant_type = %q", payload["grant_type"])
		}
		if payload["appIdHash"] != sha256Hex("ABCD1234-100:topsecret") {
			t.Error("appIdHash must be sha256(appID:secretKey)")
		}
		if payload["code"] != "authcode123" {
			t.Errorf("code = %q", payload["code"])
		}

		json.NewEncoder(w).Encode(map[string]string{
			"s":             "ok",
			"access_token":  "access-xyz",
			"refresh_token": "refresh-xyz",
		})
	}
}

func loginFyers(t *testing.T, b *FyersBroker) {
	t.Helper()
	result, err := b.Login(context.Background(), fyersTestCredentials("authcode123"))
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !result.Success || result.AccessToken == "" {
		t.Fatalf("login failed: %+v", result)
	}
}

func TestFyersLogin_WithoutAuthCodeReturnsAuthURL(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})
	_, b := newFyersTestServer(t, mux)

	result, err := b.Login(context.Background(), fyersTestCredentials(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("the auth-URL step is a successful outcome")
	}
	if result.AuthURL == "" {
		t.Fatal("expected AuthURL")
	}
	if b.IsLoggedIn() {
		t.Error("no session is held before the code exchange")
	}
	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("building the auth URL must not touch the network, got %d calls", n)
	}

	u, err := url.Parse(result.AuthURL)
	if err != nil {
		t.Fatalf("invalid auth URL: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "ABCD1234-100" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://example.com/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("state") == "" {
		t.Error("expected a state parameter")
	}
}

func TestFyersLogin_TokenExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	_, b := newFyersTestServer(t, mux)

	before := time.Now()
	result, err := b.Login(context.Background(), fyersTestCredentials("authcode123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.AccessToken != "access-xyz" || result.RefreshToken != "refresh-xyz" {
		t.Errorf("tokens not surfaced: %+v", result)
	}

	if result.TokenExpiryTime == nil || result.RefreshTokenExpiryTime == nil {
		t.Fatal("token expiries must be returned for persistence")
	}
	accessTTL := result.TokenExpiryTime.Sub(before)
	if accessTTL < 23*time.Hour || accessTTL > 25*time.Hour {
		t.Errorf("access token TTL = %v, want ~24h", accessTTL)
	}
	refreshTTL := result.RefreshTokenExpiryTime.Sub(before)
	if refreshTTL < 14*24*time.Hour || refreshTTL > 16*24*time.Hour {
		t.Errorf("refresh token TTL = %v, want ~15d", refreshTTL)
	}

	if !b.IsLoggedIn() {
		t.Error("expected IsLoggedIn after token exchange")
	}
}

func TestFyersLogin_ExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s":       "error",
			"code":    -413,
			"message": "invalid auth code",
		})
	})
	_, b := newFyersTestServer(t, mux)

	result, err := b.Login(context.Background(), fyersTestCredentials("authcode123"))
	if err != nil {
		t.Fatalf("exchange rejection is a failure result, not an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Message, "invalid auth code") {
		t.Errorf("Message = %q", result.Message)
	}
	if b.IsLoggedIn() {
		t.Error("failed exchange must not store tokens")
	}
}

func TestFyersPlaceOrder_WithoutLoginMakesNoHTTPCalls(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})
	_, b := newFyersTestServer(t, mux)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "SBIN",
		Action:    models.ActionBuy,
		Quantity:  1,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductCNC,
		AccountID: "ACC1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success || !strings.Contains(resp.Message, "login required") {
		t.Errorf("expected local login-required failure, got %+v", resp)
	}
	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("expected zero HTTP calls, got %d", n)
	}
}

func TestFyersPlaceOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPOrders, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "ABCD1234-100:access-xyz" {
			t.Errorf("Authorization = %q, want appID:accessToken", got)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding order payload: %v", err)
		}
		if payload["symbol"] != "NSE:SBIN-EQ" {
			t.Errorf("symbol = %v, want exchange-prefixed NSE:SBIN-EQ", payload["symbol"])
		}
		if payload["type"] != float64(2) {
			t.Errorf("type = %v, want 2 (market)", payload["type"])
		}
		if payload["side"] != float64(1) {
			t.Errorf("side = %v, want 1 (buy)", payload["side"])
		}
		if payload["productType"] != "INTRADAY" {
			t.Errorf("productType = %v, want INTRADAY", payload["productType"])
		}

		json.NewEncoder(w).Encode(map[string]string{
			"s":  "ok",
			"id": "808058117761",
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "SBIN",
		Action:    models.ActionBuy,
		Quantity:  50,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductMIS,
		AccountID: "ACC1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Message)
	}
	if resp.Data.OrderID != "808058117761" {
		t.Errorf("OrderID = %q", resp.Data.OrderID)
	}
}

func TestFyersPlaceOrder_AuthExpiredClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPOrders, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s":       "error",
			"code":    -16,
			"message": "Your token has expired",
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	_, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "SBIN",
		Action:    models.ActionBuy,
		Quantity:  1,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductCNC,
		AccountID: "ACC1",
	})
	if err == nil {
		t.Fatal("expected an auth error")
	}
	if !apperrors.IsAuthExpired(err) {
		t.Errorf("expected AUTH_EXPIRED classification, got %v", err)
	}
	if b.IsLoggedIn() {
		t.Error("expired tokens must be cleared")
	}
}

func TestFyersPlaceOrder_BusinessRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPOrders, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s":       "error",
			"code":    -99,
			"message": "Insufficient funds",
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	resp, err := b.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "SBIN",
		Action:    models.ActionBuy,
		Quantity:  1,
		OrderType: models.OrderTypeMarket,
		Exchange:  models.NSE,
		Product:   models.ProductCNC,
		AccountID: "ACC1",
	})
	if err != nil {
		t.Fatalf("business rejections are results, not errors: %v", err)
	}
	if resp.Success || resp.Message != "Insufficient funds" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !b.IsLoggedIn() {
		t.Error("business rejection must not clear the session")
	}
}

func TestFyersGetPositions_DerivesPnL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPPositions, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "ok",
			"netPositions": []map[string]interface{}{
				{
					"symbol":      "NSE:SBIN-EQ",
					"netQty":      50,
					"netAvg":      800.0,
					"ltp":         810.5,
					"productType": "INTRADAY",
				},
			},
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	positions, err := b.GetPositions(context.Background(), "ACC1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	p := positions[0]
	if p.Symbol != "SBIN" || p.Exchange != models.NSE {
		t.Errorf("symbol split wrong: %+v", p)
	}
	if p.Product != models.ProductMIS {
		t.Errorf("Product = %s, want MIS", p.Product)
	}
	want := models.ComputePnL(810.5, 800.0, 50)
	if p.PnL != want {
		t.Errorf("PnL = %v, want derived %v", p.PnL, want)
	}
}

func TestFyersRefreshAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPRefreshToken, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["grant_type"] != "refresh_token" || payload["refresh_token"] != "refresh-xyz" {
			t.Errorf("unexpected refresh payload: %v", payload)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"s":            "ok",
			"access_token": "access-new",
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	result, err := b.RefreshAccessToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken != "access-new" {
		t.Errorf("AccessToken = %q", result.AccessToken)
	}
	if result.TokenExpiryTime == nil {
		t.Error("refresh must return a new access expiry")
	}
	if !b.IsLoggedIn() {
		t.Error("expected session to stay live after refresh")
	}
}

func TestFyersValidateSession_ClearsOnProbeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(fyersEPValidateAuthCode, tokenExchangeHandler(t))
	mux.HandleFunc(fyersEPProfile, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s":       "error",
			"message": "unauthorized",
		})
	})
	_, b := newFyersTestServer(t, mux)
	loginFyers(t, b)

	if b.ValidateSession(context.Background(), "ACC1") {
		t.Fatal("expected validation to fail")
	}
	if b.IsLoggedIn() {
		t.Error("failed probe must clear tokens")
	}
}

func TestFyersSymbol(t *testing.T) {
	tests := []struct {
		exchange models.Exchange
		symbol   string
		want     string
	}{
		{models.NSE, "SBIN", "NSE:SBIN-EQ"},
		{models.BSE, "RELIANCE", "BSE:RELIANCE-EQ"},
		{models.NSE, "SBIN-BE", "NSE:SBIN-BE"},
		{models.NFO, "NIFTY24DECFUT", "NFO:NIFTY24DECFUT"},
	}
	for _, tt := range tests {
		if got := fyersSymbol(tt.exchange, tt.symbol); got != tt.want {
			t.Errorf("fyersSymbol(%s, %q) = %q, want %q", tt.exchange, tt.symbol, got, tt.want)
		}
	}
}
