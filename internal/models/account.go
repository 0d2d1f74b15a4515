package models

import "time"

// BrokerCredentials is a tagged union of per-broker credential shapes.
// Exactly one variant is set for a given broker key; adapters reject a
// mismatched variant at the boundary.
type BrokerCredentials struct {
	Broker string
	Direct *DirectAuthCredentials
	OAuth  *OAuthCredentials
}

// DirectAuthCredentials are long-lived credentials exchanged synchronously
// for a session token (password + vendor code + shared secret + TOTP).
type DirectAuthCredentials struct {
	UserID     string
	Password   string
	VendorCode string
	APISecret  string
	IMEI       string
	TOTPKey    string
}

// OAuthCredentials drive the authorization-code flow. AuthCode is empty on
// the first login call; AccessToken/RefreshToken are set once issued.
type OAuthCredentials struct {
	ClientID     string
	SecretKey    string
	RedirectURI  string
	AuthCode     string
	AccessToken  string
	RefreshToken string
}

// NewDirectAuthCredentials wraps direct-auth credentials for a broker key.
func NewDirectAuthCredentials(broker string, c DirectAuthCredentials) BrokerCredentials {
	return BrokerCredentials{Broker: broker, Direct: &c}
}

// NewOAuthCredentials wraps OAuth credentials for a broker key.
func NewOAuthCredentials(broker string, c OAuthCredentials) BrokerCredentials {
	return BrokerCredentials{Broker: broker, OAuth: &c}
}

// LoginResult is the canonical outcome of a login attempt.
type LoginResult struct {
	Success bool
	Message string

	// AuthURL is set when the caller must redirect the user to complete an
	// OAuth authorization before calling Login again with the auth code.
	AuthURL string

	AccountID    string
	AccessToken  string
	RefreshToken string

	// Token lifetimes for the caller to persist. Nil for brokers whose
	// session tokens carry no fixed expiry.
	TokenExpiryTime        *time.Time
	RefreshTokenExpiryTime *time.Time

	// Raw is the opaque broker-specific login payload.
	Raw map[string]interface{}
}

// AccountInfo is the normalized account identity extracted from a login
// response plus the credentials used to obtain it.
type AccountInfo struct {
	AccountID string
	UserID    string
	UserName  string
	Email     string
	Broker    string
	Exchanges []string
	Products  []string
}

// DbAccountRecord is the persisted account row owned by the calling
// application. This layer reads it, never deletes it.
type DbAccountRecord struct {
	BrokerName             string
	AccountID              string
	UserID                 string
	AccountStatus          AccountStatus
	TokenExpiryTime        *time.Time
	RefreshTokenExpiryTime *time.Time
	CreatedAt              time.Time
}

// EffectiveStatus is the computed, never-persisted usability verdict for a
// stored account record at a point in time.
type EffectiveStatus struct {
	AccountStatus              AccountStatus
	IsActive                   bool
	IsTokenExpired             bool
	ShouldShowActivateButton   bool
	ShouldShowDeactivateButton bool
}
