// Package account computes the effective usability of stored broker
// accounts. Resolution is a pure function of the stored record and a clock
// reading; nothing here performs I/O or mutates the record.
package account

import (
	"strings"
	"time"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// Resolver computes the effective status of a stored account record at a
// given instant. Resolvers must be total: any record yields a verdict.
type Resolver func(record models.DbAccountRecord, now time.Time) models.EffectiveStatus

// resolvers dispatches on the lowercase broker name. Unknown brokers fall
// through to the conservative default.
var resolvers = map[string]Resolver{
	"shoonya": ResolveShoonya,
	"fyers":   ResolveFyers,
}

// Resolve computes the effective status for a record, dispatching on its
// broker name case-insensitively.
func Resolve(record models.DbAccountRecord, now time.Time) models.EffectiveStatus {
	if r, ok := resolvers[strings.ToLower(strings.TrimSpace(record.BrokerName))]; ok {
		return r(record, now)
	}
	return ResolveDefault(record, now)
}

// ResolveDefault is the conservative fallback for brokers without a
// dedicated resolver: inactive unless the stored status says active and any
// recorded token expiry is still in the future.
func ResolveDefault(record models.DbAccountRecord, now time.Time) models.EffectiveStatus {
	if record.AccountStatus != models.AccountStatusActive {
		return inactive()
	}
	if record.TokenExpiryTime != nil && !now.Before(*record.TokenExpiryTime) {
		return models.EffectiveStatus{
			AccountStatus:            models.AccountStatusInactive,
			IsTokenExpired:           true,
			ShouldShowActivateButton: true,
		}
	}
	return active()
}

// ResolveShoonya resolves Shoonya accounts. Shoonya session tokens carry no
// fixed expiry, so timestamps are ignored entirely: the stored status is
// the whole verdict. Deactivation is not offered because the session cannot
// be revoked remotely ahead of its natural end.
func ResolveShoonya(record models.DbAccountRecord, now time.Time) models.EffectiveStatus {
	if record.AccountStatus == models.AccountStatusActive {
		return models.EffectiveStatus{
			AccountStatus: models.AccountStatusActive,
			IsActive:      true,
		}
	}
	return inactive()
}

// ResolveFyers resolves Fyers accounts through the OAuth token lifecycle.
// The verdict distinguishes a dead refresh token (full re-authorization)
// from a merely stale access token (silent refresh possible).
func ResolveFyers(record models.DbAccountRecord, now time.Time) models.EffectiveStatus {
	if record.AccountStatus != models.AccountStatusActive {
		return models.EffectiveStatus{
			AccountStatus:            models.AccountStatusProceedToOAuth,
			ShouldShowActivateButton: true,
		}
	}
	if record.TokenExpiryTime == nil {
		// Active without expiry metadata means the token state is unknowable;
		// send the user back through authorization.
		return models.EffectiveStatus{
			AccountStatus:            models.AccountStatusProceedToOAuth,
			ShouldShowActivateButton: true,
		}
	}

	accessExpired := !now.Before(*record.TokenExpiryTime)
	if !accessExpired {
		return active()
	}

	refreshExpired := record.RefreshTokenExpiryTime == nil || !now.Before(*record.RefreshTokenExpiryTime)
	if refreshExpired {
		return models.EffectiveStatus{
			AccountStatus:            models.AccountStatusInactive,
			IsTokenExpired:           true,
			ShouldShowActivateButton: true,
		}
	}
	return models.EffectiveStatus{
		AccountStatus:            models.AccountStatusRefreshRequired,
		IsTokenExpired:           true,
		ShouldShowActivateButton: true,
	}
}

func active() models.EffectiveStatus {
	return models.EffectiveStatus{
		AccountStatus:              models.AccountStatusActive,
		IsActive:                   true,
		ShouldShowDeactivateButton: true,
	}
}

func inactive() models.EffectiveStatus {
	return models.EffectiveStatus{
		AccountStatus:            models.AccountStatusInactive,
		ShouldShowActivateButton: true,
	}
}
