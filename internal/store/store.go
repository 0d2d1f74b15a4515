// Package store provides persistence for connected broker accounts.
package store

import (
	"context"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// AccountStore defines persistence for connected broker account records.
// Records are upserted and status-updated, never deleted: a disconnected
// account is marked INACTIVE so its history survives.
type AccountStore interface {
	SaveAccount(ctx context.Context, record *models.DbAccountRecord) error
	GetAccount(ctx context.Context, brokerName, accountID string) (*models.DbAccountRecord, error)
	ListAccounts(ctx context.Context) ([]models.DbAccountRecord, error)
	UpdateAccountStatus(ctx context.Context, brokerName, accountID string, status models.AccountStatus) error
	UpdateTokens(ctx context.Context, record *models.DbAccountRecord) error

	Close() error
}
