package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// SQLiteStore implements AccountStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based account store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connected_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		broker_name TEXT NOT NULL,
		account_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		account_status TEXT NOT NULL DEFAULT 'INACTIVE',
		token_expiry_time DATETIME,
		refresh_token_expiry_time DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(broker_name, account_id)
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_broker ON connected_accounts(broker_name);
	CREATE INDEX IF NOT EXISTS idx_accounts_status ON connected_accounts(account_status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveAccount inserts or replaces an account record keyed by broker and
// account id.
func (s *SQLiteStore) SaveAccount(ctx context.Context, record *models.DbAccountRecord) error {
	if record == nil {
		return fmt.Errorf("account record is required")
	}

	query := `
	INSERT INTO connected_accounts
		(broker_name, account_id, user_id, account_status, token_expiry_time, refresh_token_expiry_time)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(broker_name, account_id) DO UPDATE SET
		user_id = excluded.user_id,
		account_status = excluded.account_status,
		token_expiry_time = excluded.token_expiry_time,
		refresh_token_expiry_time = excluded.refresh_token_expiry_time,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query,
		record.BrokerName,
		record.AccountID,
		record.UserID,
		string(record.AccountStatus),
		nullableTime(record.TokenExpiryTime),
		nullableTime(record.RefreshTokenExpiryTime),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount fetches a single account record.
func (s *SQLiteStore) GetAccount(ctx context.Context, brokerName, accountID string) (*models.DbAccountRecord, error) {
	query := `
	SELECT broker_name, account_id, user_id, account_status,
	       token_expiry_time, refresh_token_expiry_time, created_at
	FROM connected_accounts
	WHERE broker_name = ? AND account_id = ?
	`
	row := s.db.QueryRowContext(ctx, query, brokerName, accountID)
	record, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s/%s not found", brokerName, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return record, nil
}

// ListAccounts returns all connected account records, newest first.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]models.DbAccountRecord, error) {
	query := `
	SELECT broker_name, account_id, user_id, account_status,
	       token_expiry_time, refresh_token_expiry_time, created_at
	FROM connected_accounts
	ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var records []models.DbAccountRecord
	for rows.Next() {
		record, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateAccountStatus flips the stored status of one account.
func (s *SQLiteStore) UpdateAccountStatus(ctx context.Context, brokerName, accountID string, status models.AccountStatus) error {
	query := `
	UPDATE connected_accounts
	SET account_status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE broker_name = ? AND account_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(status), brokerName, accountID)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s/%s not found", brokerName, accountID)
	}
	return nil
}

// UpdateTokens records fresh token expiry metadata after a login or refresh.
func (s *SQLiteStore) UpdateTokens(ctx context.Context, record *models.DbAccountRecord) error {
	if record == nil {
		return fmt.Errorf("account record is required")
	}

	query := `
	UPDATE connected_accounts
	SET account_status = ?,
	    token_expiry_time = ?,
	    refresh_token_expiry_time = ?,
	    updated_at = CURRENT_TIMESTAMP
	WHERE broker_name = ? AND account_id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(record.AccountStatus),
		nullableTime(record.TokenExpiryTime),
		nullableTime(record.RefreshTokenExpiryTime),
		record.BrokerName,
		record.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s/%s not found", record.BrokerName, record.AccountID)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.DbAccountRecord, error) {
	var record models.DbAccountRecord
	var status string
	var tokenExpiry, refreshExpiry sql.NullTime

	err := row.Scan(
		&record.BrokerName,
		&record.AccountID,
		&record.UserID,
		&status,
		&tokenExpiry,
		&refreshExpiry,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.AccountStatus = models.AccountStatus(status)
	if tokenExpiry.Valid {
		t := tokenExpiry.Time
		record.TokenExpiryTime = &t
	}
	if refreshExpiry.Valid {
		t := refreshExpiry.Time
		record.RefreshTokenExpiryTime = &t
	}
	return &record, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

var _ AccountStore = (*SQLiteStore)(nil)
