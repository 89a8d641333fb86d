package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

const bankAccountColumns = `id, company_id, name, bank_code, agency, number, is_principal, active,
		opening_balance, current_balance, version, created_at, updated_at`

// BankAccountRepository implements bankaccount.Repository for PostgreSQL
type BankAccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBankAccountRepository creates a new PostgreSQL bank account repository
func NewBankAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) bankaccount.Repository {
	return &BankAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *BankAccountRepository) WithTx(tx pgx.Tx) bankaccount.Repository {
	return &BankAccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanBankAccount(row pgx.Row) (*bankaccount.BankAccount, error) {
	var acc bankaccount.BankAccount
	err := row.Scan(
		&acc.ID,
		&acc.CompanyID,
		&acc.Name,
		&acc.BankCode,
		&acc.Agency,
		&acc.Number,
		&acc.IsPrincipal,
		&acc.Active,
		&acc.OpeningBalance,
		&acc.CurrentBalance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Create stores a new bank account
func (r *BankAccountRepository) Create(ctx context.Context, acc *bankaccount.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, company_id, name, bank_code, agency, number, is_principal, active,
			opening_balance, current_balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID, acc.CompanyID, acc.Name, acc.BankCode, acc.Agency, acc.Number, acc.IsPrincipal, acc.Active,
		acc.OpeningBalance, acc.CurrentBalance, acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bank account", "error", err)
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	return nil
}

// GetByID retrieves a bank account by its id
func (r *BankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error) {
	query := `
		SELECT ` + bankAccountColumns + `
		FROM bank_accounts
		WHERE id = $1
	`

	acc, err := scanBankAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bankaccount.ErrBankAccountNotFound{BankAccountID: id}
		}
		r.logger.Error("Failed to get bank account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}

	return acc, nil
}

// Update persists the mutable bank account fields with optimistic locking
func (r *BankAccountRepository) Update(ctx context.Context, acc *bankaccount.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET name = $1, bank_code = $2, agency = $3, number = $4, is_principal = $5, active = $6,
			opening_balance = $7, current_balance = $8, version = $9, updated_at = $10
		WHERE id = $11 AND version = $12
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Name, acc.BankCode, acc.Agency, acc.Number, acc.IsPrincipal, acc.Active,
		acc.OpeningBalance, acc.CurrentBalance, acc.Version, acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update bank account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update bank account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return bankaccount.ErrConcurrentModification{BankAccountID: acc.ID}
	}

	return nil
}

// ApplyDelta atomically moves the current balance by the signed amount.
// Returns ErrConcurrentModification if the row changed since it was read.
func (r *BankAccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, version int) error {
	query := `
		UPDATE bank_accounts
		SET current_balance = current_balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.querier.Exec(ctx, query, delta, id, version)
	if err != nil {
		r.logger.Error("Failed to apply balance delta", "id", id.String(), "error", err)
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}

	if result.RowsAffected() == 0 {
		return bankaccount.ErrConcurrentModification{BankAccountID: id}
	}

	return nil
}

// SetBalance overwrites the current balance (explicit correction)
func (r *BankAccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE bank_accounts
		SET current_balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, balance, id)
	if err != nil {
		r.logger.Error("Failed to set balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return bankaccount.ErrBankAccountNotFound{BankAccountID: id}
	}

	return nil
}

// ClearPrincipal unsets the principal flag on every account of the company
func (r *BankAccountRepository) ClearPrincipal(ctx context.Context, companyID uuid.UUID) error {
	query := `
		UPDATE bank_accounts
		SET is_principal = false, version = version + 1, updated_at = NOW()
		WHERE company_id = $1 AND is_principal = true
	`

	if _, err := r.querier.Exec(ctx, query, companyID); err != nil {
		r.logger.Error("Failed to clear principal flag", "company_id", companyID.String(), "error", err)
		return fmt.Errorf("failed to clear principal flag: %w", err)
	}

	return nil
}

// FindPrincipal retrieves the company's principal account
func (r *BankAccountRepository) FindPrincipal(ctx context.Context, companyID uuid.UUID) (*bankaccount.BankAccount, error) {
	query := `
		SELECT ` + bankAccountColumns + `
		FROM bank_accounts
		WHERE company_id = $1 AND is_principal = true AND active = true
	`

	acc, err := scanBankAccount(r.querier.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bankaccount.ErrBankAccountNotFound{}
		}
		r.logger.Error("Failed to find principal bank account", "company_id", companyID.String(), "error", err)
		return nil, fmt.Errorf("failed to find principal bank account: %w", err)
	}

	return acc, nil
}

// List retrieves bank accounts matching the filters
func (r *BankAccountRepository) List(ctx context.Context, filters bankaccount.ListFilters) ([]*bankaccount.BankAccount, error) {
	query := `
		SELECT ` + bankAccountColumns + `
		FROM bank_accounts
		WHERE company_id = $1
	`
	args := []interface{}{filters.CompanyID}

	if filters.ActiveOnly {
		query += " AND active = true"
	}
	query += " ORDER BY is_principal DESC, name ASC"

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query bank accounts", "error", err)
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*bankaccount.BankAccount
	for rows.Next() {
		acc, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank accounts: %w", err)
	}

	return accounts, nil
}

// LockForUpdate obtains a pessimistic lock on the bank account row.
// Must run inside a transaction.
func (r *BankAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error) {
	query := `
		SELECT ` + bankAccountColumns + `
		FROM bank_accounts
		WHERE id = $1
		FOR UPDATE
	`

	acc, err := scanBankAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bankaccount.ErrBankAccountNotFound{BankAccountID: id}
		}
		r.logger.Error("Failed to lock bank account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock bank account: %w", err)
	}

	return acc, nil
}
