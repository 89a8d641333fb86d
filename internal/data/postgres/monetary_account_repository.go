// Package postgres provides PostgreSQL implementations of the ledger core
// repositories. All money columns are NUMERIC and scanned into decimals;
// repositories can be rebound to a transaction with WithTx for the
// settlement and deletion-cascade critical sections.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

const monetaryAccountColumns = `id, company_id, kind, category_id, bank_account_id, counterparty, description,
		original, discount, interest, penalty, net, settled,
		issue_date, due_date, settled_on, method, status, notes,
		recurring, recurrence_every, created_by, updated_by, version, created_at, updated_at`

// MonetaryAccountRepository implements monetaryaccount.Repository for PostgreSQL
type MonetaryAccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewMonetaryAccountRepository creates a new PostgreSQL monetary account repository
func NewMonetaryAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) monetaryaccount.Repository {
	return &MonetaryAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so multiple repository
// calls share one commit boundary.
func (r *MonetaryAccountRepository) WithTx(tx pgx.Tx) monetaryaccount.Repository {
	return &MonetaryAccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanMonetaryAccount(row pgx.Row) (*monetaryaccount.Account, error) {
	var acc monetaryaccount.Account
	var method *string
	err := row.Scan(
		&acc.ID,
		&acc.CompanyID,
		&acc.Kind,
		&acc.CategoryID,
		&acc.BankAccountID,
		&acc.Counterparty,
		&acc.Description,
		&acc.Original,
		&acc.Discount,
		&acc.Interest,
		&acc.Penalty,
		&acc.Net,
		&acc.Settled,
		&acc.IssueDate,
		&acc.DueDate,
		&acc.SettledOn,
		&method,
		&acc.Status,
		&acc.Notes,
		&acc.Recurring,
		&acc.RecurrenceEvery,
		&acc.CreatedBy,
		&acc.UpdatedBy,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if method != nil {
		acc.Method = shared.PaymentMethod(*method)
	}
	return &acc, nil
}

func methodParam(m shared.PaymentMethod) *string {
	if m == "" {
		return nil
	}
	s := string(m)
	return &s
}

// Create stores a new monetary account
func (r *MonetaryAccountRepository) Create(ctx context.Context, acc *monetaryaccount.Account) error {
	query := `
		INSERT INTO monetary_accounts (id, company_id, kind, category_id, bank_account_id, counterparty, description,
			original, discount, interest, penalty, net, settled,
			issue_date, due_date, settled_on, method, status, notes,
			recurring, recurrence_every, created_by, updated_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID, acc.CompanyID, acc.Kind, acc.CategoryID, acc.BankAccountID, acc.Counterparty, acc.Description,
		acc.Original, acc.Discount, acc.Interest, acc.Penalty, acc.Net, acc.Settled,
		acc.IssueDate, acc.DueDate, acc.SettledOn, methodParam(acc.Method), acc.Status, acc.Notes,
		acc.Recurring, acc.RecurrenceEvery, acc.CreatedBy, acc.UpdatedBy, acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create monetary account", "error", err)
		return fmt.Errorf("failed to create monetary account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by id and kind
func (r *MonetaryAccountRepository) GetByID(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*monetaryaccount.Account, error) {
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE id = $1 AND kind = $2
	`

	acc, err := scanMonetaryAccount(r.querier.QueryRow(ctx, query, id, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, monetaryaccount.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get monetary account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get monetary account: %w", err)
	}

	return acc, nil
}

// Update persists all mutable fields using optimistic locking on Version
func (r *MonetaryAccountRepository) Update(ctx context.Context, acc *monetaryaccount.Account) error {
	query := `
		UPDATE monetary_accounts
		SET category_id = $1, bank_account_id = $2, counterparty = $3, description = $4,
			original = $5, discount = $6, interest = $7, penalty = $8, net = $9, settled = $10,
			issue_date = $11, due_date = $12, settled_on = $13, method = $14, status = $15, notes = $16,
			recurring = $17, recurrence_every = $18, updated_by = $19, version = $20, updated_at = $21
		WHERE id = $22 AND version = $23
	`

	result, err := r.querier.Exec(ctx, query,
		acc.CategoryID, acc.BankAccountID, acc.Counterparty, acc.Description,
		acc.Original, acc.Discount, acc.Interest, acc.Penalty, acc.Net, acc.Settled,
		acc.IssueDate, acc.DueDate, acc.SettledOn, methodParam(acc.Method), acc.Status, acc.Notes,
		acc.Recurring, acc.RecurrenceEvery, acc.UpdatedBy, acc.Version, acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update monetary account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update monetary account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return monetaryaccount.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// Delete removes the account row. Cascade steps over linked records are the
// service's responsibility and run in the same transaction.
func (r *MonetaryAccountRepository) Delete(ctx context.Context, kind shared.AccountKind, id uuid.UUID) error {
	query := `DELETE FROM monetary_accounts WHERE id = $1 AND kind = $2`

	result, err := r.querier.Exec(ctx, query, id, kind)
	if err != nil {
		r.logger.Error("Failed to delete monetary account", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete monetary account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return monetaryaccount.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

// List retrieves accounts of a kind matching the filters
func (r *MonetaryAccountRepository) List(ctx context.Context, kind shared.AccountKind, filters monetaryaccount.ListFilters) ([]*monetaryaccount.Account, error) {
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE kind = $1
	`
	args := []interface{}{kind}

	if filters.CompanyID != uuid.Nil {
		args = append(args, filters.CompanyID)
		query += " AND company_id = $" + strconv.Itoa(len(args))
	}
	if filters.BankAccountID != nil {
		args = append(args, *filters.BankAccountID)
		query += " AND bank_account_id = $" + strconv.Itoa(len(args))
	}
	if filters.Counterparty != "" {
		args = append(args, "%"+filters.Counterparty+"%")
		query += " AND counterparty ILIKE $" + strconv.Itoa(len(args))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if filters.DueFrom != nil {
		args = append(args, *filters.DueFrom)
		query += " AND due_date >= $" + strconv.Itoa(len(args))
	}
	if filters.DueTo != nil {
		args = append(args, *filters.DueTo)
		query += " AND due_date <= $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY due_date ASC, created_at ASC"

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	return r.queryAccounts(ctx, query, args...)
}

// FindOverdue lists open accounts past their due date
func (r *MonetaryAccountRepository) FindOverdue(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time) ([]*monetaryaccount.Account, error) {
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE kind = $1 AND company_id = $2 AND due_date < $3 AND status IN ('PENDING', 'PARTIAL')
		ORDER BY due_date ASC
	`

	return r.queryAccounts(ctx, query, kind, companyID, today)
}

// FindDueWithin lists open accounts due between today and today+days
func (r *MonetaryAccountRepository) FindDueWithin(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time, days int) ([]*monetaryaccount.Account, error) {
	horizon := today.AddDate(0, 0, days)
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE kind = $1 AND company_id = $2 AND due_date >= $3 AND due_date <= $4 AND status IN ('PENDING', 'PARTIAL')
		ORDER BY due_date ASC
	`

	return r.queryAccounts(ctx, query, kind, companyID, today, horizon)
}

// FindPending lists accounts that have received no settlement yet
func (r *MonetaryAccountRepository) FindPending(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) ([]*monetaryaccount.Account, error) {
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE kind = $1 AND company_id = $2 AND status = 'PENDING'
		ORDER BY due_date ASC
	`

	return r.queryAccounts(ctx, query, kind, companyID)
}

// SumOutstanding returns Σ(net − settled) over open accounts of a company
func (r *MonetaryAccountRepository) SumOutstanding(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(net - settled), 0)
		FROM monetary_accounts
		WHERE kind = $1 AND company_id = $2 AND status IN ('PENDING', 'PARTIAL')
	`

	var total decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, kind, companyID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum outstanding", "company_id", companyID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum outstanding: %w", err)
	}

	return total, nil
}

// SumBuckets aggregates accounts due within [from, to] into pending, overdue
// and settled totals. Open buckets sum net − settled, the settled bucket
// sums the settled amount.
func (r *MonetaryAccountRepository) SumBuckets(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, from, to, today time.Time) (monetaryaccount.OutstandingBuckets, error) {
	query := `
		SELECT
			COALESCE(SUM(net - settled) FILTER (WHERE status IN ('PENDING', 'PARTIAL') AND due_date >= $5), 0),
			COALESCE(SUM(net - settled) FILTER (WHERE status IN ('PENDING', 'PARTIAL') AND due_date < $5), 0),
			COALESCE(SUM(settled) FILTER (WHERE status = 'SETTLED'), 0)
		FROM monetary_accounts
		WHERE kind = $1 AND company_id = $2 AND due_date >= $3 AND due_date <= $4
	`

	var buckets monetaryaccount.OutstandingBuckets
	err := r.querier.QueryRow(ctx, query, kind, companyID, from, to, today).Scan(
		&buckets.Pending,
		&buckets.Overdue,
		&buckets.Settled,
	)
	if err != nil {
		r.logger.Error("Failed to sum buckets", "company_id", companyID.String(), "error", err)
		return monetaryaccount.OutstandingBuckets{}, fmt.Errorf("failed to sum buckets: %w", err)
	}

	return buckets, nil
}

// LockForUpdate obtains a pessimistic lock on the account row and returns
// its current state. Must run inside a transaction.
func (r *MonetaryAccountRepository) LockForUpdate(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*monetaryaccount.Account, error) {
	query := `
		SELECT ` + monetaryAccountColumns + `
		FROM monetary_accounts
		WHERE id = $1 AND kind = $2
		FOR UPDATE
	`

	acc, err := scanMonetaryAccount(r.querier.QueryRow(ctx, query, id, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, monetaryaccount.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock monetary account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock monetary account: %w", err)
	}

	return acc, nil
}

func (r *MonetaryAccountRepository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*monetaryaccount.Account, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query monetary accounts", "error", err)
		return nil, fmt.Errorf("failed to query monetary accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*monetaryaccount.Account
	for rows.Next() {
		acc, err := scanMonetaryAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monetary account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monetary accounts: %w", err)
	}

	return accounts, nil
}
