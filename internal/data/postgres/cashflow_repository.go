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

	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

const cashFlowColumns = `id, company_id, bank_account_id, direction, category_id, description,
		amount, movement_date, method, account_id, account_kind,
		reconciled, reconciliation_at, created_by, created_at, updated_at`

// CashFlowRepository implements cashflow.Repository for PostgreSQL
type CashFlowRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCashFlowRepository creates a new PostgreSQL cash-flow repository
func NewCashFlowRepository(logger *slog.Logger, db *persistence.PostgresDB) cashflow.Repository {
	return &CashFlowRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *CashFlowRepository) WithTx(tx pgx.Tx) cashflow.Repository {
	return &CashFlowRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanCashFlowEntry(row pgx.Row) (*cashflow.Entry, error) {
	var entry cashflow.Entry
	err := row.Scan(
		&entry.ID,
		&entry.CompanyID,
		&entry.BankAccountID,
		&entry.Direction,
		&entry.CategoryID,
		&entry.Description,
		&entry.Amount,
		&entry.MovementDate,
		&entry.Method,
		&entry.AccountID,
		&entry.AccountKind,
		&entry.Reconciled,
		&entry.ReconciliationAt,
		&entry.CreatedBy,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new cash-flow entry
func (r *CashFlowRepository) Create(ctx context.Context, entry *cashflow.Entry) error {
	query := `
		INSERT INTO cash_flow_entries (id, company_id, bank_account_id, direction, category_id, description,
			amount, movement_date, method, account_id, account_kind,
			reconciled, reconciliation_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID, entry.CompanyID, entry.BankAccountID, entry.Direction, entry.CategoryID, entry.Description,
		entry.Amount, entry.MovementDate, entry.Method, entry.AccountID, entry.AccountKind,
		entry.Reconciled, entry.ReconciliationAt, entry.CreatedBy, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create cash-flow entry", "error", err)
		return fmt.Errorf("failed to create cash-flow entry: %w", err)
	}

	return nil
}

// GetByID retrieves a cash-flow entry
func (r *CashFlowRepository) GetByID(ctx context.Context, id uuid.UUID) (*cashflow.Entry, error) {
	query := `
		SELECT ` + cashFlowColumns + `
		FROM cash_flow_entries
		WHERE id = $1
	`

	entry, err := scanCashFlowEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cashflow.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get cash-flow entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get cash-flow entry: %w", err)
	}

	return entry, nil
}

// Update persists the mutable entry fields
func (r *CashFlowRepository) Update(ctx context.Context, entry *cashflow.Entry) error {
	query := `
		UPDATE cash_flow_entries
		SET bank_account_id = $1, category_id = $2, description = $3, amount = $4,
			movement_date = $5, method = $6, reconciled = $7, reconciliation_at = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.querier.Exec(ctx, query,
		entry.BankAccountID, entry.CategoryID, entry.Description, entry.Amount,
		entry.MovementDate, entry.Method, entry.Reconciled, entry.ReconciliationAt, entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update cash-flow entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to update cash-flow entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cashflow.ErrEntryNotFound{EntryID: entry.ID}
	}

	return nil
}

// Delete removes an entry unconditionally
func (r *CashFlowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cash_flow_entries WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete cash-flow entry", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete cash-flow entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cashflow.ErrEntryNotFound{EntryID: id}
	}

	return nil
}

// DeleteByAccountID removes every entry linked to a monetary account,
// reconciled or not. Used only by the account deletion cascade.
func (r *CashFlowRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `DELETE FROM cash_flow_entries WHERE account_id = $1`

	result, err := r.querier.Exec(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to delete cash-flow entries by account", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to delete cash-flow entries by account: %w", err)
	}

	return result.RowsAffected(), nil
}

// List retrieves entries matching the filters
func (r *CashFlowRepository) List(ctx context.Context, filters cashflow.ListFilters) ([]*cashflow.Entry, error) {
	query := `
		SELECT ` + cashFlowColumns + `
		FROM cash_flow_entries
		WHERE 1=1
	`
	var args []interface{}

	if filters.CompanyID != uuid.Nil {
		args = append(args, filters.CompanyID)
		query += " AND company_id = $" + strconv.Itoa(len(args))
	}
	if filters.BankAccountID != nil {
		args = append(args, *filters.BankAccountID)
		query += " AND bank_account_id = $" + strconv.Itoa(len(args))
	}
	if filters.Direction != nil {
		args = append(args, *filters.Direction)
		query += " AND direction = $" + strconv.Itoa(len(args))
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		query += " AND category_id = $" + strconv.Itoa(len(args))
	}
	if filters.Reconciled != nil {
		args = append(args, *filters.Reconciled)
		query += " AND reconciled = $" + strconv.Itoa(len(args))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		query += " AND movement_date >= $" + strconv.Itoa(len(args))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		query += " AND movement_date <= $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY movement_date DESC, created_at DESC"

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	return r.queryEntries(ctx, query, args...)
}

// PeriodTotals sums amounts grouped by direction over the date range
func (r *CashFlowRepository) PeriodTotals(ctx context.Context, companyID uuid.UUID, from, to time.Time) (cashflow.PeriodTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0)
		FROM cash_flow_entries
		WHERE company_id = $1 AND movement_date >= $2 AND movement_date <= $3
	`

	var totals cashflow.PeriodTotals
	err := r.querier.QueryRow(ctx, query, companyID, from, to).Scan(&totals.Inflow, &totals.Outflow)
	if err != nil {
		r.logger.Error("Failed to compute period totals", "company_id", companyID.String(), "error", err)
		return cashflow.PeriodTotals{}, fmt.Errorf("failed to compute period totals: %w", err)
	}

	totals.Net = totals.Inflow.Sub(totals.Outflow)
	return totals, nil
}

// CategoryBreakdown groups entries by category within the period, summing
// by direction.
func (r *CashFlowRepository) CategoryBreakdown(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]cashflow.CategoryTotal, error) {
	query := `
		SELECT category_id,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0)
		FROM cash_flow_entries
		WHERE company_id = $1 AND movement_date >= $2 AND movement_date <= $3
		GROUP BY category_id
		ORDER BY category_id
	`

	rows, err := r.querier.Query(ctx, query, companyID, from, to)
	if err != nil {
		r.logger.Error("Failed to compute category breakdown", "company_id", companyID.String(), "error", err)
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []cashflow.CategoryTotal
	for rows.Next() {
		var ct cashflow.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Inflow, &ct.Outflow); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		breakdown = append(breakdown, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}

	return breakdown, nil
}

// Unreconciled lists entries not yet verified against a bank statement
func (r *CashFlowRepository) Unreconciled(ctx context.Context, companyID uuid.UUID) ([]*cashflow.Entry, error) {
	query := `
		SELECT ` + cashFlowColumns + `
		FROM cash_flow_entries
		WHERE company_id = $1 AND reconciled = false
		ORDER BY movement_date ASC
	`

	return r.queryEntries(ctx, query, companyID)
}

// CountUnreconciled counts entries not yet reconciled
func (r *CashFlowRepository) CountUnreconciled(ctx context.Context, companyID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM cash_flow_entries WHERE company_id = $1 AND reconciled = false`

	var count int64
	if err := r.querier.QueryRow(ctx, query, companyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count unreconciled entries", "company_id", companyID.String(), "error", err)
		return 0, fmt.Errorf("failed to count unreconciled entries: %w", err)
	}

	return count, nil
}

func (r *CashFlowRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*cashflow.Entry, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query cash-flow entries", "error", err)
		return nil, fmt.Errorf("failed to query cash-flow entries: %w", err)
	}
	defer rows.Close()

	var entries []*cashflow.Entry
	for rows.Next() {
		entry, err := scanCashFlowEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash-flow entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cash-flow entries: %w", err)
	}

	return entries, nil
}
