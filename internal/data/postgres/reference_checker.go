package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

// ReferenceChecker answers the existence checks the ledger core consumes
// from the surrounding system: companies and financial categories.
type ReferenceChecker struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReferenceChecker creates a new PostgreSQL reference checker
func NewReferenceChecker(logger *slog.Logger, db *persistence.PostgresDB) *ReferenceChecker {
	return &ReferenceChecker{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the checker with a transaction
func (c *ReferenceChecker) WithTx(tx pgx.Tx) *ReferenceChecker {
	return &ReferenceChecker{
		querier: tx,
		logger:  c.logger,
	}
}

// CompanyExists reports whether the company id is known
func (c *ReferenceChecker) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1)`

	var exists bool
	if err := c.querier.QueryRow(ctx, query, companyID).Scan(&exists); err != nil {
		c.logger.Error("Failed to check company existence", "company_id", companyID.String(), "error", err)
		return false, fmt.Errorf("failed to check company existence: %w", err)
	}

	return exists, nil
}

// CategoryExists reports whether the category exists with the given kind.
// Payables require an expense category, receivables a revenue one.
func (c *ReferenceChecker) CategoryExists(ctx context.Context, categoryID uuid.UUID, kind shared.CategoryKind) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM financial_categories WHERE id = $1 AND kind = $2)`

	var exists bool
	if err := c.querier.QueryRow(ctx, query, categoryID, kind).Scan(&exists); err != nil {
		c.logger.Error("Failed to check category existence", "category_id", categoryID.String(), "error", err)
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}

	return exists, nil
}
