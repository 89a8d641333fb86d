package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic-finance-ledger/internal/domain/appointment"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

// AppointmentRepository implements appointment.Repository for PostgreSQL.
// It owns the account↔appointment join table and the paid/status columns
// the cascade and the post-settlement hook touch.
type AppointmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAppointmentRepository creates a new PostgreSQL appointment repository
func NewAppointmentRepository(logger *slog.Logger, db *persistence.PostgresDB) appointment.Repository {
	return &AppointmentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *AppointmentRepository) WithTx(tx pgx.Tx) appointment.Repository {
	return &AppointmentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Link attaches the given appointments to a monetary account
func (r *AppointmentRepository) Link(ctx context.Context, accountID uuid.UUID, appointmentIDs []uuid.UUID) error {
	if len(appointmentIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO account_appointments (account_id, appointment_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`

	if _, err := r.querier.Exec(ctx, query, accountID, appointmentIDs); err != nil {
		r.logger.Error("Failed to link appointments", "account_id", accountID.String(), "error", err)
		return fmt.Errorf("failed to link appointments: %w", err)
	}

	return nil
}

// IDsByAccount lists the appointment ids linked to a monetary account
func (r *AppointmentRepository) IDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT appointment_id FROM account_appointments WHERE account_id = $1`

	rows, err := r.querier.Query(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to query appointment links", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to query appointment links: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan appointment link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointment links: %w", err)
	}

	return ids, nil
}

// DeleteLinksByAccount removes the join records for a monetary account
func (r *AppointmentRepository) DeleteLinksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `DELETE FROM account_appointments WHERE account_id = $1`

	result, err := r.querier.Exec(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to delete appointment links", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to delete appointment links: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkPaid sets the paid flag on the given appointments
func (r *AppointmentRepository) MarkPaid(ctx context.Context, appointmentIDs []uuid.UUID) error {
	if len(appointmentIDs) == 0 {
		return nil
	}

	query := `UPDATE appointments SET paid = true, updated_at = NOW() WHERE id = ANY($1)`

	if _, err := r.querier.Exec(ctx, query, appointmentIDs); err != nil {
		r.logger.Error("Failed to mark appointments paid", "error", err)
		return fmt.Errorf("failed to mark appointments paid: %w", err)
	}

	return nil
}

// ClearPaidFlag unconditionally resets the paid/received flag
func (r *AppointmentRepository) ClearPaidFlag(ctx context.Context, appointmentIDs []uuid.UUID) error {
	if len(appointmentIDs) == 0 {
		return nil
	}

	query := `UPDATE appointments SET paid = false, updated_at = NOW() WHERE id = ANY($1)`

	if _, err := r.querier.Exec(ctx, query, appointmentIDs); err != nil {
		r.logger.Error("Failed to clear appointment paid flag", "error", err)
		return fmt.Errorf("failed to clear appointment paid flag: %w", err)
	}

	return nil
}

// DemoteArchived moves ARCHIVED appointments back to ATTENDED and clears
// their paid flag; appointments in any other status are left untouched.
func (r *AppointmentRepository) DemoteArchived(ctx context.Context, appointmentIDs []uuid.UUID) error {
	if len(appointmentIDs) == 0 {
		return nil
	}

	query := `
		UPDATE appointments
		SET status = $1, paid = false, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
	`

	if _, err := r.querier.Exec(ctx, query, appointment.StatusAttended, appointmentIDs, appointment.StatusArchived); err != nil {
		r.logger.Error("Failed to demote archived appointments", "error", err)
		return fmt.Errorf("failed to demote archived appointments: %w", err)
	}

	return nil
}
