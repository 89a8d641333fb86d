// Package appointment holds the ledger core's view of the scheduling
// subsystem: the join records between monetary accounts and appointments,
// and the paid/status flags the cascade and post-settlement hook touch.
package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExternalStatus mirrors the scheduling subsystem's appointment states the
// ledger core needs to recognize. ARCHIVED is the terminal archival state a
// payable deletion demotes back to ATTENDED.
type ExternalStatus string

const (
	StatusScheduled ExternalStatus = "SCHEDULED"
	StatusAttended  ExternalStatus = "ATTENDED"
	StatusArchived  ExternalStatus = "ARCHIVED"
)

// Link is a join record between a monetary account and an appointment
type Link struct {
	AccountID     uuid.UUID `json:"account_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
}

// Repository defines appointment-link operations consumed by the ledger
// core. The cascade asymmetry is deliberate: receivable deletions clear the
// received flag on every linked appointment, payable deletions demote only
// appointments whose status is ARCHIVED.
type Repository interface {
	// Link attaches the given appointments to a monetary account
	Link(ctx context.Context, accountID uuid.UUID, appointmentIDs []uuid.UUID) error

	IDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
	DeleteLinksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// MarkPaid sets the paid flag on the given appointments; used by the
	// best-effort post-settlement hook.
	MarkPaid(ctx context.Context, appointmentIDs []uuid.UUID) error

	// ClearPaidFlag unconditionally resets the paid/received flag
	ClearPaidFlag(ctx context.Context, appointmentIDs []uuid.UUID) error

	// DemoteArchived moves ARCHIVED appointments back to ATTENDED and clears
	// their paid flag; appointments in any other status are left untouched.
	DemoteArchived(ctx context.Context, appointmentIDs []uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}
