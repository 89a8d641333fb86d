// Package settlement holds the record emitted after a successful
// settlement commit: published to the scheduling subsystem and archived in
// the settlement journal. Delivery is best-effort; the financial
// transaction has already committed when an event is produced.
package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// Event describes one committed settlement. Amounts travel as strings to
// keep the wire and journal representations exact.
type Event struct {
	EventID       uuid.UUID          `json:"event_id" bson:"event_id"`
	AccountID     uuid.UUID          `json:"account_id" bson:"account_id"`
	Kind          shared.AccountKind `json:"kind" bson:"kind"`
	CompanyID     uuid.UUID          `json:"company_id" bson:"company_id"`
	BankAccountID uuid.UUID          `json:"bank_account_id" bson:"bank_account_id"`
	Amount        string             `json:"amount" bson:"amount"`
	Method        string             `json:"method" bson:"method"`
	SettledOn     time.Time          `json:"settled_on" bson:"settled_on"`
	Status        string             `json:"status" bson:"status"` // PARTIAL or SETTLED after this settlement
	FullySettled  bool               `json:"fully_settled" bson:"fully_settled"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	RecordedAt    time.Time          `json:"recorded_at" bson:"recorded_at"`
}

// Journal is the immutable audit sink for settlement events
type Journal interface {
	Append(ctx context.Context, event *Event) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Event, error)
}
