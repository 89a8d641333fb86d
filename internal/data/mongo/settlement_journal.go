// Package mongo provides the MongoDB settlement journal, an append-only
// audit trail of committed settlements kept outside the transactional
// store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinic-finance-ledger/internal/domain/settlement"
)

const (
	// SettlementCollectionName is the name of the journal collection
	SettlementCollectionName = "settlement_events"
)

// SettlementJournal implements settlement.Journal for MongoDB
type SettlementJournal struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSettlementJournal creates a new MongoDB settlement journal
func NewSettlementJournal(logger *slog.Logger, db *mongo.Database) settlement.Journal {
	return &SettlementJournal{
		db:     db,
		logger: logger,
	}
}

// Append stores a settlement event. Events are never updated or deleted.
func (j *SettlementJournal) Append(ctx context.Context, event *settlement.Event) error {
	collection := j.db.Collection(SettlementCollectionName)

	if _, err := collection.InsertOne(ctx, event); err != nil {
		j.logger.Error("Failed to append settlement event",
			"event_id", event.EventID.String(),
			"account_id", event.AccountID.String(),
			"error", err)
		return fmt.Errorf("failed to append settlement event: %w", err)
	}

	return nil
}

// ListByAccount retrieves the most recent settlement events of an account
func (j *SettlementJournal) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*settlement.Event, error) {
	collection := j.db.Collection(SettlementCollectionName)

	findOptions := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"account_id": accountID}, findOptions)
	if err != nil {
		j.logger.Error("Failed to list settlement events", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list settlement events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*settlement.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode settlement events: %w", err)
	}

	return events, nil
}
