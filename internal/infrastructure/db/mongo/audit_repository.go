package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

const auditCollection = "audit_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

var (
	_ ports.AuditRepository = (*AuditRepository)(nil)
	_ ports.AuditReader     = (*AuditRepository)(nil)
)

// EnsureIndexes creates the lookup indexes of the audit collection. It is
// safe to call on every start.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert appends one event to the audit_events collection.
func (r *AuditRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	doc := bson.M{
		"action":      string(event.Action),
		"actor_id":    event.ActorID,
		"target_id":   event.TargetID,
		"email":       event.Email,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if len(event.Detail) > 0 {
		doc["detail"] = event.Detail
	}

	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ForTarget returns the most recent events about targetID, newest first.
func (r *AuditRepository) ForTarget(ctx context.Context, targetID int64, limit int64) ([]domain.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.db.Collection(auditCollection).Find(ctx, bson.M{"target_id": targetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		Action   string            `bson:"action"`
		ActorID  int64             `bson:"actor_id"`
		TargetID int64             `bson:"target_id"`
		Email    string            `bson:"email"`
		Detail   map[string]string `bson:"detail"`
		At       time.Time         `bson:"at"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, len(docs))
	for i, d := range docs {
		events[i] = domain.AuditEvent{
			Action:   domain.AuditAction(d.Action),
			ActorID:  d.ActorID,
			TargetID: d.TargetID,
			Email:    d.Email,
			Detail:   d.Detail,
			At:       d.At.UTC(),
		}
	}
	return events, nil
}
