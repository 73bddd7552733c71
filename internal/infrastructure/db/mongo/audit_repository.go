package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
)

const (
	auditCollection  = "audit_logs"
	defaultListLimit = 50
	maxListLimit     = 200
)

// AuditRepository stores the audit trail in an append-only collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEntry struct {
	ID        string    `bson:"_id"`
	Event     string    `bson:"event"`
	Actor     string    `bson:"actor"`
	Role      string    `bson:"role,omitempty"`
	Resource  string    `bson:"resource,omitempty"`
	Action    string    `bson:"action,omitempty"`
	ClientIP  string    `bson:"client_ip"`
	Detail    string    `bson:"detail,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	doc := mongoAuditEntry{
		ID:        e.ID,
		Event:     string(e.Event),
		Actor:     e.Actor,
		Role:      string(e.Role),
		Resource:  string(e.Resource),
		Action:    string(e.Action),
		ClientIP:  e.ClientIP,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEntry, error) {
	query := bson.M{}
	if filter.Event != "" {
		query["event"] = string(filter.Event)
	}
	if filter.Actor != "" {
		query["actor"] = filter.Actor
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}

	out := make([]*domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.AuditEntry{
			ID:        d.ID,
			Event:     domain.AuditEvent(d.Event),
			Actor:     d.Actor,
			Role:      domain.Role(d.Role),
			Resource:  domain.Resource(d.Resource),
			Action:    domain.Action(d.Action),
			ClientIP:  d.ClientIP,
			Detail:    d.Detail,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	default:
		return n
	}
}
