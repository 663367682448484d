// internal/app/store/builds/buildstore.go
package buildstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Build statuses
const (
	StatusDispatched = "dispatched"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Build reasons
const (
	ReasonPublish   = "publish"
	ReasonUnpublish = "unpublish"
	ReasonUpdate    = "update"
	ReasonDelete    = "delete"
	ReasonManual    = "manual"
)

// Build records one rebuild dispatch to the CI pipeline. The _id is a uuid
// handed to CI so its completion callback can name the dispatch it finishes.
type Build struct {
	ID     string `bson:"_id" json:"id"`
	Reason string `bson:"reason" json:"reason"`

	// Slug of the page whose change triggered the rebuild, empty for manual runs.
	PageSlug string `bson:"page_slug,omitempty" json:"pageSlug,omitempty"`

	Status string `bson:"status" json:"status"`
	Detail string `bson:"detail,omitempty" json:"detail,omitempty"`

	DispatchedAt time.Time  `bson:"dispatched_at" json:"dispatchedAt"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// Store provides access to the builds collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new build store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("builds")}
}

// Create records a new dispatched build and returns it with its uuid assigned.
func (s *Store) Create(ctx context.Context, reason, pageSlug string) (Build, error) {
	b := Build{
		ID:           uuid.NewString(),
		Reason:       reason,
		PageSlug:     pageSlug,
		Status:       StatusDispatched,
		DispatchedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return Build{}, err
	}
	return b, nil
}

// GetByID loads a build by uuid. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Build, error) {
	var b Build
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Complete marks a dispatched build completed or failed. Returns (false, nil)
// when no dispatched build has the given id; a build is only completed once.
func (s *Store) Complete(ctx context.Context, id string, success bool, detail string) (bool, error) {
	status := StatusCompleted
	if !success {
		status = StatusFailed
	}
	now := time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": StatusDispatched},
		bson.M{"$set": bson.M{
			"status":       status,
			"detail":       detail,
			"completed_at": now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// GetRecent retrieves the most recent builds, newest dispatch first.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Build, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "dispatched_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var builds []Build
	if err := cur.All(ctx, &builds); err != nil {
		return nil, err
	}
	return builds, nil
}

// Prune deletes build records dispatched before the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"dispatched_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
