// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// stateTTL bounds how long a browser has between starting the OAuth flow and
// returning to the callback.
const stateTTL = 10 * time.Minute

// State represents an OAuth state token record for the admin browser login
// flow. Records expire via TTL index; Verify consumes them single-use.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("oauth_states"),
	}
}

// Create stores a new OAuth state token.
func (s *Store) Create(ctx context.Context, state string) error {
	now := time.Now().UTC()
	doc := State{
		ID:        primitive.NewObjectID(),
		State:     state,
		ExpiresAt: now.Add(stateTTL),
		CreatedAt: now,
	}

	_, err := s.c.InsertOne(ctx, doc)
	return err
}

// Verify checks if a state token is valid and deletes it (single use).
// Returns true if the state was valid, false otherwise.
func (s *Store) Verify(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}

	filter := bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	result := s.c.FindOneAndDelete(ctx, filter)
	return result.Err() == nil
}
