// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratapages/internal/app/system/normalize"
	"github.com/dalemusser/stratapages/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides access to the admins collection. Admins are keyed by the
// identity provider's subject claim, so membership checks are primary-key reads.
type Store struct {
	c *mongo.Collection
}

// New creates a new admin store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins")}
}

var (
	// ErrDuplicateAdmin is returned when the uid or email is already registered.
	ErrDuplicateAdmin = errors.New("an admin with this uid or email already exists")
	errBadAdminRole   = errors.New("invalid admin role")
)

// GetByUID loads an admin by provider subject. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUID(ctx context.Context, uid string) (*models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail looks up an admin by email address (case-insensitive).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new admin after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, a models.Admin) (models.Admin, error) {
	a.Email = normalize.Email(a.Email)
	a.DisplayName = normalize.Name(a.DisplayName)
	a.Role = normalize.Role(a.Role)
	if a.Role == "" {
		a.Role = models.RoleAdmin
	}
	if !models.IsValidAdminRole(a.Role) {
		return models.Admin{}, errBadAdminRole
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.LastLoginAt = nil

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateAdmin
		}
		return models.Admin{}, err
	}
	return a, nil
}

// TouchLastLogin records a successful login. Best-effort; callers log and
// ignore the error.
func (s *Store) TouchLastLogin(ctx context.Context, uid string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$set": bson.M{"last_login_at": now, "updated_at": now},
	})
	return err
}

// Exists checks if an admin with the given uid is registered.
func (s *Store) Exists(ctx context.Context, uid string) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"_id": uid})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
