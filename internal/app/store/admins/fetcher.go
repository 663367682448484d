// internal/app/store/admins/fetcher.go
package adminstore

import (
	"context"

	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/normalize"
	"github.com/dalemusser/stratapages/internal/app/system/timeouts"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetcher implements auth.AdminFetcher to re-check admin membership on each
// request. It queries MongoDB directly; there is no cross-request cache, so
// removing an admin record takes effect on their next request.
type Fetcher struct {
	admins *mongo.Collection
	logger *zap.Logger
}

// NewFetcher creates an AdminFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		admins: db.Collection("admins"),
		logger: logger,
	}
}

// FetchAdmin retrieves an admin by uid and returns nil if the uid is not
// registered or if any error occurs. This implements auth.AdminFetcher.
func (f *Fetcher) FetchAdmin(ctx context.Context, uid string) *auth.SessionAdmin {
	if uid == "" {
		return nil
	}

	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var a models.Admin
	if err := f.admins.FindOne(ctx, bson.M{"_id": uid}).Decode(&a); err != nil {
		// Admin not found or DB error
		return nil
	}

	return &auth.SessionAdmin{
		UID:          a.UID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		Role:         normalize.Role(a.Role),
		Capabilities: a.Capabilities,
	}
}
