package data

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminUserRepository handles database operations for dashboard accounts.
type AdminUserRepository struct {
	store[AdminUser, *AdminUser]
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *mongo.Database) *AdminUserRepository {
	return &AdminUserRepository{
		store: newStore[AdminUser](db, AdminUsersCollection, bson.D{{Key: "email", Value: 1}}, "email", "display_name"),
	}
}

// FindByEmail finds a live account by email, ignoring case.
func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*AdminUser, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByID finds a live account by its ID.
func (r *AdminUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*AdminUser, error) {
	return r.get(ctx, id)
}

// Count returns the number of live accounts.
func (r *AdminUserRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, nil)
}

// Create inserts a new account. Emails are stored lower-cased.
func (r *AdminUserRepository) Create(ctx context.Context, u *AdminUser) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.insert(ctx, u)
}

// UpdateProfile writes the self-editable profile fields.
func (r *AdminUserRepository) UpdateProfile(ctx context.Context, u *AdminUser) error {
	return r.set(ctx, u.ID, bson.M{
		"display_name": u.DisplayName,
		"phone":        u.Phone,
		"avatar":       u.Avatar,
	})
}

// SetPasswordHash replaces the stored password hash.
func (r *AdminUserRepository) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.set(ctx, id, bson.M{"password_hash": hash})
}

// TouchLogin records a successful sign-in.
func (r *AdminUserRepository) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"last_login_at": at})
}
