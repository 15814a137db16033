package data

import (
	"context"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemberRepository handles database operations for members.
type MemberRepository struct {
	store[Member, *Member]
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{
		store: newStore[Member](db, MembersCollection, bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}, "first_name", "last_name", "email"),
	}
}

// List returns a page of live members, optionally restricted to one company.
func (r *MemberRepository) List(ctx context.Context, companyID *primitive.ObjectID, p pagination.Params) ([]*Member, int64, error) {
	filter := bson.M{}
	if companyID != nil {
		filter["company_id"] = *companyID
	}
	return r.list(ctx, filter, p)
}

// GetByID finds a live member by its ID.
func (r *MemberRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Member, error) {
	return r.get(ctx, id)
}

// FindByEmail finds a live member by email.
func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// Create inserts a new member.
func (r *MemberRepository) Create(ctx context.Context, m *Member) error {
	return r.insert(ctx, m)
}

// Update writes the editable fields of m.
func (r *MemberRepository) Update(ctx context.Context, m *Member) error {
	return r.set(ctx, m.ID, bson.M{
		"first_name": m.FirstName,
		"last_name":  m.LastName,
		"email":      m.Email,
		"phone":      m.Phone,
		"company_id": m.CompanyID,
		"role":       m.Role,
		"active":     m.Active,
	})
}

// Delete soft-deletes a member.
func (r *MemberRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// Toggle flips a boolean flag if it still holds expected.
func (r *MemberRepository) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	return r.toggle(ctx, id, field, expected)
}
