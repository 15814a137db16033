package data

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompanyRepository handles database operations for client companies.
type CompanyRepository struct {
	store[Company, *Company]
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{
		store: newStore[Company](db, CompaniesCollection, bson.D{{Key: "name", Value: 1}}, "name", "business_type", "point_person.name"),
	}
}

// List returns a page of live companies ordered by name.
func (r *CompanyRepository) List(ctx context.Context, p pagination.Params) ([]*Company, int64, error) {
	return r.list(ctx, nil, p)
}

// GetByID finds a live company by its ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Company, error) {
	return r.get(ctx, id)
}

// FindByName finds a live company by name, ignoring case.
func (r *CompanyRepository) FindByName(ctx context.Context, name string) (*Company, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}
	return r.findOne(ctx, bson.M{"name": pattern})
}

// NameIndex maps lower-cased company names to ids for every live company.
func (r *CompanyRepository) NameIndex(ctx context.Context) (map[string]primitive.ObjectID, error) {
	companies, err := r.find(ctx, live(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to load company names: %w", err)
	}
	index := make(map[string]primitive.ObjectID, len(companies))
	for _, c := range companies {
		index[NormalizeName(c.Name)] = c.ID
	}
	return index, nil
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, c *Company) error {
	return r.insert(ctx, c)
}

// Update writes the editable fields of c.
func (r *CompanyRepository) Update(ctx context.Context, c *Company) error {
	return r.set(ctx, c.ID, bson.M{
		"name":          c.Name,
		"business_type": c.BusinessType,
		"address":       c.Address,
		"point_person":  c.PointPerson,
		"website":       c.Website,
	})
}

// Delete soft-deletes a company.
func (r *CompanyRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// NormalizeName is the key used to match legacy company names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
