package data

import (
	"context"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CompanyID *primitive.ObjectID
	Status    string
}

// ProductRepository handles database operations for products.
type ProductRepository struct {
	store[Product, *Product]
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		store: newStore[Product](db, ProductsCollection, bson.D{{Key: "created_at", Value: -1}}, "name", "ai_text_tags"),
	}
}

// List returns a page of live products matching f.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter, p pagination.Params) ([]*Product, int64, error) {
	filter := bson.M{}
	if f.CompanyID != nil {
		filter["company_id"] = *f.CompanyID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return r.list(ctx, filter, p)
}

// GetByID finds a live product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	return r.get(ctx, id)
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	if p.Media == nil {
		p.Media = []MediaItem{}
	}
	if p.AITextTags == nil {
		p.AITextTags = []string{}
	}
	return r.insert(ctx, p)
}

// Update writes the editable fields of p.
func (r *ProductRepository) Update(ctx context.Context, p *Product) error {
	return r.set(ctx, p.ID, bson.M{
		"name":          p.Name,
		"company_id":    p.CompanyID,
		"status":        p.Status,
		"specs_rental":  p.SpecsRental,
		"media":         p.Media,
		"ai_text_tags":  p.AITextTags,
		"custom_fields": p.CustomFields,
	})
}

// Delete soft-deletes a product.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}
