package service

import (
	"context"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRepository defines the database operations the product service needs.
type ProductRepository interface {
	List(ctx context.Context, f data.ProductFilter, p pagination.Params) ([]*data.Product, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Product, error)
	Create(ctx context.Context, p *data.Product) error
	Update(ctx context.Context, p *data.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CompanyLookup is the part of the company repository other services need.
type CompanyLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Company, error)
}

// CustomFieldValidator checks custom values for an entity.
type CustomFieldValidator interface {
	ValidateValues(ctx context.Context, entity string, values map[string]interface{}) error
}

// RentalSpecsInput carries rental pricing.
type RentalSpecsInput struct {
	DailyRate   float64 `json:"daily_rate" validate:"min=0"`
	WeeklyRate  float64 `json:"weekly_rate" validate:"min=0"`
	MonthlyRate float64 `json:"monthly_rate" validate:"min=0"`
	Deposit     float64 `json:"deposit" validate:"min=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	MinimumDays int     `json:"minimum_days" validate:"min=0"`
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name         string                 `json:"name" validate:"required,max=200"`
	CompanyID    string                 `json:"company_id" validate:"omitempty,len=24,hexadecimal"`
	Status       string                 `json:"status" validate:"required,oneof=draft active inactive archived"`
	SpecsRental  *RentalSpecsInput      `json:"specs_rental"`
	Media        []data.MediaItem       `json:"media"`
	AITextTags   []string               `json:"ai_text_tags" validate:"max=50,dive,max=64"`
	CustomFields map[string]interface{} `json:"custom_fields"`
}

// ProductFilterInput carries raw list filters from a request.
type ProductFilterInput struct {
	CompanyID string
	Status    string
}

// ProductService provides business logic for managing products.
type ProductService struct {
	repo      ProductRepository
	companies CompanyLookup
	fields    CustomFieldValidator
	text      *TextPolicy
}

// NewProductService creates a new ProductService.
func NewProductService(repo ProductRepository, companies CompanyLookup, fields CustomFieldValidator, text *TextPolicy) *ProductService {
	return &ProductService{repo: repo, companies: companies, fields: fields, text: text}
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, f ProductFilterInput, p pagination.Params) (pagination.Page[*data.Product], error) {
	companyID, err := optionalID(f.CompanyID)
	if err != nil {
		return pagination.Page[*data.Product]{}, err
	}
	items, total, err := s.repo.List(ctx, data.ProductFilter{CompanyID: companyID, Status: f.Status}, p)
	if err != nil {
		return pagination.Page[*data.Product]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a product.
func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*data.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new product.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*data.Product, error) {
	p := &data.Product{}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update validates in and overwrites the product's editable fields.
func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*data.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) apply(ctx context.Context, p *data.Product, in ProductInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	companyID, err := optionalID(in.CompanyID)
	if err != nil {
		return err
	}
	companyName := ""
	if companyID != nil {
		c, err := s.companies.GetByID(ctx, *companyID)
		if err != nil {
			return err
		}
		companyName = c.Name
	}
	if err := s.fields.ValidateValues(ctx, data.ProductsCollection, in.CustomFields); err != nil {
		return err
	}

	p.Name = s.text.Plain(in.Name)
	p.CompanyID = companyID
	p.CompanyName = companyName
	p.Status = in.Status
	p.SpecsRental = nil
	if in.SpecsRental != nil {
		sr := data.RentalSpecs(*in.SpecsRental)
		p.SpecsRental = &sr
	}
	p.Media = in.Media
	if p.Media == nil {
		p.Media = []data.MediaItem{}
	}
	p.AITextTags = normalizeTags(in.AITextTags)
	p.CustomFields = in.CustomFields
	return nil
}

// Delete soft-deletes a product.
func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// normalizeTags trims, lower-cases and de-duplicates tags, keeping their order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
