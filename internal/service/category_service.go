package service

import (
	"context"
	"errors"
	"fmt"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryRepository defines the database operations the category service needs.
type CategoryRepository interface {
	Toggler
	List(ctx context.Context, p pagination.Params) ([]*data.Category, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Category, error)
	FindBySlug(ctx context.Context, slug string) (*data.Category, error)
	Create(ctx context.Context, c *data.Category) error
	Update(ctx context.Context, c *data.Category) error
	SetLogo(ctx context.Context, id primitive.ObjectID, logo string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Reorder(ctx context.Context, ids []primitive.ObjectID) error
	PinContent(ctx context.Context, categoryID, contentID primitive.ObjectID, pinned bool) error
}

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
	Logo        string `json:"logo" validate:"max=2048"`
	Active      bool   `json:"active"`
	Featured    bool   `json:"featured"`
	Position    int    `json:"position" validate:"min=0"`
}

var categoryToggles = []string{"active", "featured"}

// CategoryService provides business logic for managing main categories.
type CategoryService struct {
	repo CategoryRepository
	text *TextPolicy
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo CategoryRepository, text *TextPolicy) *CategoryService {
	return &CategoryService{repo: repo, text: text}
}

// List returns a page of categories with rendered descriptions.
func (s *CategoryService) List(ctx context.Context, p pagination.Params) (pagination.Page[*data.Category], error) {
	items, total, err := s.repo.List(ctx, p)
	if err != nil {
		return pagination.Page[*data.Category]{}, err
	}
	for _, c := range items {
		c.DescriptionHTML = s.text.Render(c.Description)
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a single category.
func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*data.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.DescriptionHTML = s.text.Render(c.Description)
	return c, nil
}

// Create validates in and stores a new category with a unique slug.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*data.Category, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, in.Name, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	c := &data.Category{
		Name:        s.text.Plain(in.Name),
		Slug:        slug,
		Description: s.text.Sanitize(in.Description),
		Logo:        in.Logo,
		Active:      in.Active,
		Featured:    in.Featured,
		Position:    in.Position,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.DescriptionHTML = s.text.Render(c.Description)
	return c, nil
}

// Update validates in and overwrites the category's editable fields.
func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*data.Category, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := s.text.Plain(in.Name); name != c.Name {
		if c.Slug, err = s.uniqueSlug(ctx, name, c.ID); err != nil {
			return nil, err
		}
		c.Name = name
	}
	c.Description = s.text.Sanitize(in.Description)
	c.Logo = in.Logo
	c.Active = in.Active
	c.Featured = in.Featured
	c.Position = in.Position
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	c.DescriptionHTML = s.text.Render(c.Description)
	return c, nil
}

// SetLogo stores a new logo URL for the category.
func (s *CategoryService) SetLogo(ctx context.Context, id primitive.ObjectID, url string) error {
	return s.repo.SetLogo(ctx, id, url)
}

// Delete soft-deletes a category.
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the active or featured flag.
func (s *CategoryService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	return toggleFlag(ctx, s.repo, categoryToggles, id, field, expected)
}

// Reorder sets category positions following the given order.
func (s *CategoryService) Reorder(ctx context.Context, ids []primitive.ObjectID) error {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return invalidf("category %s listed twice", id.Hex())
		}
		seen[id] = struct{}{}
	}
	return s.repo.Reorder(ctx, ids)
}

// PinContent pins or unpins a content item in a category.
func (s *CategoryService) PinContent(ctx context.Context, categoryID, contentID primitive.ObjectID, pinned bool) (ToggleResult, error) {
	if err := s.repo.PinContent(ctx, categoryID, contentID, pinned); err != nil {
		return ToggleResult{Field: "pinned", Value: !pinned}, err
	}
	return ToggleResult{Field: "pinned", Value: pinned}, nil
}

// uniqueSlug derives a slug from name and suffixes it until no other category holds it.
func (s *CategoryService) uniqueSlug(ctx context.Context, name string, self primitive.ObjectID) (string, error) {
	base := Slugify(name, 80)
	slug := base
	for i := 2; i < 100; i++ {
		existing, err := s.repo.FindBySlug(ctx, slug)
		if errors.Is(err, data.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == self {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", invalidf("could not derive a unique slug for %q", name)
}
