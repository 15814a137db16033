package service

import (
	"context"
	"strings"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImmigrationRepository defines the database operations the immigration service needs.
type ImmigrationRepository interface {
	Toggler
	List(ctx context.Context, country string, p pagination.Params) ([]*data.ImmigrationService, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.ImmigrationService, error)
	Create(ctx context.Context, s *data.ImmigrationService) error
	Update(ctx context.Context, s *data.ImmigrationService) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ImmigrationInput is the editable part of an immigration service.
type ImmigrationInput struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Country        string   `json:"country" validate:"required,len=2"`
	Description    string   `json:"description" validate:"max=10000"`
	Requirements   []string `json:"requirements" validate:"max=100,dive,required,max=300"`
	ProcessingDays int      `json:"processing_days" validate:"min=0,max=3650"`
	Fee            float64  `json:"fee" validate:"min=0"`
	Currency       string   `json:"currency" validate:"omitempty,len=3"`
	Active         bool     `json:"active"`
	Position       int      `json:"position" validate:"min=0"`
}

var immigrationToggles = []string{"active"}

// ImmigrationService provides business logic for immigration services.
type ImmigrationService struct {
	repo ImmigrationRepository
	text *TextPolicy
}

// NewImmigrationService creates a new ImmigrationService.
func NewImmigrationService(repo ImmigrationRepository, text *TextPolicy) *ImmigrationService {
	return &ImmigrationService{repo: repo, text: text}
}

// List returns a page of services, optionally for one country.
func (s *ImmigrationService) List(ctx context.Context, country string, p pagination.Params) (pagination.Page[*data.ImmigrationService], error) {
	items, total, err := s.repo.List(ctx, strings.ToUpper(country), p)
	if err != nil {
		return pagination.Page[*data.ImmigrationService]{}, err
	}
	for _, it := range items {
		it.DescriptionHTML = s.text.Render(it.Description)
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a service.
func (s *ImmigrationService) Get(ctx context.Context, id primitive.ObjectID) (*data.ImmigrationService, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	it.DescriptionHTML = s.text.Render(it.Description)
	return it, nil
}

// Create validates in and stores a new service.
func (s *ImmigrationService) Create(ctx context.Context, in ImmigrationInput) (*data.ImmigrationService, error) {
	it := &data.ImmigrationService{}
	if err := s.apply(it, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	it.DescriptionHTML = s.text.Render(it.Description)
	return it, nil
}

// Update validates in and overwrites the service's editable fields.
func (s *ImmigrationService) Update(ctx context.Context, id primitive.ObjectID, in ImmigrationInput) (*data.ImmigrationService, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(it, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	it.DescriptionHTML = s.text.Render(it.Description)
	return it, nil
}

func (s *ImmigrationService) apply(it *data.ImmigrationService, in ImmigrationInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	it.Title = s.text.Plain(in.Title)
	it.Country = strings.ToUpper(in.Country)
	it.Description = s.text.Sanitize(in.Description)
	it.Requirements = make([]string, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		it.Requirements = append(it.Requirements, s.text.Plain(r))
	}
	it.ProcessingDays = in.ProcessingDays
	it.Fee = in.Fee
	it.Currency = strings.ToUpper(in.Currency)
	it.Active = in.Active
	it.Position = in.Position
	return nil
}

// Delete soft-deletes a service.
func (s *ImmigrationService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the active flag.
func (s *ImmigrationService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	return toggleFlag(ctx, s.repo, immigrationToggles, id, field, expected)
}
