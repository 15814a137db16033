package service

import (
	"context"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompanyRepository defines the database operations the company service needs.
type CompanyRepository interface {
	List(ctx context.Context, p pagination.Params) ([]*data.Company, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Company, error)
	Create(ctx context.Context, c *data.Company) error
	Update(ctx context.Context, c *data.Company) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PointPersonInput is the contact block of a company form.
type PointPersonInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Designation string `json:"designation" validate:"max=120"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=32"`
	PhoneRegion string `json:"phone_region" validate:"omitempty,len=2"`
}

// CompanyInput is the editable part of a company.
type CompanyInput struct {
	Name         string           `json:"name" validate:"required,max=200"`
	BusinessType string           `json:"business_type" validate:"required,max=120"`
	Address      string           `json:"address" validate:"max=500"`
	PointPerson  PointPersonInput `json:"point_person"`
	Website      string           `json:"website" validate:"omitempty,url"`
}

// CompanyService provides business logic for managing client companies.
type CompanyService struct {
	repo  CompanyRepository
	phone *PhoneNormalizer
	text  *TextPolicy
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(repo CompanyRepository, phone *PhoneNormalizer, text *TextPolicy) *CompanyService {
	return &CompanyService{repo: repo, phone: phone, text: text}
}

// List returns a page of companies matching the search term.
func (s *CompanyService) List(ctx context.Context, p pagination.Params) (pagination.Page[*data.Company], error) {
	items, total, err := s.repo.List(ctx, p)
	if err != nil {
		return pagination.Page[*data.Company]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a company.
func (s *CompanyService) Get(ctx context.Context, id primitive.ObjectID) (*data.Company, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new company.
func (s *CompanyService) Create(ctx context.Context, in CompanyInput) (*data.Company, error) {
	c := &data.Company{}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update validates in and overwrites the company's editable fields.
func (s *CompanyService) Update(ctx context.Context, id primitive.ObjectID, in CompanyInput) (*data.Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) apply(c *data.Company, in CompanyInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	phone, err := s.phone.Normalize(in.PointPerson.Phone, in.PointPerson.PhoneRegion)
	if err != nil {
		return err
	}
	c.Name = s.text.Plain(in.Name)
	c.BusinessType = s.text.Plain(in.BusinessType)
	c.Address = s.text.Plain(in.Address)
	c.Website = in.Website
	c.PointPerson = data.PointPerson{
		Name:        s.text.Plain(in.PointPerson.Name),
		Designation: s.text.Plain(in.PointPerson.Designation),
		Email:       in.PointPerson.Email,
		Phone:       phone,
	}
	return nil
}

// Delete soft-deletes a company.
func (s *CompanyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}
