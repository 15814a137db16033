package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRepository defines the database operations the member service needs.
type MemberRepository interface {
	Toggler
	List(ctx context.Context, companyID *primitive.ObjectID, p pagination.Params) ([]*data.Member, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Member, error)
	FindByEmail(ctx context.Context, email string) (*data.Member, error)
	Create(ctx context.Context, m *data.Member) error
	Update(ctx context.Context, m *data.Member) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MemberInput is the editable part of a member.
type MemberInput struct {
	FirstName   string `json:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" validate:"required,max=80"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=32"`
	PhoneRegion string `json:"phone_region" validate:"omitempty,len=2"`
	CompanyID   string `json:"company_id" validate:"omitempty,len=24,hexadecimal"`
	Role        string `json:"role" validate:"required,oneof=owner manager staff"`
	Active      bool   `json:"active"`
}

var memberToggles = []string{"active"}

// MemberService provides business logic for managing members.
type MemberService struct {
	repo      MemberRepository
	companies CompanyLookup
	phone     *PhoneNormalizer
	text      *TextPolicy
}

// NewMemberService creates a new MemberService.
func NewMemberService(repo MemberRepository, companies CompanyLookup, phone *PhoneNormalizer, text *TextPolicy) *MemberService {
	return &MemberService{repo: repo, companies: companies, phone: phone, text: text}
}

// List returns a page of members, optionally for one company.
func (s *MemberService) List(ctx context.Context, companyHex string, p pagination.Params) (pagination.Page[*data.Member], error) {
	companyID, err := optionalID(companyHex)
	if err != nil {
		return pagination.Page[*data.Member]{}, err
	}
	items, total, err := s.repo.List(ctx, companyID, p)
	if err != nil {
		return pagination.Page[*data.Member]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a member.
func (s *MemberService) Get(ctx context.Context, id primitive.ObjectID) (*data.Member, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new member. Emails are unique among live members.
func (s *MemberService) Create(ctx context.Context, in MemberInput) (*data.Member, error) {
	m := &data.Member{}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update validates in and overwrites the member's editable fields.
func (s *MemberService) Update(ctx context.Context, id primitive.ObjectID, in MemberInput) (*data.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MemberService) apply(ctx context.Context, m *data.Member, in MemberInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != m.ID:
		return fmt.Errorf("member email %s: %w", email, data.ErrDuplicate)
	case err != nil && !errors.Is(err, data.ErrNotFound):
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
	phone, err := s.phone.Normalize(in.Phone, in.PhoneRegion)
	if err != nil {
		return err
	}

	m.FirstName = s.text.Plain(in.FirstName)
	m.LastName = s.text.Plain(in.LastName)
	m.Email = email
	m.Phone = phone
	m.CompanyID = companyID
	m.CompanyName = companyName
	m.Role = in.Role
	m.Active = in.Active
	return nil
}

// Delete soft-deletes a member.
func (s *MemberService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the active flag.
func (s *MemberService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	return toggleFlag(ctx, s.repo, memberToggles, id, field, expected)
}
