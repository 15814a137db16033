package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ohshop-admin/internal/auth"
	"ohshop-admin/internal/data"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidCredentials is returned for any failed sign-in.
var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash is compared against when the email is unknown so both paths cost a bcrypt round.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z5n1u/3Aq0wWqk3bWpr1ixf2"

// AdminUserRepository defines the database operations on dashboard accounts.
type AdminUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*data.AdminUser, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.AdminUser, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *data.AdminUser) error
	UpdateProfile(ctx context.Context, u *data.AdminUser) error
	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// LoginInput is a password sign-in request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// ProfileInput is the self-editable part of an account.
type ProfileInput struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
	Phone       string `json:"phone" validate:"max=32"`
	PhoneRegion string `json:"phone_region" validate:"omitempty,len=2"`
	Avatar      string `json:"avatar" validate:"omitempty,max=2048"`
}

// PasswordInput changes the caller's password.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// AccountService signs admins in and manages their profiles.
type AccountService struct {
	repo  AdminUserRepository
	phone *PhoneNormalizer
	text  *TextPolicy
	now   func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo AdminUserRepository, phone *PhoneNormalizer, text *TextPolicy) *AccountService {
	return &AccountService{repo: repo, phone: phone, text: text, now: time.Now}
}

// Login checks email and password and records the sign-in.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*data.AdminUser, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			_, _ = auth.CheckPassword(dummyHash, in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to check password of %s: %w", u.Email, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.touch(ctx, u)
}

// LoginWithEmail signs in the admin owning an email verified by an identity provider.
func (s *AccountService) LoginWithEmail(ctx context.Context, email string) (*data.AdminUser, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.touch(ctx, u)
}

func (s *AccountService) touch(ctx context.Context, u *data.AdminUser) (*data.AdminUser, error) {
	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLoginAt = &now
	return u, nil
}

// Profile returns the account with the given id.
func (s *AccountService) Profile(ctx context.Context, id primitive.ObjectID) (*data.AdminUser, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile validates in and writes the self-editable fields.
func (s *AccountService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*data.AdminUser, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	phone, err := s.phone.Normalize(in.Phone, in.PhoneRegion)
	if err != nil {
		return nil, err
	}
	u.DisplayName = s.text.Plain(in.DisplayName)
	u.Phone = phone
	u.Avatar = strings.TrimSpace(in.Avatar)
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id primitive.ObjectID, in PasswordInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, in.CurrentPassword)
	if err != nil {
		return fmt.Errorf("failed to check password of %s: %w", u.Email, err)
	}
	if !ok {
		return validation.Errors{{Field: "current_password", Tag: "password", Message: "current_password is incorrect"}}
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.SetPasswordHash(ctx, id, hash)
}

// Bootstrap creates the first admin account when none exists.
// It reports whether an account was created.
func (s *AccountService) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if len(password) < 8 {
		return false, invalidf("bootstrap password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	u := &data.AdminUser{
		Email:        email,
		DisplayName:  strings.Split(email, "@")[0],
		PasswordHash: hash,
		Role:         data.RoleAdmin,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}
