package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"ohshop-admin/internal/auth"
	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"
	"ohshop-admin/internal/session"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

// AccountServicer is what the sign-in and profile routes need.
type AccountServicer interface {
	Login(ctx context.Context, in service.LoginInput) (*data.AdminUser, error)
	LoginWithEmail(ctx context.Context, email string) (*data.AdminUser, error)
	Profile(ctx context.Context, id primitive.ObjectID) (*data.AdminUser, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, in service.ProfileInput) (*data.AdminUser, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, in service.PasswordInput) error
}

// IdentityProvider completes an SSO sign-in.
type IdentityProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	accounts AccountServicer
	sso      IdentityProvider // nil when SSO is not configured
	sessions session.Manager
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler. sso may be nil.
func NewAuthHandler(accounts AccountServicer, sso IdentityProvider, sessions session.Manager, log logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sso: sso, sessions: sessions, log: log}
}

// SSOEnabled reports whether an identity provider is configured.
func (h *AuthHandler) SSOEnabled() bool {
	return h.sso != nil
}

// login serves POST /api/auth/login.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.LoginInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	u, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		return fail(err)
	}
	if err := h.signIn(r.Context(), u); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	return respond(w, http.StatusOK, u)
}

// logout serves POST /api/auth/logout.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to end session", Code: http.StatusInternalServerError}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// logoutPage ends the session and returns to the sign-in page.
func (h *AuthHandler) logoutPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to end session", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return nil
}

// handleLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.sso == nil {
		return &middleware.AppError{Error: errors.New("sso disabled"), Message: "Single sign-on is not configured", Code: http.StatusNotFound}
	}
	state, err := randString(16)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
	}
	h.sessions.Put(r.Context(), middleware.SessionOIDCState, state)
	http.Redirect(w, r, h.sso.AuthCodeURL(state), http.StatusFound)
	return nil
}

// handleCallback is the redirect URL for the OIDC provider. The verified email
// must belong to an existing admin account.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.sso == nil {
		return &middleware.AppError{Error: errors.New("sso disabled"), Message: "Single sign-on is not configured", Code: http.StatusNotFound}
	}
	state := h.sessions.PopString(r.Context(), middleware.SessionOIDCState)
	if state == "" || r.URL.Query().Get("state") != state {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "Sign-in state did not match", Code: http.StatusBadRequest}
	}

	id, err := h.sso.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Single sign-on failed", Code: http.StatusUnauthorized}
	}
	u, err := h.accounts.LoginWithEmail(r.Context(), id.Email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return &middleware.AppError{Error: err, Message: "No admin account for " + id.Email, Code: http.StatusForbidden}
		}
		return fail(err)
	}
	if err := h.signIn(r.Context(), u); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	h.log.Info("SSO sign-in for " + u.Email)
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func (h *AuthHandler) signIn(ctx context.Context, u *data.AdminUser) error {
	// A new token on privilege change prevents session fixation.
	if err := h.sessions.RenewToken(ctx); err != nil {
		return err
	}
	h.sessions.Put(ctx, middleware.SessionUserID, u.ID.Hex())
	h.sessions.Put(ctx, middleware.SessionEmail, u.Email)
	h.sessions.Put(ctx, middleware.SessionRole, u.Role)
	return nil
}

// me serves GET /api/profile.
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := currentUserID(r)
	if appErr != nil {
		return appErr
	}
	u, err := h.accounts.Profile(r.Context(), id)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, u)
}

// updateProfile serves PUT /api/profile.
func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := currentUserID(r)
	if appErr != nil {
		return appErr
	}
	var in service.ProfileInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	u, err := h.accounts.UpdateProfile(r.Context(), id, in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, u)
}

// changePassword serves PUT /api/profile/password.
func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := currentUserID(r)
	if appErr != nil {
		return appErr
	}
	var in service.PasswordInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	if err := h.accounts.ChangePassword(r.Context(), id, in); err != nil {
		return fail(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
