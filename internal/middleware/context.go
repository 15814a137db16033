package middleware

import "context"

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// Session keys written at sign-in.
const (
	SessionUserID = "user_id"
	SessionRole   = "user_role"
	SessionEmail  = "user_email"
	// SessionOIDCState holds the state parameter of a pending SSO sign-in.
	SessionOIDCState = "oidc_state"
)

// UserInfo represents the essential user information stored in the session and request context.
type UserInfo struct {
	ID    string
	Email string
	Role  string
}

// Anonymous reports whether the request carries no signed-in user.
func (u *UserInfo) Anonymous() bool {
	return u.ID == ""
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{Role: "anonymous"}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
