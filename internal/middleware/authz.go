package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/session"

	"github.com/casbin/casbin/v2"
)

// Authorizer creates a new middleware for authorization.
// It checks the caller's role against the Casbin policies; the role comes
// from the session and defaults to anonymous.
func Authorizer(e casbin.IEnforcer, sm session.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &UserInfo{
				ID:    sm.GetString(r.Context(), SessionUserID),
				Email: sm.GetString(r.Context(), SessionEmail),
				Role:  sm.GetString(r.Context(), SessionRole),
			}
			if info.ID == "" || info.Role == "" {
				info = &UserInfo{Role: "anonymous"}
			}
			r = r.WithContext(SetUserInfo(r.Context(), info))

			allowed, err := e.Enforce(info.Role, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				WriteError(w, r, &AppError{Error: err, Message: "Authorization error", Code: http.StatusInternalServerError})
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			if info.Anonymous() {
				if !isAPI(r) {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				WriteError(w, r, &AppError{Error: errors.New("not signed in"), Message: "Authentication required", Code: http.StatusUnauthorized})
				return
			}
			WriteError(w, r, &AppError{Error: errors.New("forbidden"), Message: "Forbidden", Code: http.StatusForbidden})
		})
	}
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
