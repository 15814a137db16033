package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ohshop-admin/internal/config"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	PopString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

// New creates a session manager storing sessions in the state database.
func New(db *sqlx.DB, driver string, cfg config.SessionConfig, secure bool) (*scs.SessionManager, error) {
	sm := scs.New()
	switch driver {
	case "sqlite3":
		sm.Store = sqlite3store.New(db.DB)
	case "mysql":
		sm.Store = mysqlstore.New(db.DB)
	default:
		return nil, fmt.Errorf("unsupported session store driver %q", driver)
	}
	sm.Lifetime = time.Duration(cfg.Lifetime) * time.Hour
	sm.Cookie.Name = "ohshop_admin_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm, nil
}

// ReadOnly loads the session of the request without wrapping the response
// writer, so handlers that hijack the connection still see the session.
// Changes made to the session are not saved.
func ReadOnly(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(sm.Cookie.Name); err == nil {
				token = cookie.Value
			}
			ctx, err := sm.Load(r.Context(), token)
			if err != nil {
				http.Error(w, "Failed to load session", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
