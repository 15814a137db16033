package auth

import (
	"fmt"

	"ohshop-admin/internal/logger"

	"github.com/casbin/casbin/v2"
)

// RoleAnonymous is the role of a request without a session.
const RoleAnonymous = "anonymous"

const writeMethods = "(POST|PUT|PATCH|DELETE)"

// editorResources are the entity routes editors may change.
var editorResources = []string{
	"/api/categories",
	"/api/content",
	"/api/clients",
	"/api/products",
	"/api/members",
	"/api/immigration-services",
	"/api/tickers",
	"/api/collections",
}

// adminResources are the routes only admins may change.
var adminResources = []string{
	"/api/migrations",
	"/api/custom-fields",
}

// DefaultPolicies returns the baseline rules. Roles inherit upwards:
// anonymous < viewer < editor < admin.
func DefaultPolicies() [][]string {
	policies := [][]string{
		{"anonymous", "/login", "GET"},
		{"anonymous", "/static/*", "GET"},
		{"anonymous", "/healthz", "GET"},
		{"anonymous", "/auth/login", "GET"},
		{"anonymous", "/auth/callback", "GET"},
		{"anonymous", "/api/auth/login", "POST"},

		{"viewer", "/", "GET"},
		{"viewer", "/api/*", "GET"},
		{"viewer", "/files/:id", "GET"},
		{"viewer", "/logout", "(GET|POST)"},
		{"viewer", "/api/auth/logout", "POST"},
		{"viewer", "/api/profile", "PUT"},
		{"viewer", "/api/profile/password", "PUT"},

		{"admin", "/metrics", "GET"},
	}
	for _, r := range editorResources {
		policies = append(policies, []string{"editor", r, writeMethods}, []string{"editor", r + "/*", writeMethods})
	}
	for _, r := range adminResources {
		policies = append(policies, []string{"admin", r, writeMethods}, []string{"admin", r + "/*", writeMethods})
	}
	return policies
}

// roleChain lists each role with the role it inherits from.
var roleChain = [][2]string{
	{"viewer", "anonymous"},
	{"editor", "viewer"},
	{"admin", "editor"},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies() {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	for _, pair := range roleChain {
		if has, _ := e.HasRoleForUser(pair[0], pair[1]); !has {
			if _, err := e.AddRoleForUser(pair[0], pair[1]); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add role '%s' -> '%s'", pair[0], pair[1]))
			}
		}
	}
	log.Info("Policy seeding complete.")
}
