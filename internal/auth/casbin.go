package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// modelConf is the RBAC model: a role may call a method on a path when it, or a
// role it inherits, holds a matching policy.
const modelConf = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// NewEnforcer creates a Casbin enforcer whose policies live in the casbin_rule
// table of the state database.
//
// Parameters:
//   - driverName: the state database driver ("sqlite3" or "mysql").
//   - dsn: the Data Source Name of the state database.
func NewEnforcer(driverName, dsn string) (*casbin.Enforcer, error) {
	opts := &sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	}
	adapter := sqlxadapter.NewAdapterFromOptions(opts)

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	registerFunctions(enforcer)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer creates an enforcer with the same model and no persistence.
func NewMemoryEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	registerFunctions(enforcer)
	return enforcer, nil
}

// registerFunctions lets "/api/categories/*" and "/files/:id" match concrete paths.
func registerFunctions(e *casbin.Enforcer) {
	e.AddFunction("keyMatch2", util.KeyMatch2Func)
	e.AddFunction("regexMatch", util.RegexMatchFunc)
}
