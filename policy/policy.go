// Package policy authorizes authenticated principals with Casbin. Policies are written
// in CSV form, one rule per line:
//
//	p, fred, /pizza, POST
//	p, sally, /pizza/:id, DELETE
//	p, *, /menu/*, GET|HEAD
//	g, alice, bakers
//	p, bakers, /ovens/*, *
//
// 'p' rules grant a subject (a principal, a role, or '*' for anyone) access to paths
// matching a keyMatch2 pattern with any of a '|'-separated list of methods ('*' for
// any method). 'g' rules assign principals to roles. Anything not explicitly allowed
// is forbidden.
//
// Paths are matched in their escaped form, as sent on the wire: '%2F' within a path is
// part of a segment, not a separator.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var modelContent string

// Authorizer allows a request iff the Casbin enforcer allows (principal, path, method)
type Authorizer struct {
	enforcer casbin.IEnforcer
}

// NewAuthorizer wraps an already-configured Casbin enforcer
func NewAuthorizer(enforcer casbin.IEnforcer) *Authorizer {
	return &Authorizer{enforcer: enforcer}
}

// LoadFile builds an Authorizer from a CSV policy file
func LoadFile(path string) (*Authorizer, error) {
	return newAuthorizer(fileadapter.NewAdapter(path))
}

// FromString builds an Authorizer from CSV policy text
func FromString(policy string) (*Authorizer, error) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return nil, fmt.Errorf("policy is empty")
	}
	return newAuthorizer(stringadapter.NewAdapter(policy))
}

func newAuthorizer(adapter persist.Adapter) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	enforcer.AddFunction("methodMatch", methodMatchFunction)
	return NewAuthorizer(enforcer), nil
}

// methodMatchFunction implements methodMatch(method, pattern) for the model's matcher
func methodMatchFunction(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("methodMatch expects 2 arguments; got %d", len(args))
	}
	method, ok1 := args[0].(string)
	pattern, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("methodMatch expects string arguments")
	}
	return MethodMatches(method, pattern), nil
}

// MethodMatches reports whether method is one of the '|'-separated methods in pattern,
// or pattern is '*'
func MethodMatches(method, pattern string) bool {
	for _, candidate := range strings.Split(pattern, "|") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == method {
			return true
		}
	}
	return false
}

// Authorize implements auth.Authorizer[string]
func (a *Authorizer) Authorize(ctx context.Context, principal, method, relativePath string, fullURI *url.URL) (bool, error) {
	allowed, err := a.enforcer.Enforce(principal, relativePath, method)
	if err != nil {
		return false, fmt.Errorf("casbin enforce: %w", err)
	}
	return allowed, nil
}
