// Package policy decides what an authenticated principal may do to users,
// recipes and comments.
//
// Role grants come from a casbin RBAC model embedded in the binary. A grant
// carries a scope: "any" lets the principal act on every row, "own" narrows
// it to rows the principal authored. The scope is handed to the stores,
// which apply it as a row filter, so a mutation on somebody else's recipe
// matches nothing and looks exactly like a missing recipe.
package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/geocoder89/recipehub/internal/auth"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ErrDenied means the principal's role holds no grant for the action.
var ErrDenied = errors.New("access denied")

// Resource names a guarded collection in the grant table.
type Resource string

const (
	Users    Resource = "users"
	Recipes  Resource = "recipes"
	Comments Resource = "comments"
)

// Action is the operation a grant covers.
type Action string

const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

const (
	scopeAny = "any"
	scopeOwn = "own"
)

// Scope is the set of rows a granted action may touch.
type Scope struct {
	Any     bool
	OwnerID int64
}

// Permits reports whether a row owned by ownerID falls inside the scope.
func (s Scope) Permits(ownerID int64) bool {
	return s.Any || (s.OwnerID > 0 && s.OwnerID == ownerID)
}

func (s Scope) String() string {
	if s.Any {
		return scopeAny
	}
	return fmt.Sprintf("own:%d", s.OwnerID)
}

// AnyScope covers every row regardless of owner.
func AnyScope() Scope {
	return Scope{Any: true}
}

type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds the policy from the embedded model and grants.
func New() (*Policy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if err := loadGrants(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Policy{enforcer: enforcer}, nil
}

// MustNew is New for wiring code and tests where the embedded policy is known good.
func MustNew() *Policy {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

func loadGrants(enforcer *casbin.SyncedEnforcer, csv string) error {
	for _, line := range strings.Split(csv, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 5 {
				return fmt.Errorf("malformed grant %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3], parts[4]); err != nil {
				return fmt.Errorf("add grant %q: %w", line, err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed role link %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add role link %q: %w", line, err)
			}
		default:
			return fmt.Errorf("unknown policy line %q", line)
		}
	}
	return nil
}

// Scope resolves the widest scope the principal holds for the action.
func (p *Policy) Scope(who auth.Principal, res Resource, act Action) (Scope, error) {
	if who.Role == "" {
		return Scope{}, ErrDenied
	}

	ok, err := p.enforcer.Enforce(who.Role, string(res), string(act), scopeAny)
	if err != nil {
		return Scope{}, fmt.Errorf("enforce: %w", err)
	}
	if ok {
		return Scope{Any: true, OwnerID: who.UserID}, nil
	}

	ok, err = p.enforcer.Enforce(who.Role, string(res), string(act), scopeOwn)
	if err != nil {
		return Scope{}, fmt.Errorf("enforce: %w", err)
	}
	if ok && who.UserID > 0 {
		return Scope{OwnerID: who.UserID}, nil
	}

	return Scope{}, ErrDenied
}
