package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/auth"
)

var (
	alice = auth.Principal{UserID: 1, Role: auth.RoleUser}
	bob   = auth.Principal{UserID: 2, Role: auth.RoleUser}
	root  = auth.Principal{UserID: 9, Role: auth.RoleAdmin}
)

func TestScope_OwnershipRules(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	for _, res := range []Resource{Recipes, Comments} {
		for _, act := range []Action{Update, Delete} {
			t.Run(string(res)+"/"+string(act), func(t *testing.T) {
				s, err := p.Scope(alice, res, act)
				require.NoError(t, err)
				assert.False(t, s.Any)
				assert.Equal(t, int64(1), s.OwnerID)

				s, err = p.Scope(root, res, act)
				require.NoError(t, err)
				assert.True(t, s.Any)
			})
		}
	}
}

func TestScope_ReadIsOpenToAuthenticatedUsers(t *testing.T) {
	p := MustNew()

	for _, res := range []Resource{Recipes, Comments} {
		s, err := p.Scope(bob, res, Read)
		require.NoError(t, err)
		assert.True(t, s.Any, "users read every %s", res)

		s, err = p.Scope(root, res, Read)
		require.NoError(t, err)
		assert.True(t, s.Any, "admin inherits user reads on %s", res)
	}
}

func TestScope_UsersAreAdminOnly(t *testing.T) {
	p := MustNew()

	for _, act := range []Action{Read, Create, Update, Delete} {
		_, err := p.Scope(alice, Users, act)
		assert.ErrorIs(t, err, ErrDenied, "user %s on users", act)

		s, err := p.Scope(root, Users, act)
		require.NoError(t, err)
		assert.True(t, s.Any)
	}
}

func TestScope_UnknownRoleDenied(t *testing.T) {
	p := MustNew()

	_, err := p.Scope(auth.Principal{UserID: 3, Role: "editor"}, Recipes, Read)
	assert.ErrorIs(t, err, ErrDenied)

	_, err = p.Scope(auth.Principal{UserID: 3}, Recipes, Read)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestScope_PermitsOwnerOrAdmin(t *testing.T) {
	p := MustNew()

	tests := []struct {
		name    string
		who     auth.Principal
		ownerID int64
		want    bool
	}{
		{name: "owner", who: alice, ownerID: 1, want: true},
		{name: "other_user", who: bob, ownerID: 1, want: false},
		{name: "admin_any_owner", who: root, ownerID: 1, want: true},
		{name: "admin_own_row", who: root, ownerID: 9, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, act := range []Action{Update, Delete} {
				for _, res := range []Resource{Recipes, Comments} {
					scope, err := p.Scope(tt.who, res, act)
					assert.NoError(t, err)
					assert.Equal(t, tt.want, scope.Permits(tt.ownerID), "%s %s", act, res)
				}
			}
		})
	}
}

func TestScopePermits(t *testing.T) {
	assert.True(t, AnyScope().Permits(123))
	assert.True(t, Scope{OwnerID: 5}.Permits(5))
	assert.False(t, Scope{OwnerID: 5}.Permits(6))
	assert.False(t, Scope{}.Permits(0), "zero scope matches nothing")
}

func TestLoadGrants_RejectsMalformedLines(t *testing.T) {
	p := MustNew()

	err := loadGrants(p.enforcer, "p, user, recipes, read")
	assert.Error(t, err)

	err = loadGrants(p.enforcer, "x, a, b")
	assert.Error(t, err)
}
