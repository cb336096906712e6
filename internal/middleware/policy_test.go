package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleRules(t *testing.T) {
	t.Run("parses prefixes and role sets", func(t *testing.T) {
		rules, err := ParseRoleRules("/add-ons=admin|superadmin,/add-users=superadmin")
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, "/add-ons", rules[0].Prefix)
		assert.Equal(t, []string{"admin", "superadmin"}, rules[0].Roles)
		assert.Equal(t, "/add-users", rules[1].Prefix)
		assert.Equal(t, []string{"superadmin"}, rules[1].Roles)
	})

	t.Run("empty input", func(t *testing.T) {
		rules, err := ParseRoleRules("")
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseRoleRules("/add-ons")
		assert.Error(t, err)
	})

	t.Run("missing roles", func(t *testing.T) {
		_, err := ParseRoleRules("/add-ons=")
		assert.Error(t, err)
	})
}

func TestAccessPolicyMatch(t *testing.T) {
	roleRules, err := ParseRoleRules("/add-ons=admin|superadmin,/add-users=superadmin,/api/admin=admin")
	require.NoError(t, err)
	policy := NewAccessPolicy([]string{"/dashboard", "/add-ons", "/add-users", "/api"}, roleRules)

	tests := []struct {
		name       string
		path       string
		wantPrefix string
		wantMatch  bool
	}{
		{"protected root", "/dashboard", "/dashboard", true},
		{"protected subpath", "/dashboard/page", "/dashboard", true},
		{"role gated", "/add-ons", "/add-ons", true},
		{"longest prefix wins", "/api/admin/users", "/api/admin", true},
		{"shorter prefix for other api paths", "/api/comments", "/api", true},
		{"public path", "/public-info", "", false},
		{"prefix does not cross segment boundary", "/add-onsx", "", false},
		{"root is public", "/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := policy.Match(tt.path)
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantPrefix, rule.Prefix)
			}
		})
	}
}

func TestRuleAllows(t *testing.T) {
	anyAuthenticated := Rule{Prefix: "/dashboard"}
	assert.True(t, anyAuthenticated.Allows("member"))
	assert.True(t, anyAuthenticated.Allows("superadmin"))

	adminOnly := Rule{Prefix: "/add-users", Roles: []string{"superadmin"}}
	assert.False(t, adminOnly.Allows("member"))
	assert.False(t, adminOnly.Allows("admin"))
	assert.True(t, adminOnly.Allows("superadmin"))
}
