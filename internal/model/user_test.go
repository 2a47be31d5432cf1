package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/auth-service/internal/model"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want model.Role
		ok   bool
	}{
		{"CUSTOMER", model.RoleCustomer, true},
		{"customer", model.RoleCustomer, true},
		{" admin ", model.RoleAdmin, true},
		{"OWNER", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := model.ParseRole(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, model.RoleCustomer.Valid())
	assert.True(t, model.RoleAdmin.Valid())
	assert.False(t, model.Role("OWNER").Valid())
	assert.False(t, model.Role("").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", model.NormalizeEmail("  A@Example.COM "))
	assert.Equal(t, "a@example.com", model.NormalizeEmail("a@example.com"))
}
