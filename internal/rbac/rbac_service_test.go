package rbac_test

import (
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) rbac.Service {
	t.Helper()
	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)
	svc, err := rbac.NewService(enforcer)
	require.NoError(t, err)
	return svc
}

func TestRBACService_Enforce(t *testing.T) {
	svc := newService(t)

	cases := []struct {
		name     string
		role     domain.Role
		resource string
		action   string
		want     bool
	}{
		{"employee submits leave", domain.RoleEmployee, rbac.ResourceLeave, rbac.ActionCreate, true},
		{"employee cannot review", domain.RoleEmployee, rbac.ResourceLeave, rbac.ActionReview, false},
		{"manager reviews", domain.RoleManager, rbac.ResourceLeave, rbac.ActionReview, true},
		{"manager inherits employee", domain.RoleManager, rbac.ResourceBalance, rbac.ActionRead, true},
		{"manager cannot define leave types", domain.RoleManager, rbac.ResourceLeaveType, rbac.ActionManage, false},
		{"hr inherits manager", domain.RoleHR, rbac.ResourceLeave, rbac.ActionReview, true},
		{"hr manages leave types", domain.RoleHR, rbac.ResourceLeaveType, rbac.ActionManage, true},
		{"hr exports reports", domain.RoleHR, rbac.ResourceBalance, rbac.ActionReport, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := svc.Enforce(domain.EnforceRequest{
				Role:     string(tc.role),
				Resource: tc.resource,
				Action:   tc.action,
			})
			assert.NoError(t, err)
			assert.Equal(t, tc.want, allowed)
		})
	}
}

func TestRBACService_UnknownRoleDenied(t *testing.T) {
	svc := newService(t)

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: "ROOT", Resource: rbac.ResourceLeave, Action: rbac.ActionRead})

	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestRBACService_Permissions(t *testing.T) {
	svc := newService(t)

	employee, err := svc.Permissions(domain.RoleEmployee)
	require.NoError(t, err)
	hr, err := svc.Permissions(domain.RoleHR)
	require.NoError(t, err)

	assert.Contains(t, employee, domain.PermissionResponse{Resource: rbac.ResourceLeave, Action: rbac.ActionCreate})
	assert.NotContains(t, employee, domain.PermissionResponse{Resource: rbac.ResourceLeave, Action: rbac.ActionReview})
	assert.Contains(t, hr, domain.PermissionResponse{Resource: rbac.ResourceLeave, Action: rbac.ActionCreate})
	assert.Greater(t, len(hr), len(employee))
}
