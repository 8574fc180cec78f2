package rbac

import "go-leave/internal/domain"

// Resources and actions used by route guards.
const (
	ResourceLeave        = "leave"
	ResourceLeaveType    = "leave_type"
	ResourceBalance      = "balance"
	ResourceUser         = "user"
	ResourceProject      = "project"
	ResourceNotification = "notification"
	ResourceCompliance   = "compliance"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionReview = "review"
	ActionManage = "manage"
	ActionReport = "report"
)

// roleInheritance: child inherits every permission of parent.
var roleInheritance = [][]string{
	{string(domain.RoleManager), string(domain.RoleEmployee)},
	{string(domain.RoleHR), string(domain.RoleManager)},
}

var rolePermissions = [][]string{
	{string(domain.RoleEmployee), ResourceLeave, ActionCreate},
	{string(domain.RoleEmployee), ResourceLeave, ActionRead},
	{string(domain.RoleEmployee), ResourceLeaveType, ActionRead},
	{string(domain.RoleEmployee), ResourceBalance, ActionRead},
	{string(domain.RoleEmployee), ResourceNotification, ActionRead},
	{string(domain.RoleEmployee), ResourceProject, ActionRead},

	{string(domain.RoleManager), ResourceLeave, ActionReview},
	{string(domain.RoleManager), ResourceCompliance, ActionRead},

	{string(domain.RoleHR), ResourceLeaveType, ActionManage},
	{string(domain.RoleHR), ResourceBalance, ActionReport},
	{string(domain.RoleHR), ResourceUser, ActionManage},
	{string(domain.RoleHR), ResourceProject, ActionManage},
	{string(domain.RoleHR), ResourceCompliance, ActionManage},
}
