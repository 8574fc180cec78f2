// Package scope holds gorm scopes that restrict leave_requests to what a
// caller may see.
package scope

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	directReportsSQL = "SELECT u.id FROM users u WHERE u.manager_id = ?"
	ledMembersSQL    = "SELECT pm.user_id FROM project_members pm JOIN projects p ON p.id = pm.project_id " +
		"WHERE p.lead_id = ? AND pm.user_id <> p.lead_id"
)

// OwnedBy limits rows to the requester's own requests.
func OwnedBy(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("leave_requests.user_id = ?", userID)
	}
}

// ReviewableBy limits rows to requests whose owner reports to the reviewer
// directly or belongs to a project the reviewer leads. Evaluated in SQL on
// every call.
func ReviewableBy(reviewerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"leave_requests.user_id IN ("+directReportsSQL+") OR leave_requests.user_id IN ("+ledMembersSQL+")",
			reviewerID, reviewerID,
		)
	}
}

// ReviewableUsers is the user-level form of ReviewableBy.
func ReviewableUsers(reviewerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"users.id IN ("+directReportsSQL+") OR users.id IN ("+ledMembersSQL+")",
			reviewerID, reviewerID,
		)
	}
}
