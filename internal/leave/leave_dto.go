package leave

import "go-leave/internal/balance"

type SubmitLeaveRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required,isodate"`
	EndDate     string `json:"end_date" binding:"required,isodate"`
	Reason      string `json:"reason" binding:"required,max=2000"`
}

type ReviewLeaveRequest struct {
	ReviewReason string `json:"review_reason" binding:"max=2000"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	UserName      string  `json:"user_name,omitempty"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName string  `json:"leave_type_name,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalDays     int     `json:"total_days"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	AppliedAt     string  `json:"applied_at"`
	ReviewerID    *string `json:"reviewer_id,omitempty"`
	ReviewReason  *string `json:"review_reason,omitempty"`
	ReviewedAt    *string `json:"reviewed_at,omitempty"`
	LeadsNotified bool    `json:"leads_notified"`
}

type SubmitResult struct {
	Leave   LeaveResponse   `json:"leave"`
	Balance balance.Summary `json:"balance"`
}

// ReviewResult carries the request after review. AlreadyApproved is set when
// an approve hit a request that was approved earlier and nothing changed.
type ReviewResult struct {
	Leave           LeaveResponse    `json:"leave"`
	Balance         *balance.Summary `json:"balance,omitempty"`
	AlreadyApproved bool             `json:"already_approved"`
	Message         string           `json:"message"`
}

type NotifyResult struct {
	Created         int    `json:"created"`
	AlreadyNotified bool   `json:"already_notified"`
	Message         string `json:"message"`
}

type AdviceResponse struct {
	LeaveID  string `json:"leave_id"`
	Advisory string `json:"advisory"`
}
