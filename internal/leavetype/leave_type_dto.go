package leavetype

type DefineLeaveTypeRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	YearlyLimit *int   `json:"yearly_limit" binding:"required,min=0,max=366"`
}

type LimitItem struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	YearlyLimit *int   `json:"yearly_limit" binding:"required,min=0,max=366"`
}

type SetLimitsRequest struct {
	Limits []LimitItem `json:"limits" binding:"required,min=1,dive"`
}

type LeaveTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	YearlyLimit int    `json:"yearly_limit"`
}

type DefineResult struct {
	LeaveType LeaveTypeResponse `json:"leave_type"`
	Created   bool              `json:"created"`
}
