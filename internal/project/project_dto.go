package project

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description *string `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=ACTIVE COMPLETED ON_HOLD"`
	LeadID      *string `json:"lead_id" binding:"omitempty,uuid"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE COMPLETED ON_HOLD"`
}

type AddMemberRequest struct {
	UserID        string  `json:"user_id" binding:"required,uuid"`
	RoleInProject *string `json:"role_in_project" binding:"omitempty,max=100"`
}

type MemberResponse struct {
	UserID        string  `json:"user_id"`
	Name          string  `json:"name,omitempty"`
	RoleInProject *string `json:"role_in_project,omitempty"`
	JoinedAt      string  `json:"joined_at"`
}

type ProjectResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Status      string           `json:"status"`
	LeadID      *string          `json:"lead_id,omitempty"`
	LeadName    string           `json:"lead_name,omitempty"`
	Members     []MemberResponse `json:"members"`
}
