package user

type CreateUserRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	Role        string  `json:"role" binding:"required,role"`
	ManagerID   *string `json:"manager_id" binding:"omitempty,uuid"`
	Designation *string `json:"designation"`
}

type AssignManagerRequest struct {
	// null clears the manager
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	ManagerID   *string `json:"manager_id,omitempty"`
	ManagerName string  `json:"manager_name,omitempty"`
	Designation *string `json:"designation,omitempty"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
}
