package domain

// EnforceRequest asks whether a role may perform action on resource. Role is
// filled from the access token, never from the body.
type EnforceRequest struct {
	Role     string `json:"-"`
	Resource string `json:"resource" binding:"required,max=50"`
	Action   string `json:"action" binding:"required,max=50"`
}

type EnforceResponse struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (p PermissionResponse) String() string {
	return p.Resource + ":" + p.Action
}
