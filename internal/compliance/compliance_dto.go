package compliance

type RecordResponse struct {
	Date              string     `json:"date"`
	TotalUsers        int        `json:"total_users"`
	CompliantUsers    int        `json:"compliant_users"`
	NonCompliantUsers int        `json:"non_compliant_users"`
	Users             []UserRef  `json:"users"`
	Pagination        Pagination `json:"pagination"`
	UpdatedAt         string     `json:"updated_at"`
}

type FailedDay struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

type SyncResult struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Stored []string    `json:"stored"`
	Failed []FailedDay `json:"failed"`
}

type UserResponse struct {
	ExternalID int64    `json:"external_id"`
	Email      string   `json:"email"`
	Dates      []string `json:"dates"`
	Days       int      `json:"days"`
}
