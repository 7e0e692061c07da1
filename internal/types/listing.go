package types

// ListingRecord is a job listing normalized from provider output.
// The apply link acts as the listing's natural identifier within a run.
// Records are read-only after creation.
type ListingRecord struct {
	ProviderID     string   `json:"job_id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Posted         string   `json:"posted"`
	Link           string   `json:"link"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
	EmploymentType string   `json:"employment_type"`
	Remote         bool     `json:"is_remote"`
	Salary         string   `json:"salary,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
}

// SearchFilters are optional toggles for the listings search.
// Empty values and the sentinel "all" are omitted from the outbound request.
type SearchFilters struct {
	DatePosted      string `json:"date_posted,omitempty"`
	WorkFromHome    string `json:"work_from_home,omitempty"`
	JobRequirements string `json:"job_requirements,omitempty"`
	EmploymentTypes string `json:"employment_types,omitempty"`
}
