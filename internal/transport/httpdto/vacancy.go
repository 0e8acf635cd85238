package httpdto

type VacancyRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	ContactPhone   string   `json:"contactPhone"`
	Requirements   []string `json:"requirements"`
	Salary         string   `json:"salary"`
	EmploymentType string   `json:"employmentType"`
	EducationLevel string   `json:"educationLevel"`
}
