package domain

import "fmt"

// Columns names the cells of a job row, in append order
var Columns = []string{"company_name", "job_role", "compensation", "application_link"}

// JobRecord represents the job posting fields extracted from a single message
type JobRecord struct {
	CompanyName     string `json:"company_name"`
	JobRole         string `json:"job_role"`
	Compensation    string `json:"compensation"`
	ApplicationLink string `json:"application_link"`
}

// IsPresent reports whether the record carries anything worth storing
func IsPresent(rec JobRecord) bool {
	return rec.CompanyName != "" ||
		rec.JobRole != "" ||
		rec.Compensation != "" ||
		rec.ApplicationLink != ""
}

// Row returns the record as cells in Columns order
func (r JobRecord) Row() []string {
	return []string{r.CompanyName, r.JobRole, r.Compensation, r.ApplicationLink}
}

func (r JobRecord) String() string {
	return fmt.Sprintf("company_name=%q job_role=%q compensation=%q application_link=%q",
		r.CompanyName, r.JobRole, r.Compensation, r.ApplicationLink)
}
