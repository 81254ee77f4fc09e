package extractor

// instruction is sent as the system message on every extraction
const instruction = `Extract the following details from the message if it's a job posting:
- Company Name
- Job Role
- Compensation (CTC / salary)
- Application Link
Return the details as a JSON object with keys: company_name, job_role, compensation, application_link.
If any information is missing, leave its value as an empty string.`

func stringField(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// jobSchema constrains the reply to exactly the four record fields
var jobSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"company_name":     stringField("The name of the company."),
		"job_role":         stringField("The specific job role or position."),
		"compensation":     stringField("Cost to company or salary information."),
		"application_link": stringField("The URL or link to apply for the job."),
	},
	"required":             []string{"company_name", "job_role", "compensation", "application_link"},
	"additionalProperties": false,
}
