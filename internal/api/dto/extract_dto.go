package dto

// ExtractRequest carries the message text, from the query string, a form or a JSON body
type ExtractRequest struct {
	Text string `form:"text" json:"text"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Sinks   int    `json:"sinks"`
}
