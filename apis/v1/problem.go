package v1

// Problem is an RFC 7807 error body.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const ProblemContentType = "application/problem+json"
