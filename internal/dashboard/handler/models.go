package handler

// SearchRequest is the body accepted by POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
