package api

import "time"

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	StatusCode int      `json:"statusCode" example:"404"`
	Error      string   `json:"error" example:"blog post with ID \"42\" not found"`
	Status     string   `json:"status" example:"error"`
	Field      string   `json:"field,omitempty" example:"title"`
	Fields     []string `json:"fields,omitempty"`
	Details    string   `json:"details,omitempty" example:"Additional error details"`
}

// RateLimitResponse is written with a 429.
type RateLimitResponse struct {
	StatusCode int    `json:"statusCode" example:"429"`
	Message    string `json:"message" example:"Too Many Requests"`
	RetryAfter int    `json:"retryAfter" example:"37"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
}
