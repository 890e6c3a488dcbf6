package server

import "github.com/roach88/cinemad/internal/engine"

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Spec     string `json:"spec"`
	SpecHash string `json:"spec_hash"`
	Displays int    `json:"displays"`
	Sources  int    `json:"sources"`
}

// DisplaySummary is one entry of GET /v1/displays.
type DisplaySummary struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	Source     string `json:"source"`
	Resolved   bool   `json:"resolved"`
	State      string `json:"state"`
	Structures int    `json:"structures"`
}

// DisplayListResponse is returned by GET /v1/displays.
type DisplayListResponse struct {
	Displays []DisplaySummary `json:"displays"`
}

// ActivateResponse is returned by POST /v1/displays/:id/activate.
type ActivateResponse struct {
	Activation string                 `json:"activation"`
	Display    engine.DisplaySnapshot `json:"display"`
}

// SelectRequest is the body of POST /v1/displays/:id/structures/:sid/select.
type SelectRequest struct {
	Value string `json:"value" binding:"required"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`
	// Code is a short machine-readable reason.
	Code string `json:"code,omitempty"`
}

// Error codes.
const (
	CodeNotFound    = "not_found"
	CodeBadRequest  = "bad_request"
	CodeUnavailable = "unavailable"
)
