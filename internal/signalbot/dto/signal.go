package dto

import (
	"time"

	"trade-signal-bot/internal/entity"
)

// CreateSignalRequest is the operator input for a new signal.
type CreateSignalRequest struct {
	Asset        string           `json:"asset" validate:"required,max=64"`
	Direction    entity.Direction `json:"direction" validate:"required,oneof=LONG SHORT"`
	Entry        string           `json:"entry" validate:"required,max=32"`
	Stop         string           `json:"stop" validate:"required,max=32"`
	TakeProfits  []string         `json:"take_profits" validate:"max=5,dive,required,max=32"`
	Reason       string           `json:"reason" validate:"max=2000"`
	ExtraMention *entity.Mention  `json:"extra_mention,omitempty"`
}

// Control is a button attached to a posted message.
type Control struct {
	Label  string
	Token  string
	Danger bool
}

// Post is a message handed to the chat platform.
type Post struct {
	Text     string
	Mentions []entity.Mention
	Controls []Control
}

// SignalView is the read model returned by the HTTP API.
type SignalView struct {
	entity.Signal
	ComputedResult *string `json:"computedResult"`
	DisplayResult  *string `json:"displayResult"`
	StatusText     string  `json:"statusText"`
}

// SummaryResponse wraps the rendered summary projection.
type SummaryResponse struct {
	Text string `json:"text"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
