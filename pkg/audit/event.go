package audit

import (
	"fmt"
	"time"
)

// Result represents the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Event is a single audit entry.
type Event struct {
	ID        string         `json:"id" bson:"_id"`
	Action    string         `json:"action" bson:"action"`
	UserID    string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email     string         `json:"email,omitempty" bson:"email,omitempty"`
	Provider  string         `json:"provider,omitempty" bson:"provider,omitempty"`
	Result    Result         `json:"result" bson:"result"`
	Error     string         `json:"error,omitempty" bson:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	IP        string         `json:"ip,omitempty" bson:"ip,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks that the event has all required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrEventValidation)
	}
	return nil
}

// EventOption populates an Event before it is stored.
type EventOption func(*Event)

// WithUser sets the account the action targeted.
func WithUser(userID, email string) EventOption {
	return func(e *Event) {
		e.UserID = userID
		e.Email = email
	}
}

// WithProvider sets the integration that triggered the action.
func WithProvider(provider string) EventOption {
	return func(e *Event) {
		e.Provider = provider
	}
}

// WithMetadata adds a key to the event metadata. Empty string values are skipped.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if s, ok := value.(string); ok && s == "" {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult overrides the event result.
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}
