package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of update carried by an UpdateEvent
type Type string

const (
	// TypeJobRecommendation is a single recommended job for the user
	TypeJobRecommendation Type = "job_recommendation"
	// TypeCompanyJob is a new posting from a followed company
	TypeCompanyJob Type = "company_job"
	// TypeProfileUpdate is a change to the user's profile
	TypeProfileUpdate Type = "profile_update"
	// TypeDashboardRefresh asks the dashboard to reload its data
	TypeDashboardRefresh Type = "dashboard_refresh"
)

// Valid reports whether t is one of the known update types
func (t Type) Valid() bool {
	switch t {
	case TypeJobRecommendation, TypeCompanyJob, TypeProfileUpdate, TypeDashboardRefresh:
		return true
	}
	return false
}

// UpdateEvent is a single typed update delivered over the push channel.
// Payload schema depends on Type; ordering is arrival order only.
type UpdateEvent struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Scope      string          `json:"scope"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// JobRecommendationData is the payload for TypeJobRecommendation
type JobRecommendationData struct {
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Location   string  `json:"location"`
	MatchScore float64 `json:"match_score"`
}

// CompanyJobData is the payload for TypeCompanyJob
type CompanyJobData struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
}

// ProfileUpdateData is the payload for TypeProfileUpdate
type ProfileUpdateData struct {
	UserID   string `json:"user_id"`
	Field    string `json:"field"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
}

// New creates an UpdateEvent with a fresh id and the data serialized as payload
func New(scope string, eventType Type, data any) (UpdateEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return UpdateEvent{}, fmt.Errorf("failed to serialize event payload: %w", err)
	}

	return UpdateEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Scope:      scope,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// Decode deserializes the event payload into the given payload type
func Decode[T any](e UpdateEvent) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Payload, &data); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return &data, nil
}
