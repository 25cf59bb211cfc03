package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownType is returned when an inbound message carries an unrecognized type tag
	ErrUnknownType = errors.New("unknown event type")

	// ErrEmptyEnvelope is returned when a batch envelope carries no items
	ErrEmptyEnvelope = errors.New("empty update envelope")
)

// Backend envelope tags that expand into one or more UpdateEvents
const (
	wireJobRecommendationUpdate = "job_recommendation_update"
	wireCompanyJobPosted        = "company_job_posted"
	wireProfileUpdated          = "profile_updated"
	wireDashboardRefresh        = "dashboard_refresh"
)

// SubscribeRequest is the first frame a client sends on the push channel.
// An empty Types list subscribes to every update type for the scope.
type SubscribeRequest struct {
	Types []Type `json:"types"`
}

// wireMessage is the tagged envelope the backend publishes on the update exchange
type wireMessage struct {
	Type            string                  `json:"type"`
	Recommendations []JobRecommendationData `json:"recommendations,omitempty"`
	Company         json.RawMessage         `json:"company,omitempty"`
	Job             json.RawMessage         `json:"job,omitempty"`
	Profile         json.RawMessage         `json:"profile,omitempty"`
}

// ParseInbound decodes a backend wire message into UpdateEvents for the scope.
// A job_recommendation_update envelope carrying N recommendations fans out
// into N TypeJobRecommendation events, preserving envelope order.
func ParseInbound(scope string, body []byte) ([]UpdateEvent, error) {
	var msg wireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("malformed update message: %w", err)
	}

	now := time.Now().UTC()

	switch msg.Type {
	case wireJobRecommendationUpdate:
		if len(msg.Recommendations) == 0 {
			return nil, ErrEmptyEnvelope
		}
		events := make([]UpdateEvent, 0, len(msg.Recommendations))
		for _, rec := range msg.Recommendations {
			payload, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize recommendation: %w", err)
			}
			events = append(events, UpdateEvent{
				ID:         uuid.New().String(),
				Type:       TypeJobRecommendation,
				Scope:      scope,
				Payload:    payload,
				ReceivedAt: now,
			})
		}
		return events, nil

	case wireCompanyJobPosted:
		payload, err := mergeCompanyJob(msg.Company, msg.Job)
		if err != nil {
			return nil, err
		}
		return []UpdateEvent{{
			ID:         uuid.New().String(),
			Type:       TypeCompanyJob,
			Scope:      scope,
			Payload:    payload,
			ReceivedAt: now,
		}}, nil

	case wireProfileUpdated:
		return []UpdateEvent{{
			ID:         uuid.New().String(),
			Type:       TypeProfileUpdate,
			Scope:      scope,
			Payload:    msg.Profile,
			ReceivedAt: now,
		}}, nil

	case wireDashboardRefresh:
		return []UpdateEvent{{
			ID:         uuid.New().String(),
			Type:       TypeDashboardRefresh,
			Scope:      scope,
			Payload:    json.RawMessage(`{}`),
			ReceivedAt: now,
		}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
}

// mergeCompanyJob flattens the company and job halves of a posting envelope
// into a single CompanyJobData payload
func mergeCompanyJob(company, job json.RawMessage) (json.RawMessage, error) {
	var c struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if len(company) > 0 {
		if err := json.Unmarshal(company, &c); err != nil {
			return nil, fmt.Errorf("malformed company in posting envelope: %w", err)
		}
	}

	var j struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Location string `json:"location"`
	}
	if len(job) > 0 {
		if err := json.Unmarshal(job, &j); err != nil {
			return nil, fmt.Errorf("malformed job in posting envelope: %w", err)
		}
	}

	return json.Marshal(CompanyJobData{
		CompanyID:   c.ID,
		CompanyName: c.Name,
		JobID:       j.ID,
		Title:       j.Title,
		Location:    j.Location,
	})
}
