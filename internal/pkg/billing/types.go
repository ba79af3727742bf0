package billing

import (
	"encoding/json"
	"time"
)

// EventTypeCheckoutCompleted is the only provider event the pipeline acts on.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// InboundEvent is a provider event whose signature has been verified. It only
// lives for the duration of one request.
type InboundEvent struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
	Payload []byte
}

// CheckoutCompleted is the strictly validated content of a
// checkout.session.completed event.
type CheckoutCompleted struct {
	EventID                string
	ProviderSessionID      string
	CorrelationID          string
	ExternalSubscriptionID string
}

// SelectionResult is the outcome of one per-selection upsert.
type SelectionResult struct {
	DealershipID string `json:"dealership_id"`
	ProjectSlug  string `json:"project_slug"`
	Tier         string `json:"tier"`
	Err          error  `json:"-"`
}

func (r SelectionResult) OK() bool { return r.Err == nil }

// Report aggregates everything the activation handler did for one event.
type Report struct {
	SessionID            string
	DealerGroupID        string
	GroupActivated       bool
	Selections           []SelectionResult
	SessionCompleted     bool
	SessionCompletionErr error
}

// Succeeded counts the selections that were written.
func (r *Report) Succeeded() int {
	n := 0
	for _, s := range r.Selections {
		if s.OK() {
			n++
		}
	}
	return n
}

// Failed returns the selections that were skipped.
func (r *Report) Failed() []SelectionResult {
	var failed []SelectionResult
	for _, s := range r.Selections {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Status is "processed" when every step landed and "partial" when the group
// was activated but a selection or the session completion did not.
func (r *Report) Status() string {
	if !r.GroupActivated {
		return OutcomeFailure
	}
	if len(r.Failed()) > 0 || r.SessionCompletionErr != nil {
		return OutcomePartial
	}
	return OutcomeProcessed
}

const (
	OutcomeProcessed = "processed"
	OutcomePartial   = "partial"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailure   = "failure"
	OutcomeWarning   = "warning"
)

// Outcome is what the pipeline hands to a Sink after each delivery.
type Outcome struct {
	Status          string            `json:"status"`
	EventID         string            `json:"event_id,omitempty"`
	EventType       string            `json:"event_type,omitempty"`
	SessionID       string            `json:"session_id,omitempty"`
	DealerGroupID   string            `json:"dealer_group_id,omitempty"`
	Selections      []SelectionResult `json:"selections,omitempty"`
	FailedSelection []string          `json:"failed_selections,omitempty"`
	Error           string            `json:"error,omitempty"`
	HTTPStatus      int               `json:"http_status"`
	RecordedAt      time.Time         `json:"recorded_at"`
}

// Response is the HTTP answer for the provider.
type Response struct {
	StatusCode int
	Body       map[string]interface{}
}
