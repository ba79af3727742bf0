package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DealerHub/app/models"
)

const testWebhookSecret = "whsec_test_activation_secret"

// fakeRepository is an in-memory Repository with failure injection.
type fakeRepository struct {
	mu          sync.Mutex
	groups      map[string]string
	sessions    map[string]*models.CheckoutSession
	activations map[string]models.DealershipProjectActivation
	events      map[string]*models.BillingWebhookEvent
	nextEventID uint
	calls       []string

	findErr     error
	groupErr    error
	completeErr error
	eventErr    error
	upsertErr   map[string]error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		groups:      make(map[string]string),
		sessions:    make(map[string]*models.CheckoutSession),
		activations: make(map[string]models.DealershipProjectActivation),
		events:      make(map[string]*models.BillingWebhookEvent),
		upsertErr:   make(map[string]error),
	}
}

func activationKey(dealershipID, slug string) string {
	return dealershipID + "|" + slug
}

func (f *fakeRepository) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c != "FindCheckoutSession" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRepository) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeRepository) FindCheckoutSession(_ context.Context, id string) (*models.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "FindCheckoutSession")
	if f.findErr != nil {
		return nil, f.findErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Selections = append([]models.CheckoutSelection(nil), s.Selections...)
	return &cp, nil
}

func (f *fakeRepository) ActivateDealerGroup(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ActivateDealerGroup")
	if f.groupErr != nil {
		return false, f.groupErr
	}
	status, ok := f.groups[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if status == models.SubscriptionStatusActive {
		return false, nil
	}
	f.groups[id] = models.SubscriptionStatusActive
	return true, nil
}

func (f *fakeRepository) UpsertActivation(_ context.Context, a *models.DealershipProjectActivation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "UpsertActivation")
	if err := f.upsertErr[a.DealershipID]; err != nil {
		return err
	}
	f.activations[activationKey(a.DealershipID, a.ProjectSlug)] = *a
	return nil
}

func (f *fakeRepository) CompleteCheckoutSession(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "CompleteCheckoutSession")
	if f.completeErr != nil {
		return false, f.completeErr
	}
	s, ok := f.sessions[id]
	if !ok || s.Status != models.CheckoutStatusPending {
		return false, nil
	}
	s.Status = models.CheckoutStatusCompleted
	s.CompletedAt = &at
	return true, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(_ context.Context, e *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "CreateWebhookEventIfNotExists")
	if f.eventErr != nil {
		return false, nil, f.eventErr
	}
	key := e.Provider + "|" + e.ProviderEventID
	if stored, ok := f.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	f.nextEventID++
	stored := *e
	stored.ID = f.nextEventID
	f.events[key] = &stored
	cp := stored
	return true, &cp, nil
}

func (f *fakeRepository) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "MarkWebhookProcessed")
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

// recordingSink keeps outcomes for assertions.
type recordingSink struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (s *recordingSink) Record(_ context.Context, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

func (s *recordingSink) last() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		return Outcome{}
	}
	return s.outcomes[len(s.outcomes)-1]
}

const (
	dealershipOne = "0f8c2f5e-5b8e-4c59-9a52-0c1f3b0f6a11"
	dealershipTwo = "6a1d6c0b-1f0e-4d1c-8b5e-3f2a9d4c7e22"
)

// seedSession stores a trialing group plus a pending session holding the
// given selections.
func seedSession(f *fakeRepository, sessionID, groupID string, selections ...models.CheckoutSelection) {
	f.groups[groupID] = models.SubscriptionStatusTrialing
	for i := range selections {
		selections[i].CheckoutSessionID = sessionID
		selections[i].Position = i
	}
	f.sessions[sessionID] = &models.CheckoutSession{
		ID:            sessionID,
		DealerGroupID: groupID,
		Status:        models.CheckoutStatusPending,
		Selections:    selections,
	}
}

func twoSelections() []models.CheckoutSelection {
	return []models.CheckoutSelection{
		{DealershipID: dealershipOne, ProjectSlug: "service", Tier: "pro"},
		{DealershipID: dealershipTwo, ProjectSlug: "service", Tier: "basic"},
	}
}

func checkoutEventJSON(eventID, sessionID, subscriptionID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": "checkout.session.completed",
		"created": %d,
		"data": {
			"object": {
				"id": "cs_test_a1b2c3",
				"object": "checkout.session",
				"mode": "subscription",
				"subscription": %q,
				"metadata": {"checkout_session_id": %q}
			}
		}
	}`, eventID, time.Now().Unix(), subscriptionID, sessionID))
}

func signPayload(t *testing.T, payload []byte, ts time.Time) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: ts,
	})
	return signed.Payload, signed.Header
}
