package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MetadataCheckoutSessionKey is the checkout metadata key that carries our own
// checkout session id through the provider.
const MetadataCheckoutSessionKey = "checkout_session_id"

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	ClientReferenceID string            `json:"client_reference_id"`
	Subscription      json.RawMessage   `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
}

// Route inspects a verified event. It returns (nil, nil) for every event type
// the pipeline does not act on; those are acknowledged without side effects.
func Route(event *InboundEvent) (*CheckoutCompleted, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if event.Type != EventTypeCheckoutCompleted {
		return nil, nil
	}
	return parseCheckoutCompleted(event)
}

func parseCheckoutCompleted(event *InboundEvent) (*CheckoutCompleted, error) {
	if len(bytes.TrimSpace(event.Object)) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data object", ErrMalformedEvent, event.ID)
	}

	var obj checkoutSessionObject
	if err := json.Unmarshal(event.Object, &obj); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
	}
	if obj.Object != "" && obj.Object != "checkout.session" {
		return nil, fmt.Errorf("%w: expected checkout.session object, got %q", ErrMalformedEvent, obj.Object)
	}

	correlationID := strings.TrimSpace(obj.Metadata[MetadataCheckoutSessionKey])
	if correlationID == "" {
		correlationID = strings.TrimSpace(obj.ClientReferenceID)
	}
	if correlationID == "" {
		return nil, fmt.Errorf("%w: missing %s metadata", ErrMalformedEvent, MetadataCheckoutSessionKey)
	}

	subscriptionID, err := expandableID(obj.Subscription)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
	}
	if subscriptionID == "" {
		return nil, fmt.Errorf("%w: missing subscription id", ErrMalformedEvent)
	}

	return &CheckoutCompleted{
		EventID:                event.ID,
		ProviderSessionID:      strings.TrimSpace(obj.ID),
		CorrelationID:          correlationID,
		ExternalSubscriptionID: subscriptionID,
	}, nil
}

// expandableID reads a Stripe expandable field, which is either an id string
// or an object carrying an id.
func expandableID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return strings.TrimSpace(id), nil
	}
	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &expanded); err != nil {
		return "", err
	}
	return strings.TrimSpace(expanded.ID), nil
}
