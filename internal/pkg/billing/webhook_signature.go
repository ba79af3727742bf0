package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// DefaultTolerance is the accepted age of a signed event timestamp.
const DefaultTolerance = 5 * time.Minute

// Verifier authenticates Stripe webhook deliveries with the shared endpoint
// secret. It never touches the store.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: strings.TrimSpace(secret), tolerance: tolerance}
}

// Verify checks the Stripe-Signature header against the exact request bytes
// and returns the parsed event. payload must not be re-serialized beforehand.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*InboundEvent, error) {
	if v.secret == "" {
		return nil, ErrMissingSecret
	}
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrTooOld):
			return nil, fmt.Errorf("%w: %v", ErrStaleEvent, err)
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			// Signature matched but the body is not an event.
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}

	// The library only rejects old timestamps.
	if ts, ok := signedAt(header); ok {
		if ahead := time.Until(ts); ahead > v.tolerance {
			return nil, fmt.Errorf("%w: signed %s in the future", ErrStaleEvent, ahead.Round(time.Second))
		}
	}

	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(string(event.Type)) == "" {
		return nil, fmt.Errorf("%w: event id and type are required", ErrMalformedEvent)
	}

	in := &InboundEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: payload,
	}
	if event.Created > 0 {
		in.Created = time.Unix(event.Created, 0).UTC()
	}
	if event.Data != nil {
		in.Object = event.Data.Raw
	}
	return in, nil
}

// signedAt returns the t= timestamp of a Stripe-Signature header.
func signedAt(header string) (time.Time, bool) {
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k != "t" {
			continue
		}
		secs, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}
