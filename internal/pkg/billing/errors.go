package billing

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrMissingSecret    = errors.New("webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleEvent       = errors.New("event timestamp outside tolerance")
	ErrMalformedEvent   = errors.New("malformed event")

	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrEmptySelections  = errors.New("checkout session has no selections")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrGroupActivationFailed   = errors.New("dealer group activation failed")
	ErrSelectionUpsertFailed   = errors.New("selection upsert failed")
	ErrSessionCompletionFailed = errors.New("checkout session completion failed")
)

// StatusCode maps a pipeline error to the HTTP status the provider should see.
// 4xx means the payload itself is the problem and redelivery cannot help;
// 5xx asks the provider to retry the whole event.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingSignature),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrStaleEvent),
		errors.Is(err, ErrMalformedEvent),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrEmptySelections):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a provider redelivery could change the result.
func Retryable(err error) bool {
	return err != nil && StatusCode(err) >= http.StatusInternalServerError
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
