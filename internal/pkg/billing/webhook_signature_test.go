package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierAcceptsValidSignature(t *testing.T) {
	v := NewVerifier(testWebhookSecret, 0)
	body, header := signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now())

	event, err := v.Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventTypeCheckoutCompleted, event.Type)
	assert.NotEmpty(t, event.Object)
	assert.Equal(t, body, event.Payload)
	assert.False(t, event.Created.IsZero())
}

func TestVerifierRejectsTamperedPayload(t *testing.T) {
	v := NewVerifier(testWebhookSecret, 0)
	body, header := signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now())

	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-2] = ' '

	_, err := v.Verify(tampered, header)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("whsec_someone_else", 0)
	body, header := signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now())

	_, err := v.Verify(body, header)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifierRejectsStaleEvent(t *testing.T) {
	v := NewVerifier(testWebhookSecret, time.Minute)
	body, header := signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now().Add(-10*time.Minute))

	_, err := v.Verify(body, header)
	require.ErrorIs(t, err, ErrStaleEvent)
}

func TestVerifierRejectsFutureTimestamp(t *testing.T) {
	v := NewVerifier(testWebhookSecret, 5*time.Minute)

	body, header := signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now().Add(time.Hour))
	_, err := v.Verify(body, header)
	require.ErrorIs(t, err, ErrStaleEvent)

	// small clock skew is tolerated
	body, header = signPayload(t, checkoutEventJSON("evt_1", "sess_1", "sub_1"), time.Now().Add(30*time.Second))
	_, err = v.Verify(body, header)
	require.NoError(t, err)
}

func TestSignedAt(t *testing.T) {
	ts, ok := signedAt("t=1700000000,v1=abc,v0=def")
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts.Unix())

	_, ok = signedAt("v1=abc")
	assert.False(t, ok)
	_, ok = signedAt("t=soon,v1=abc")
	assert.False(t, ok)
}

func TestVerifierHeaderAndSecretChecks(t *testing.T) {
	body := checkoutEventJSON("evt_1", "sess_1", "sub_1")

	tests := []struct {
		name   string
		secret string
		header string
		want   error
	}{
		{name: "missing header", secret: testWebhookSecret, header: "", want: ErrMissingSignature},
		{name: "garbage header", secret: testWebhookSecret, header: "not-a-stripe-header", want: ErrInvalidSignature},
		{name: "bad v1 value", secret: testWebhookSecret, header: "t=1234567890,v1=deadbeef", want: ErrInvalidSignature},
		{name: "missing secret", secret: "  ", header: "t=1,v1=abc", want: ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifier(tt.secret, time.Hour*24*365*100).Verify(body, tt.header)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifierRejectsSignedNonEvent(t *testing.T) {
	v := NewVerifier(testWebhookSecret, 0)

	body, header := signPayload(t, []byte(`{"hello":"world"}`), time.Now())
	_, err := v.Verify(body, header)
	require.ErrorIs(t, err, ErrMalformedEvent)

	body, header = signPayload(t, []byte(`not json`), time.Now())
	_, err = v.Verify(body, header)
	require.ErrorIs(t, err, ErrMalformedEvent)
}
