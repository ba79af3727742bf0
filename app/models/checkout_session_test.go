package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutSelectionValidate(t *testing.T) {
	valid := CheckoutSelection{DealershipID: "0f8c2f5e-5b8e-4c59-9a52-0c1f3b0f6a11", ProjectSlug: "service", Tier: "pro"}

	tests := []struct {
		name    string
		mutate  func(s *CheckoutSelection)
		wantErr bool
	}{
		{"valid", func(s *CheckoutSelection) {}, false},
		{"dealership not a uuid", func(s *CheckoutSelection) { s.DealershipID = "dealer-7" }, true},
		{"missing dealership", func(s *CheckoutSelection) { s.DealershipID = "" }, true},
		{"missing slug", func(s *CheckoutSelection) { s.ProjectSlug = "" }, true},
		{"missing tier", func(s *CheckoutSelection) { s.Tier = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, (&DealerGroup{SubscriptionStatus: SubscriptionStatusActive}).IsActive())
	assert.False(t, (&DealerGroup{SubscriptionStatus: SubscriptionStatusPastDue}).IsActive())
	assert.True(t, (&CheckoutSession{Status: CheckoutStatusCompleted}).IsCompleted())
	assert.False(t, (&BillingWebhookEvent{}).ProcessedCleanly())
}
