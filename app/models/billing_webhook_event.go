package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
)

// BillingWebhookEvent stores recognized provider webhook deliveries with
// deduplication metadata. ProcessedAt is set once the pipeline has run; a
// non-empty ProcessingError means a redelivery should be processed again.
type BillingWebhookEvent struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Provider          string     `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID   string     `gorm:"type:varchar(191);not null;default:'';index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType         string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	CheckoutSessionID string     `gorm:"type:varchar(191);not null;default:'';index" json:"checkout_session_id"`
	PayloadJSON       string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt       *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError   string     `gorm:"type:text" json:"processing_error"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProcessedCleanly reports whether an earlier delivery ran to completion
// without a recorded error.
func (e *BillingWebhookEvent) ProcessedCleanly() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}

// AllModels lists every table owned by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&DealerGroup{},
		&CheckoutSession{},
		&CheckoutSelection{},
		&DealershipProjectActivation{},
		&BillingWebhookEvent{},
	}
}
