package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
)

// DealerGroup is the billing customer. Its subscription status is owned by the
// wider application; the activation pipeline only ever moves it to active.
type DealerGroup struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name               string    `gorm:"type:varchar(255);not null;default:''" json:"name"`
	SubscriptionStatus string    `gorm:"type:varchar(32);not null;default:'trialing';index" json:"subscription_status"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *DealerGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.SubscriptionStatus == "" {
		g.SubscriptionStatus = SubscriptionStatusTrialing
	}
	return nil
}

// IsActive reports whether the group already holds an active subscription.
func (g *DealerGroup) IsActive() bool {
	return g.SubscriptionStatus == SubscriptionStatusActive
}
