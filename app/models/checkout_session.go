package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
)

// CheckoutSession is the intent recorded before the customer is sent to the
// payment provider. Its ID is handed to the provider as checkout metadata and
// comes back on the completion event.
type CheckoutSession struct {
	ID            string              `gorm:"type:varchar(191);primaryKey" json:"id"`
	DealerGroupID string              `gorm:"type:varchar(36);not null;index" json:"dealer_group_id"`
	Status        string              `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Selections    []CheckoutSelection `gorm:"foreignKey:CheckoutSessionID;constraint:OnDelete:CASCADE" json:"selections"`
	CompletedAt   *time.Time          `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *CheckoutSession) IsCompleted() bool {
	return s.Status == CheckoutStatusCompleted
}

// CheckoutSelection is one line item of a checkout session: a dealership, the
// product it buys and the tier.
type CheckoutSelection struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CheckoutSessionID string    `gorm:"type:varchar(191);not null;index:idx_checkout_selections_session_position,priority:1" json:"checkout_session_id"`
	Position          int       `gorm:"not null;default:0;index:idx_checkout_selections_session_position,priority:2" json:"position"`
	DealershipID      string    `gorm:"type:varchar(36);not null" json:"dealership_id" validate:"required,uuid"`
	ProjectSlug       string    `gorm:"type:varchar(100);not null" json:"project_slug" validate:"required,max=100"`
	Tier              string    `gorm:"type:varchar(50);not null" json:"tier" validate:"required,max=50"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

var selectionValidator = validator.New()

// Validate checks that the selection can be turned into an activation row.
func (s *CheckoutSelection) Validate() error {
	return selectionValidator.Struct(s)
}
