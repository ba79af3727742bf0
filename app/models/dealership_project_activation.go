package models

import "time"

// DealershipProjectActivation records that a dealership is subscribed to a
// product at a given tier. (dealership_id, project_slug) is unique and is the
// key every activation write upserts on.
type DealershipProjectActivation struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	DealershipID           string    `gorm:"type:varchar(36);not null;index:ux_dealership_project_activations_key,unique,priority:1" json:"dealership_id"`
	ProjectSlug            string    `gorm:"type:varchar(100);not null;index:ux_dealership_project_activations_key,unique,priority:2" json:"project_slug"`
	Tier                   string    `gorm:"type:varchar(50);not null" json:"tier"`
	ExternalSubscriptionID string    `gorm:"type:varchar(191);not null;default:'';index" json:"external_subscription_id"`
	IsActive               bool      `gorm:"default:false;index" json:"is_active"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
