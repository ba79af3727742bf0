package billing

import (
	"context"
	"time"

	"github.com/ManuelReschke/DealerHub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the store operations used by the activation pipeline.
// Every write is individually committed and safe to repeat.
type Repository interface {
	FindCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error)
	ActivateDealerGroup(ctx context.Context, dealerGroupID string) (bool, error)
	UpsertActivation(ctx context.Context, activation *models.DealershipProjectActivation) error
	CompleteCheckoutSession(ctx context.Context, id string, completedAt time.Time) (bool, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	var s models.CheckoutSession
	err := r.db.WithContext(ctx).
		Preload("Selections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivateDealerGroup sets the group to active. It returns false without
// writing when the group is already active and never touches other statuses
// once active.
func (r *gormRepository) ActivateDealerGroup(ctx context.Context, dealerGroupID string) (bool, error) {
	var g models.DealerGroup
	if err := r.db.WithContext(ctx).
		Select("id", "subscription_status").
		Where("id = ?", dealerGroupID).
		First(&g).Error; err != nil {
		return false, err
	}
	if g.IsActive() {
		return false, nil
	}

	tx := r.db.WithContext(ctx).
		Model(&models.DealerGroup{}).
		Where("id = ? AND subscription_status <> ?", dealerGroupID, models.SubscriptionStatusActive).
		Update("subscription_status", models.SubscriptionStatusActive)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpsertActivation(ctx context.Context, activation *models.DealershipProjectActivation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "dealership_id"},
			{Name: "project_slug"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier",
			"external_subscription_id",
			"is_active",
			"updated_at",
		}),
	}).Create(activation).Error
}

// CompleteCheckoutSession moves a pending session to completed. Completed
// sessions are left untouched, so the transition never runs backwards.
func (r *gormRepository) CompleteCheckoutSession(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND status = ?", id, models.CheckoutStatusPending).
		Updates(map[string]interface{}{
			"status":       models.CheckoutStatusCompleted,
			"completed_at": completedAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
