package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	UpsertResources(ctx context.Context, resources []model.Resource) error
	ListResources(ctx context.Context, kind string) ([]model.Resource, error)
	GetResource(ctx context.Context, id string) (*model.Resource, error)
	ReplaceSnapshot(ctx context.Context, resourceIDs []string, ivs []interval.Interval, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context, resourceIDs []string) ([]interval.Interval, error)
	CreateAttempt(ctx context.Context, attempt *model.BookingAttempt) error
	UpdateAttemptOutcome(ctx context.Context, id, outcome string) error
	WatchersForResource(ctx context.Context, resourceID string) ([]model.WatchSubscription, error)
	WatchedResources(ctx context.Context) ([]model.Resource, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// UpsertResources refreshes the resource catalog in one batch.
func (s *gormStore) UpsertResources(ctx context.Context, resources []model.Resource) error {
	if len(resources) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "name", "total_stock"}),
	}).Create(&resources).Error; err != nil {
		return fmt.Errorf("batch upsert resources failed: %w", err)
	}
	return nil
}

func (s *gormStore) ListResources(ctx context.Context, kind string) ([]model.Resource, error) {
	var resources []model.Resource
	q := s.db.WithContext(ctx)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("id").Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *gormStore) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	if err := s.db.WithContext(ctx).First(&resource, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

// ReplaceSnapshot swaps the persisted reservation records for the given
// resources in a single transaction, so readers never observe a
// half-replaced set.
func (s *gormStore) ReplaceSnapshot(ctx context.Context, resourceIDs []string, ivs []interval.Interval, fetchedAt time.Time) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_id IN ?", resourceIDs).
			Delete(&model.ReservationRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", err)
		}
		records := make([]model.ReservationRecord, 0, len(ivs))
		for _, iv := range ivs {
			records = append(records, model.ReservationRecord{
				UpstreamID: iv.ID,
				ResourceID: iv.ResourceID,
				Kind:       string(iv.Kind),
				Quantity:   iv.Quantity,
				StartTime:  iv.Start,
				EndTime:    iv.End,
				StatusCode: iv.StatusCode,
				Status:     string(iv.Status),
				FetchedAt:  fetchedAt,
			})
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to persist snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot reads back the persisted reservation records for the given
// resources as normalized intervals.
func (s *gormStore) LoadSnapshot(ctx context.Context, resourceIDs []string) ([]interval.Interval, error) {
	var records []model.ReservationRecord
	if err := s.db.WithContext(ctx).
		Where("resource_id IN ?", resourceIDs).
		Order("start_time").
		Find(&records).Error; err != nil {
		return nil, err
	}
	ivs := make([]interval.Interval, 0, len(records))
	for _, r := range records {
		ivs = append(ivs, interval.Interval{
			ID:         r.UpstreamID,
			Kind:       interval.ResourceKind(r.Kind),
			ResourceID: r.ResourceID,
			Quantity:   r.Quantity,
			Start:      r.StartTime,
			End:        r.EndTime,
			StatusCode: r.StatusCode,
			Status:     interval.StatusType(r.Status),
		})
	}
	return ivs, nil
}

func (s *gormStore) CreateAttempt(ctx context.Context, attempt *model.BookingAttempt) error {
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record booking attempt: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateAttemptOutcome(ctx context.Context, id, outcome string) error {
	result := s.db.WithContext(ctx).
		Model(&model.BookingAttempt{}).
		Where("id = ?", id).
		Update("outcome", outcome)
	if result.Error != nil {
		return fmt.Errorf("failed to update attempt %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WatchersForResource returns the push subscriptions watching a resource.
func (s *gormStore) WatchersForResource(ctx context.Context, resourceID string) ([]model.WatchSubscription, error) {
	var subs []model.WatchSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN watch_resource_mapping wrm ON wrm.watch_subscription_endpoint = watch_subscriptions.endpoint").
		Where("wrm.resource_id = ?", resourceID).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteSubscription removes a push subscription (and its watch mappings via
// the association) by endpoint. Deleting an unknown endpoint is a no-op.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.WatchSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

// WatchedResources returns every resource at least one subscription watches.
func (s *gormStore) WatchedResources(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	err := s.db.WithContext(ctx).
		Distinct("resources.*").
		Joins("JOIN watch_resource_mapping wrm ON wrm.resource_id = resources.id").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}
