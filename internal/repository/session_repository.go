// Package repository provides the GORM-backed persistence layer for route
// session history.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
)

// SessionModel is the GORM model for the route_sessions table.
type SessionModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TripID            string     `gorm:"size:64;index"`
	Mode              string     `gorm:"not null;size:20"`
	Status            string     `gorm:"not null;size:20;index"`
	Attempt           int        `gorm:"not null;default:1"`
	WaypointsRevealed int        `gorm:"not null;default:0"`
	Error             string     `gorm:"size:500"`
	StartedAt         time.Time  `gorm:"not null"`
	FinishedAt        *time.Time `gorm:""`
	DurationMs        *int64     `gorm:""`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SessionModel) TableName() string {
	return "route_sessions"
}

// GormSessionRepository is the GORM implementation of
// route.SessionHistoryRepository.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Save persists a new session record.
func (r *GormSessionRepository) Save(ctx context.Context, rec *route.SessionRecord) error {
	model := toSessionModel(rec)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// Update persists the current state of an existing record. Each session has
// a single writer, so a plain keyed update suffices.
func (r *GormSessionRepository) Update(ctx context.Context, rec *route.SessionRecord) error {
	model := toSessionModel(rec)
	updates := map[string]interface{}{
		"status":             model.Status,
		"attempt":            model.Attempt,
		"waypoints_revealed": model.WaypointsRevealed,
		"error":              model.Error,
		"finished_at":        model.FinishedAt,
		"duration_ms":        model.DurationMs,
		"updated_at":         time.Now().UTC(),
	}
	// Payload-mode sessions learn their trip id at completion; never clear
	// a known one with an empty update.
	if model.TripID != "" {
		updates["trip_id"] = model.TripID
	}
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", model.ID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update session record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return route.NewNotFoundError("RouteSession", rec.ID.String())
	}
	return nil
}

// FindByID retrieves a session record by its identifier.
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*route.SessionRecord, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, route.NewNotFoundError("RouteSession", id.String())
		}
		return nil, fmt.Errorf("failed to find session record: %w", err)
	}
	return toSessionRecord(&model), nil
}

// ListRecent returns records ordered newest first, with pagination.
func (r *GormSessionRepository) ListRecent(ctx context.Context, page, limit int) ([]*route.SessionRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&SessionModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count session records: %w", err)
	}

	var models []SessionModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list session records: %w", err)
	}

	records := make([]*route.SessionRecord, len(models))
	for i, m := range models {
		records[i] = toSessionRecord(&m)
	}
	return records, total, nil
}

// CountByStatus returns record counts grouped by status.
func (r *GormSessionRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&SessionModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toSessionModel(rec *route.SessionRecord) *SessionModel {
	return &SessionModel{
		ID:                rec.ID,
		TripID:            rec.TripID,
		Mode:              string(rec.Mode),
		Status:            rec.Status,
		Attempt:           rec.Attempt,
		WaypointsRevealed: rec.WaypointsRevealed,
		Error:             rec.Error,
		StartedAt:         rec.StartedAt,
		FinishedAt:        rec.FinishedAt,
		DurationMs:        rec.DurationMs,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func toSessionRecord(m *SessionModel) *route.SessionRecord {
	return &route.SessionRecord{
		ID:                m.ID,
		TripID:            m.TripID,
		Mode:              route.SessionMode(m.Mode),
		Status:            m.Status,
		Attempt:           m.Attempt,
		WaypointsRevealed: m.WaypointsRevealed,
		Error:             m.Error,
		StartedAt:         m.StartedAt,
		FinishedAt:        m.FinishedAt,
		DurationMs:        m.DurationMs,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
