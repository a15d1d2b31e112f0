package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
)

// UsageService writes and summarizes the generation ledger
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// Record stores one ledger row
func (s *UsageService) Record(ctx context.Context, record *models.GenerationRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Recent returns the newest rows first
func (s *UsageService) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []models.GenerationRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	return records, nil
}

// Summary aggregates rows created at or after since, grouped by intent
func (s *UsageService) Summary(ctx context.Context, since time.Time) ([]models.IntentSummary, error) {
	var summaries []models.IntentSummary
	err := s.db.WithContext(ctx).
		Model(&models.GenerationRecord{}).
		Select(`intent,
			COUNT(*) AS turns,
			COALESCE(SUM(calls), 0) AS calls,
			COALESCE(SUM(repairs), 0) AS repairs,
			SUM(CASE WHEN outcome IN (?, ?, ?) THEN 1 ELSE 0 END) AS failures,
			COALESCE(AVG(latency_ms), 0) AS avg_latency_ms`,
			models.OutcomeSchemaViolation, models.OutcomeBackendError, models.OutcomeError).
		Where("created_at >= ?", since).
		Group("intent").
		Order("intent").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	return summaries, nil
}
