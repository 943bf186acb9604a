package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backoffice/settlement/internal/application/report"
	"github.com/backoffice/settlement/internal/domain/shared"
)

// GormDailySummaryRepository implements report.DailySummaryRepository
// using GORM
type GormDailySummaryRepository struct {
	db *gorm.DB
}

// NewGormDailySummaryRepository creates a new GormDailySummaryRepository
func NewGormDailySummaryRepository(db *gorm.DB) *GormDailySummaryRepository {
	return &GormDailySummaryRepository{db: db}
}

// Get returns the rollup of one (company, date)
func (r *GormDailySummaryRepository) Get(ctx context.Context, companyID uuid.UUID, date time.Time) (*report.DailySummaryModel, error) {
	var summary report.DailySummaryModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND date = ?", companyID, date).
		First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// GetRange returns the rollups between two dates inclusive
func (r *GormDailySummaryRepository) GetRange(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]*report.DailySummaryModel, error) {
	var summaries []*report.DailySummaryModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND date >= ? AND date <= ?", companyID, from, to).
		Order("date ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// Save upserts a rollup on its (company, date) key
func (r *GormDailySummaryRepository) Save(ctx context.Context, summary *report.DailySummaryModel) error {
	summary.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "date"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

// Ensure GormDailySummaryRepository implements report.DailySummaryRepository
var _ report.DailySummaryRepository = (*GormDailySummaryRepository)(nil)
