package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/stock"
	"github.com/backoffice/settlement/internal/infrastructure/persistence/models"
)

// GormLotRepository implements stock.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Lot, error) {
	var model models.LotModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByVariant returns the lots of one product variant in one warehouse,
// oldest first
func (r *GormLotRepository) FindByVariant(ctx context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	return r.findVariant(ctx, r.db, companyID, productID, variantID, warehouseID)
}

// FindForAllocation behaves like FindByVariant but takes FOR UPDATE row
// locks so concurrent allocations of the same variant serialize
func (r *GormLotRepository) FindForAllocation(ctx context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	locked := r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	return r.findVariant(ctx, locked, companyID, productID, variantID, warehouseID)
}

func (r *GormLotRepository) findVariant(ctx context.Context, db *gorm.DB, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	query := db.WithContext(ctx).
		Where("company_id = ? AND product_id = ? AND warehouse_id = ?", companyID, productID, warehouseID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}

	var lotModels []models.LotModel
	if err := query.Order("created_at ASC, id ASC").Find(&lotModels).Error; err != nil {
		return nil, err
	}

	lots := make([]*stock.Lot, len(lotModels))
	for i := range lotModels {
		lots[i] = lotModels[i].ToDomain()
	}
	return lots, nil
}

// Save upserts a lot
func (r *GormLotRepository) Save(ctx context.Context, lot *stock.Lot) error {
	model := models.LotModelFromDomain(lot)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// SaveAll upserts a batch of lots
func (r *GormLotRepository) SaveAll(ctx context.Context, lots []*stock.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	lotModels := make([]*models.LotModel, len(lots))
	for i, lot := range lots {
		lotModels[i] = models.LotModelFromDomain(lot)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(lotModels).Error
}

// Delete removes a lot
func (r *GormLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.LotModel{}).Error
}

// Ensure GormLotRepository implements stock.LotRepository
var _ stock.LotRepository = (*GormLotRepository)(nil)
