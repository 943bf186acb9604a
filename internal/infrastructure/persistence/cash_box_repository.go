package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
	"github.com/backoffice/settlement/internal/infrastructure/persistence/models"
)

// GormCashBoxRepository implements treasury.CashBoxRepository using GORM
type GormCashBoxRepository struct {
	db *gorm.DB
}

// NewGormCashBoxRepository creates a new GormCashBoxRepository
func NewGormCashBoxRepository(db *gorm.DB) *GormCashBoxRepository {
	return &GormCashBoxRepository{db: db}
}

// FindByID finds a cash box by ID
func (r *GormCashBoxRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.CashBox, error) {
	var model models.CashBoxModel
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

// FindByIDForCompany finds a cash box by ID within a company
func (r *GormCashBoxRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*treasury.CashBox, error) {
	var model models.CashBoxModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDefaultForHolder resolves the default box of a holder within a company
func (r *GormCashBoxRepository) FindDefaultForHolder(ctx context.Context, companyID, holderID uuid.UUID) (*treasury.CashBox, error) {
	var model models.CashBoxModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND holder_id = ? AND is_default = ?", companyID, holderID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNoDefaultCashBox
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByHolder returns all boxes of a holder within a company
func (r *GormCashBoxRepository) FindByHolder(ctx context.Context, companyID, holderID uuid.UUID) ([]*treasury.CashBox, error) {
	var boxModels []models.CashBoxModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND holder_id = ?", companyID, holderID).
		Order("created_at ASC").
		Find(&boxModels).Error; err != nil {
		return nil, err
	}
	boxes := make([]*treasury.CashBox, len(boxModels))
	for i := range boxModels {
		boxes[i] = boxModels[i].ToDomain()
	}
	return boxes, nil
}

// FindForUpdate locks the box row for the surrounding transaction
func (r *GormCashBoxRepository) FindForUpdate(ctx context.Context, companyID, id uuid.UUID) (*treasury.CashBox, error) {
	var model models.CashBoxModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts a cash box. Making a box the default demotes any sibling
// default of the same holder.
func (r *GormCashBoxRepository) Save(ctx context.Context, box *treasury.CashBox) error {
	model := models.CashBoxModelFromDomain(box)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if model.IsDefault {
			if err := tx.Model(&models.CashBoxModel{}).
				Where("company_id = ? AND holder_id = ? AND id <> ?", model.CompanyID, model.HolderID, model.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
}

// Delete removes a cash box
func (r *GormCashBoxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CashBoxModel{}).Error
}

// Ensure GormCashBoxRepository implements treasury.CashBoxRepository
var _ treasury.CashBoxRepository = (*GormCashBoxRepository)(nil)
