package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/infrastructure/persistence/models"
)

// GormPlanRepository implements installment.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by ID with its installments
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", sortInstallments).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForCompany finds a plan by ID within a company
func (r *GormPlanRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*installment.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", sortInstallments).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice finds the plan financing one invoice
func (r *GormPlanRepository) FindByInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) (*installment.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", sortInstallments).
		Where("company_id = ? AND invoice_id = ?", companyID, invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByCustomer returns the active plans of one customer
func (r *GormPlanRepository) FindActiveByCustomer(ctx context.Context, companyID, customerID uuid.UUID) ([]*installment.Plan, error) {
	var planModels []models.PlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", sortInstallments).
		Where("company_id = ? AND customer_id = ? AND status IN ?", companyID, customerID, installment.OpenPlanStatuses).
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// FindWithOverdue returns active plans holding at least one open
// installment past the given due date
func (r *GormPlanRepository) FindWithOverdue(ctx context.Context, companyID uuid.UUID, asOf time.Time) ([]*installment.Plan, error) {
	var planModels []models.PlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", sortInstallments).
		Where("company_id = ? AND status IN ?", companyID, installment.OpenPlanStatuses).
		Where("id IN (?)", r.db.Model(&models.InstallmentModel{}).
			Select("plan_id").
			Where("due_date < ? AND status IN ?", asOf, []installment.InstallmentStatus{
				installment.InstallmentPending,
				installment.InstallmentPartiallyPaid,
			})).
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// Save upserts the plan together with its installments
func (r *GormPlanRepository) Save(ctx context.Context, plan *installment.Plan) error {
	model := models.PlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", model.ID).
			Delete(&models.InstallmentModel{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Session(&gorm.Session{FullSaveAssociations: true}).
			Create(model).Error
	})
}

// Delete removes a plan and its installments
func (r *GormPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).
			Delete(&models.InstallmentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.PlanModel{}).Error
	})
}

func sortInstallments(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

func toDomainPlans(planModels []models.PlanModel) []*installment.Plan {
	plans := make([]*installment.Plan, len(planModels))
	for i := range planModels {
		plans[i] = planModels[i].ToDomain()
	}
	return plans
}

// Ensure GormPlanRepository implements installment.PlanRepository
var _ installment.PlanRepository = (*GormPlanRepository)(nil)
