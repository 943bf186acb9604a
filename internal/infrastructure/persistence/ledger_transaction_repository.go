package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
	"github.com/backoffice/settlement/internal/infrastructure/persistence/models"
)

// GormLedgerTransactionRepository implements treasury.TransactionRepository
// using GORM. Entries are append-only; the repository exposes no update
// or delete.
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewGormLedgerTransactionRepository creates a new GormLedgerTransactionRepository
func NewGormLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// FindByID finds a ledger transaction by ID
func (r *GormLedgerTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.Transaction, error) {
	var model models.LedgerTransactionModel
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

// FindByCashBox lists the transactions of one box, most recent first
func (r *GormLedgerTransactionRepository) FindByCashBox(ctx context.Context, companyID, cashBoxID uuid.UUID, filter shared.Filter) ([]*treasury.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND cash_box_id = ?", companyID, cashBoxID).
		Order("transaction_date DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var txModels []models.LedgerTransactionModel
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// FindBySource finds the transactions booked against one source document
func (r *GormLedgerTransactionRepository) FindBySource(ctx context.Context, companyID uuid.UUID, sourceType treasury.SourceType, sourceID string) ([]*treasury.Transaction, error) {
	var txModels []models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND source_type = ? AND source_id = ?", companyID, sourceType, sourceID).
		Order("transaction_date ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// FindByDateRange lists the transactions of one box within a date range
func (r *GormLedgerTransactionRepository) FindByDateRange(ctx context.Context, companyID, cashBoxID uuid.UUID, from, to time.Time) ([]*treasury.Transaction, error) {
	var txModels []models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND cash_box_id = ? AND transaction_date >= ? AND transaction_date <= ?",
			companyID, cashBoxID, from, to).
		Order("transaction_date ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// Save appends one ledger transaction
func (r *GormLedgerTransactionRepository) Save(ctx context.Context, tx *treasury.Transaction) error {
	model := models.LedgerTransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveAll appends a batch of ledger transactions
func (r *GormLedgerTransactionRepository) SaveAll(ctx context.Context, txs []*treasury.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	txModels := make([]*models.LedgerTransactionModel, len(txs))
	for i, tx := range txs {
		txModels[i] = models.LedgerTransactionModelFromDomain(tx)
	}
	return r.db.WithContext(ctx).Create(txModels).Error
}

func toDomainTransactions(txModels []models.LedgerTransactionModel) []*treasury.Transaction {
	txs := make([]*treasury.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs
}

// Ensure GormLedgerTransactionRepository implements treasury.TransactionRepository
var _ treasury.TransactionRepository = (*GormLedgerTransactionRepository)(nil)
