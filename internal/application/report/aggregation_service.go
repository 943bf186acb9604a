package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
)

// DailySummaryModel is the pre-computed daily rollup of settled
// documents, keyed by (company, date).
type DailySummaryModel struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID      uuid.UUID       `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_daily_summary_company_date"`
	Date           time.Time       `gorm:"column:date;type:date;not null;uniqueIndex:idx_daily_summary_company_date"`
	InvoiceCount   int64           `gorm:"column:invoice_count;default:0"`
	SalesAmount    decimal.Decimal `gorm:"column:sales_amount;type:decimal(18,4);default:0"`
	PurchaseAmount decimal.Decimal `gorm:"column:purchase_amount;type:decimal(18,4);default:0"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:decimal(18,4);default:0"`
	CostAmount     decimal.Decimal `gorm:"column:cost_amount;type:decimal(18,4);default:0"`
	GrossProfit    decimal.Decimal `gorm:"column:gross_profit;type:decimal(18,4);default:0"`
	ComputedAt     time.Time       `gorm:"column:computed_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name for the daily summary
func (DailySummaryModel) TableName() string {
	return "report_daily_summary"
}

// DailySummaryRepository stores the pre-computed rollups.
type DailySummaryRepository interface {
	Get(ctx context.Context, companyID uuid.UUID, date time.Time) (*DailySummaryModel, error)
	GetRange(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]*DailySummaryModel, error)
	Save(ctx context.Context, summary *DailySummaryModel) error
}

// AggregationService maintains the daily summaries. Incremental
// updates flow in through ApplyInvoice when a document is first
// aggregated; RebuildDay recomputes a day from scratch and is the
// recovery path whenever the incremental figures are in doubt.
type AggregationService struct {
	summaryRepo DailySummaryRepository
	invoiceRepo invoicing.Repository
	logger      *zap.Logger
	now         func() time.Time
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(summaryRepo DailySummaryRepository, invoiceRepo invoicing.Repository, logger *zap.Logger) *AggregationService {
	return &AggregationService{
		summaryRepo: summaryRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// ApplyInvoice folds one settled document into its day. The caller
// guards idempotency through the invoice's aggregated flag; this
// method itself always adds.
func (s *AggregationService) ApplyInvoice(ctx context.Context, inv *invoicing.Invoice) error {
	day := truncateToDay(inv.IssueDate)
	summary, err := s.loadOrCreate(ctx, inv.CompanyID, day)
	if err != nil {
		return err
	}

	s.fold(summary, inv)
	summary.ComputedAt = s.now()
	if err := s.summaryRepo.Save(ctx, summary); err != nil {
		return fmt.Errorf("save daily summary: %w", err)
	}
	return nil
}

// RebuildDay recomputes one (company, date) rollup from the source
// documents. The derivation is absolute, so running it twice converges
// on the same figures.
func (s *AggregationService) RebuildDay(ctx context.Context, companyID uuid.UUID, date time.Time) (*DailySummaryModel, error) {
	day := truncateToDay(date)
	invoices, err := s.invoiceRepo.FindByIssueDate(ctx, companyID, day)
	if err != nil {
		return nil, fmt.Errorf("load invoices for %s: %w", day.Format("2006-01-02"), err)
	}

	summary, err := s.loadOrCreate(ctx, companyID, day)
	if err != nil {
		return nil, err
	}
	summary.InvoiceCount = 0
	summary.SalesAmount = decimal.Zero
	summary.PurchaseAmount = decimal.Zero
	summary.TaxAmount = decimal.Zero
	summary.CostAmount = decimal.Zero
	summary.GrossProfit = decimal.Zero

	for _, inv := range invoices {
		if inv.Status == invoicing.StatusDraft || inv.Status == invoicing.StatusCancelled {
			continue
		}
		s.fold(summary, inv)
		if inv.MarkAggregated() {
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				return nil, fmt.Errorf("save invoice flag: %w", err)
			}
		}
	}

	summary.ComputedAt = s.now()
	if err := s.summaryRepo.Save(ctx, summary); err != nil {
		return nil, fmt.Errorf("save daily summary: %w", err)
	}

	s.logger.Info("daily summary rebuilt",
		zap.String("company_id", companyID.String()),
		zap.String("date", day.Format("2006-01-02")),
		zap.Int64("invoice_count", summary.InvoiceCount))
	return summary, nil
}

// GetRange returns the rollups between two dates inclusive.
func (s *AggregationService) GetRange(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]*DailySummaryModel, error) {
	return s.summaryRepo.GetRange(ctx, companyID, truncateToDay(from), truncateToDay(to))
}

// fold adds one document's contribution to the summary. Sales add
// revenue, cost and profit; purchases add to the purchase column only.
func (s *AggregationService) fold(summary *DailySummaryModel, inv *invoicing.Invoice) {
	summary.InvoiceCount++
	summary.TaxAmount = summary.TaxAmount.Add(inv.TotalTax)
	if inv.Kind == invoicing.KindSale {
		cost := inv.TotalCost()
		summary.SalesAmount = summary.SalesAmount.Add(inv.NetAmount)
		summary.CostAmount = summary.CostAmount.Add(cost)
		summary.GrossProfit = summary.GrossProfit.Add(inv.NetAmount.Sub(inv.TotalTax).Sub(cost))
		return
	}
	summary.PurchaseAmount = summary.PurchaseAmount.Add(inv.NetAmount)
}

func (s *AggregationService) loadOrCreate(ctx context.Context, companyID uuid.UUID, day time.Time) (*DailySummaryModel, error) {
	summary, err := s.summaryRepo.Get(ctx, companyID, day)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("load daily summary: %w", err)
	}
	now := s.now()
	return &DailySummaryModel{
		ID:             uuid.New(),
		CompanyID:      companyID,
		Date:           day,
		SalesAmount:    decimal.Zero,
		PurchaseAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		CostAmount:     decimal.Zero,
		GrossProfit:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
