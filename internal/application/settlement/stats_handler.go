package settlement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/application/report"
	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
)

// StatsHandler keeps the daily summaries in step with settled
// documents. Confirmations and payments fold the document in exactly
// once, guarded by the invoice's aggregated flag; cancellations and
// re-settlements rebuild the affected day from scratch.
type StatsHandler struct {
	invoiceRepo invoicing.Repository
	aggregator  *report.AggregationService
	logger      *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(invoiceRepo invoicing.Repository, aggregator *report.AggregationService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		invoiceRepo: invoiceRepo,
		aggregator:  aggregator,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StatsHandler) EventTypes() []string {
	return []string{
		invoicing.EventTypeInvoiceConfirmed,
		invoicing.EventTypeInvoicePaymentRegistered,
		invoicing.EventTypeInvoiceCancelled,
	}
}

// Handle processes an invoice lifecycle event
func (h *StatsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	inv, err := h.invoiceRepo.FindByIDForCompany(ctx, event.CompanyID(), event.AggregateID())
	if err != nil {
		return fmt.Errorf("load invoice for stats: %w", err)
	}

	switch event.EventType() {
	case invoicing.EventTypeInvoiceCancelled:
		// A voided document already counted must leave the rollup, so
		// the whole day is rederived.
		if _, err := h.aggregator.RebuildDay(ctx, inv.CompanyID, inv.IssueDate); err != nil {
			return err
		}
		return nil

	case invoicing.EventTypeInvoicePaymentRegistered:
		// Amounts may have changed after the document was counted, so
		// the day is rederived instead of folded incrementally.
		_, err := h.aggregator.RebuildDay(ctx, inv.CompanyID, inv.IssueDate)
		return err

	default:
		if !inv.MarkAggregated() {
			h.logger.Debug("invoice already aggregated",
				zap.String("invoice_id", inv.ID.String()))
			return nil
		}
		if err := h.aggregator.ApplyInvoice(ctx, inv); err != nil {
			return err
		}
		if err := h.invoiceRepo.Save(ctx, inv); err != nil {
			return fmt.Errorf("save aggregated flag: %w", err)
		}
		return nil
	}
}

var _ shared.EventHandler = (*StatsHandler)(nil)
