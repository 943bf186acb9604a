package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/application/report"
	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
)

type summaryKey struct {
	companyID uuid.UUID
	date      time.Time
}

// memSummaryRepo is an in-memory report.DailySummaryRepository.
type memSummaryRepo struct {
	summaries map[summaryKey]*report.DailySummaryModel
}

func newMemSummaryRepo() *memSummaryRepo {
	return &memSummaryRepo{summaries: make(map[summaryKey]*report.DailySummaryModel)}
}

func (r *memSummaryRepo) Get(_ context.Context, companyID uuid.UUID, date time.Time) (*report.DailySummaryModel, error) {
	summary, ok := r.summaries[summaryKey{companyID, date}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return summary, nil
}

func (r *memSummaryRepo) GetRange(_ context.Context, companyID uuid.UUID, from, to time.Time) ([]*report.DailySummaryModel, error) {
	var result []*report.DailySummaryModel
	for key, summary := range r.summaries {
		if key.companyID == companyID && !key.date.Before(from) && !key.date.After(to) {
			result = append(result, summary)
		}
	}
	return result, nil
}

func (r *memSummaryRepo) Save(_ context.Context, summary *report.DailySummaryModel) error {
	r.summaries[summaryKey{summary.CompanyID, summary.Date}] = summary
	return nil
}

var _ report.DailySummaryRepository = (*memSummaryRepo)(nil)

type statsFixture struct {
	*fixture
	summaries *memSummaryRepo
	handler   *StatsHandler
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	f := newFixture(t)
	summaries := newMemSummaryRepo()
	invoiceRepo := &memInvoiceRepo{f.store}
	aggregator := report.NewAggregationService(summaries, invoiceRepo, zap.NewNop())
	return &statsFixture{
		fixture:   f,
		summaries: summaries,
		handler:   NewStatsHandler(invoiceRepo, aggregator, zap.NewNop()),
	}
}

func (f *statsFixture) summaryFor(t *testing.T, inv *invoicing.Invoice) *report.DailySummaryModel {
	t.Helper()
	day := time.Date(inv.IssueDate.Year(), inv.IssueDate.Month(), inv.IssueDate.Day(), 0, 0, 0, 0, time.UTC)
	summary, err := f.summaries.Get(context.Background(), inv.CompanyID, day)
	require.NoError(t, err)
	return summary
}

func TestStatsHandler_ConfirmFoldsOnce(t *testing.T) {
	f := newStatsFixture(t)
	f.addLot(t, "10", "40", 1)

	result, err := f.service.CreateInvoice(context.Background(), f.saleCommand("INV-1", "2", "100", "0"))
	require.NoError(t, err)
	inv := f.store.invoices[result.InvoiceID]

	event := invoicing.NewInvoiceConfirmedEvent(inv)
	require.NoError(t, f.handler.Handle(context.Background(), event))

	summary := f.summaryFor(t, inv)
	assert.Equal(t, int64(1), summary.InvoiceCount)
	assert.True(t, summary.SalesAmount.Equal(d("200")), summary.SalesAmount.String())
	assert.True(t, summary.CostAmount.Equal(d("80")), summary.CostAmount.String())
	assert.True(t, inv.IsAggregated)

	// Redelivery of the same event must not count the document twice
	require.NoError(t, f.handler.Handle(context.Background(), event))
	summary = f.summaryFor(t, inv)
	assert.Equal(t, int64(1), summary.InvoiceCount)
	assert.True(t, summary.SalesAmount.Equal(d("200")))
}

func TestStatsHandler_PaymentRebuildsDay(t *testing.T) {
	f := newStatsFixture(t)
	f.addLot(t, "10", "40", 1)

	result, err := f.service.CreateInvoice(context.Background(), f.saleCommand("INV-1", "2", "100", "0"))
	require.NoError(t, err)
	inv := f.store.invoices[result.InvoiceID]

	require.NoError(t, f.handler.Handle(context.Background(), invoicing.NewInvoiceConfirmedEvent(inv)))

	_, err = f.service.RegisterPayment(context.Background(), RegisterPaymentCommand{
		CompanyID: f.companyID,
		ActorID:   f.actorID,
		InvoiceID: inv.ID,
		Amount:    d("200"),
	})
	require.NoError(t, err)

	require.NoError(t, f.handler.Handle(context.Background(),
		invoicing.NewInvoicePaymentRegisteredEvent(inv, d("200"))))

	summary := f.summaryFor(t, inv)
	assert.Equal(t, int64(1), summary.InvoiceCount, "rebuild keeps exactly one fold")
	assert.True(t, summary.SalesAmount.Equal(d("200")))
	assert.True(t, f.store.invoices[inv.ID].IsAggregated, "rebuild re-marks the document")
}

func TestStatsHandler_CancelRemovesDocument(t *testing.T) {
	f := newStatsFixture(t)
	f.addLot(t, "10", "40", 1)

	result, err := f.service.CreateInvoice(context.Background(), f.saleCommand("INV-1", "2", "100", "0"))
	require.NoError(t, err)
	inv := f.store.invoices[result.InvoiceID]

	require.NoError(t, f.handler.Handle(context.Background(), invoicing.NewInvoiceConfirmedEvent(inv)))

	_, err = f.service.CancelInvoice(context.Background(), CancelInvoiceCommand{
		CompanyID: f.companyID,
		ActorID:   f.actorID,
		InvoiceID: inv.ID,
		Reason:    "mistyped quantity",
	})
	require.NoError(t, err)

	require.NoError(t, f.handler.Handle(context.Background(),
		invoicing.NewInvoiceCancelledEvent(f.store.invoices[inv.ID], "mistyped quantity")))

	summary := f.summaryFor(t, inv)
	assert.Equal(t, int64(0), summary.InvoiceCount)
	assert.True(t, summary.SalesAmount.IsZero())
}

func TestStatsHandler_UnknownInvoice(t *testing.T) {
	f := newStatsFixture(t)

	ghost, derr := invoicing.NewInvoice(f.companyID, f.customerID, "INV-404", invoicing.KindSale, time.Now())
	require.Nil(t, derr)

	err := f.handler.Handle(context.Background(), invoicing.NewInvoiceConfirmedEvent(ghost))
	assert.Error(t, err)
}
