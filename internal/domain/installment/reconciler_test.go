package installment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestPlan(t *testing.T, amounts ...string) *Plan {
	t.Helper()
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(d(a))
	}
	plan, err := NewPlan(uuid.New(), uuid.New(), uuid.New(), total)
	require.Nil(t, err)

	installments := make([]Installment, 0, len(amounts))
	due := time.Now()
	for i, a := range amounts {
		ins, ierr := NewInstallment(plan.ID, i+1, d(a), due.AddDate(0, i, 0))
		require.Nil(t, ierr)
		installments = append(installments, *ins)
	}
	require.Nil(t, plan.Schedule(installments))
	return plan
}

func TestInstallmentPay(t *testing.T) {
	t.Run("partial then full payment drives status", func(t *testing.T) {
		ins, err := NewInstallment(uuid.New(), 1, d("100"), time.Now())
		require.Nil(t, err)

		require.Nil(t, ins.Pay(d("40")))
		assert.Equal(t, InstallmentPartiallyPaid, ins.Status)
		assert.True(t, ins.PaidAmount().Equal(d("40")))

		require.Nil(t, ins.Pay(d("60")))
		assert.Equal(t, InstallmentPaid, ins.Status)
		assert.NotNil(t, ins.PaidAt)
	})

	t.Run("payment above remaining is rejected", func(t *testing.T) {
		ins, err := NewInstallment(uuid.New(), 1, d("100"), time.Now())
		require.Nil(t, err)

		perr := ins.Pay(d("101"))
		require.NotNil(t, perr)
		assert.Equal(t, "VALIDATION_FAILED", perr.Code)
		assert.True(t, ins.RemainingAmount.Equal(d("100")))
	})

	t.Run("reversal restores remaining and status", func(t *testing.T) {
		ins, err := NewInstallment(uuid.New(), 1, d("100"), time.Now())
		require.Nil(t, err)
		require.Nil(t, ins.Pay(d("100")))

		require.Nil(t, ins.Reverse(d("30")))
		assert.Equal(t, InstallmentPartiallyPaid, ins.Status)
		assert.Nil(t, ins.PaidAt)
		assert.NotNil(t, ins.Reverse(d("80")), "reversal past the scheduled amount must fail")
	})

	t.Run("cancelled installments are frozen", func(t *testing.T) {
		ins, err := NewInstallment(uuid.New(), 1, d("100"), time.Now())
		require.Nil(t, err)
		ins.Cancel()

		assert.NotNil(t, ins.Pay(d("10")))
		assert.NotNil(t, ins.Reverse(d("10")))
	})

	t.Run("overdue needs both unsettled state and past due date", func(t *testing.T) {
		now := time.Now()
		ins, err := NewInstallment(uuid.New(), 1, d("100"), now.Add(-time.Hour))
		require.Nil(t, err)
		assert.True(t, ins.IsOverdue(now))

		require.Nil(t, ins.Pay(d("100")))
		assert.False(t, ins.IsOverdue(now))
	})
}

func TestPlanSchedule(t *testing.T) {
	t.Run("amounts must sum to the plan total", func(t *testing.T) {
		plan, err := NewPlan(uuid.New(), uuid.New(), uuid.New(), d("300"))
		require.Nil(t, err)

		ins, ierr := NewInstallment(plan.ID, 1, d("100"), time.Now())
		require.Nil(t, ierr)
		serr := plan.Schedule([]Installment{*ins})
		require.NotNil(t, serr)
		assert.Equal(t, "VALIDATION_FAILED", serr.Code)
	})

	t.Run("cancel voids open installments but keeps paid ones", func(t *testing.T) {
		plan := newTestPlan(t, "100", "100")
		require.Nil(t, plan.Installments[0].Pay(d("100")))

		require.Nil(t, plan.Cancel())
		assert.Equal(t, InstallmentPaid, plan.Installments[0].Status)
		assert.Equal(t, InstallmentCancelled, plan.Installments[1].Status)
	})
}

func TestReconcile(t *testing.T) {
	t.Run("remaining is the sum over non-cancelled installments", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200", "300")
		require.Nil(t, plan.Installments[0].Pay(d("100")))
		require.Nil(t, plan.Installments[1].Pay(d("50")))
		plan.Installments[2].Cancel()

		result, err := Reconcile(plan)
		require.Nil(t, err)
		assert.True(t, result.Changed)
		assert.True(t, plan.RemainingAmount.Equal(d("150")), "remaining = %s", plan.RemainingAmount)
		assert.Equal(t, PlanPartiallyPaid, plan.Status)
		assert.Equal(t, 1, result.SettledInstallment)
		assert.Equal(t, 1, result.OpenInstallments)
	})

	t.Run("untouched schedule stays pending", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200")

		result, err := Reconcile(plan)
		require.Nil(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, PlanPending, plan.Status)
	})

	t.Run("settling every installment pays the plan", func(t *testing.T) {
		plan := newTestPlan(t, "100", "100")
		require.Nil(t, plan.Installments[0].Pay(d("100")))
		require.Nil(t, plan.Installments[1].Pay(d("100")))

		_, err := Reconcile(plan)
		require.Nil(t, err)
		assert.Equal(t, PlanPaid, plan.Status)
		assert.True(t, plan.RemainingAmount.IsZero())
	})

	t.Run("one paid installment makes the plan partially paid", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200")
		require.Nil(t, plan.Installments[0].Pay(d("100")))

		_, err := Reconcile(plan)
		require.Nil(t, err)
		assert.Equal(t, PlanPartiallyPaid, plan.Status)
		assert.True(t, plan.RemainingAmount.Equal(d("200")))
	})

	t.Run("paying all but a cancelled installment pays the plan", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200")
		require.Nil(t, plan.Installments[0].Pay(d("100")))
		plan.Installments[1].Cancel()

		_, err := Reconcile(plan)
		require.Nil(t, err)
		assert.Equal(t, PlanPaid, plan.Status)
		assert.True(t, plan.RemainingAmount.IsZero())
	})

	t.Run("all installments cancelled cancels the plan", func(t *testing.T) {
		plan := newTestPlan(t, "100", "100")
		plan.Installments[0].Cancel()
		plan.Installments[1].Cancel()

		_, err := Reconcile(plan)
		require.Nil(t, err)
		assert.Equal(t, PlanCancelled, plan.Status)
	})

	t.Run("reconciliation is idempotent", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200")
		require.Nil(t, plan.Installments[0].Pay(d("30")))

		first, err := Reconcile(plan)
		require.Nil(t, err)
		assert.True(t, first.Changed)

		second, err := Reconcile(plan)
		require.Nil(t, err)
		assert.False(t, second.Changed)
		assert.True(t, second.RemainingAmount.Equal(first.RemainingAmount))
	})

	t.Run("corrupted installment state is reported", func(t *testing.T) {
		plan := newTestPlan(t, "100")
		plan.Installments[0].RemainingAmount = d("-1")

		_, err := Reconcile(plan)
		require.NotNil(t, err)
		assert.Equal(t, "RECONCILIATION_FAILURE", err.Code)
	})

	t.Run("derived remaining never drifts under random mutation", func(t *testing.T) {
		plan := newTestPlan(t, "100", "200", "300", "400")
		rng := rand.New(rand.NewSource(42))

		for step := 0; step < 1000; step++ {
			ins := &plan.Installments[rng.Intn(len(plan.Installments))]
			switch rng.Intn(3) {
			case 0:
				if ins.Status != InstallmentCancelled && ins.RemainingAmount.IsPositive() {
					payable := ins.RemainingAmount.Mul(decimal.NewFromFloat(rng.Float64())).Round(2)
					if payable.IsPositive() {
						require.Nil(t, ins.Pay(payable))
					}
				}
			case 1:
				paid := ins.PaidAmount()
				if ins.Status != InstallmentCancelled && paid.IsPositive() {
					reversible := paid.Mul(decimal.NewFromFloat(rng.Float64())).Round(2)
					if reversible.IsPositive() {
						require.Nil(t, ins.Reverse(reversible))
					}
				}
			case 2:
				// occasionally cancel, at most one
				if step%397 == 0 && ins.Status != InstallmentCancelled {
					ins.Cancel()
				}
			}

			_, err := Reconcile(plan)
			require.Nil(t, err)

			expected := decimal.Zero
			for i := range plan.Installments {
				if plan.Installments[i].Status != InstallmentCancelled {
					expected = expected.Add(plan.Installments[i].RemainingAmount)
				}
			}
			require.True(t, plan.RemainingAmount.Equal(expected),
				"step %d: remaining %s != sum %s", step, plan.RemainingAmount, expected)
		}
	})
}
