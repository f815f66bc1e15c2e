package ledger

import (
	"testing"

	"github.com/serg2014/go-chatshop/internal/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReversal(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		amount    int64
		want      Reversal
	}{
		{
			name:      "fully covered",
			available: 1000,
			amount:    600,
			want:      Reversal{Spent: 600, Debt: 0},
		},
		{
			name:      "exactly to zero",
			available: 600,
			amount:    600,
			want:      Reversal{Spent: 600, Debt: 0},
		},
		{
			// сценарий: возврат 600 при балансе 200 - списываем 200, долг 400
			name:      "partial cover",
			available: 200,
			amount:    600,
			want:      Reversal{Spent: 200, Debt: 400},
		},
		{
			name:      "empty wallet",
			available: 0,
			amount:    600,
			want:      Reversal{Spent: 0, Debt: 600},
		},
		{
			// баланс уже в минусе из-за старого долга, ниже этим шагом не уводим
			name:      "negative balance",
			available: -100,
			amount:    600,
			want:      Reversal{Spent: 0, Debt: 600},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanReversal(tt.available, tt.amount)
			assert.Equal(t, tt.want, got)
			// сумма списания и долга всегда равна сумме возврата
			assert.Equal(t, tt.amount, got.Spent+got.Debt)
		})
	}
}

func debt(id, amount int64) models.WalletTransaction {
	return models.WalletTransaction{
		ID:       id,
		Type:     models.TxDebt,
		Amount:   amount,
		Metadata: models.Metadata{"debt": true},
	}
}

func TestPlanRepayment(t *testing.T) {
	t.Run("no debt", func(t *testing.T) {
		plan := PlanRepayment(nil, 500)
		assert.Empty(t, plan.Updates)
		assert.Equal(t, int64(0), plan.Applied)
		assert.Equal(t, int64(500), plan.Remainder)
	})

	t.Run("deposit less than debt", func(t *testing.T) {
		plan := PlanRepayment([]models.WalletTransaction{debt(1, -400)}, 300)
		require.Len(t, plan.Updates, 1)
		assert.Equal(t, DebtUpdate{ID: 1, Amount: -100, Paid: 300, FullyPaid: false}, plan.Updates[0])
		// весь депозит уходит в долг, на баланс ничего
		assert.Equal(t, int64(300), plan.Applied)
		assert.Equal(t, int64(0), plan.Remainder)
	})

	t.Run("deposit more than debt", func(t *testing.T) {
		plan := PlanRepayment([]models.WalletTransaction{debt(1, -400)}, 1000)
		require.Len(t, plan.Updates, 1)
		assert.Equal(t, DebtUpdate{ID: 1, Amount: 0, Paid: 400, FullyPaid: true}, plan.Updates[0])
		assert.Equal(t, int64(400), plan.Applied)
		// остаток зачисляется как обычный депозит
		assert.Equal(t, int64(600), plan.Remainder)
	})

	t.Run("oldest first", func(t *testing.T) {
		debts := []models.WalletTransaction{debt(1, -300), debt(2, -200)}
		plan := PlanRepayment(debts, 350)
		require.Len(t, plan.Updates, 2)
		// первый долг закрыт полностью
		assert.Equal(t, DebtUpdate{ID: 1, Amount: 0, Paid: 300, FullyPaid: true}, plan.Updates[0])
		// второй частично
		assert.Equal(t, DebtUpdate{ID: 2, Amount: -150, Paid: 50, FullyPaid: false}, plan.Updates[1])
		assert.Equal(t, int64(350), plan.Applied)
		assert.Equal(t, int64(0), plan.Remainder)
	})

	t.Run("partial repayment accumulates", func(t *testing.T) {
		d := debt(1, -250)
		d.Metadata["paid"] = int64(150)
		plan := PlanRepayment([]models.WalletTransaction{d}, 250)
		require.Len(t, plan.Updates, 1)
		assert.Equal(t, DebtUpdate{ID: 1, Amount: 0, Paid: 400, FullyPaid: true}, plan.Updates[0])
	})
}

func TestExchangeCredit(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   string
		want   int64
	}{
		{name: "one to one", amount: 600, rate: "1", want: 600},
		{name: "half", amount: 601, rate: "0.5", want: 300},
		{name: "truncate", amount: 100, rate: "0.333", want: 33},
		{name: "above one", amount: 100, rate: "1.1", want: 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ExchangeCredit(tt.amount, rate))
		})
	}
}
