// Package ledger чистая арифметика операций с кошельком: план отката
// возврата, план погашения долга депозитом, обмен замороженного баланса.
// Планы исполняет storage одной транзакцией, здесь только вычисления.
package ledger

import (
	"github.com/serg2014/go-chatshop/internal/app/models"
	"github.com/shopspring/decimal"
)

// Reversal сколько списываем с доступного баланса и сколько вешаем долгом
type Reversal struct {
	Spent int64
	Debt  int64
}

// PlanReversal распределяет сумму отката между доступным балансом и долгом.
// Списываем min(amount, available), но не ниже нуля этим шагом: если баланс
// уже отрицательный (старый долг), весь откат уходит в новый долг.
func PlanReversal(available, amount int64) Reversal {
	spent := min(amount, available)
	if spent < 0 {
		spent = 0
	}
	return Reversal{
		Spent: spent,
		Debt:  amount - spent,
	}
}

// DebtUpdate изменение одной записи долга при погашении
type DebtUpdate struct {
	ID int64
	// Amount новое значение, двигается от отрицательного к нулю
	Amount int64
	// Paid накопленная сумма погашения, пишется в metadata
	Paid int64
	// FullyPaid запись перетегируется в debt_paid
	FullyPaid bool
}

// Repayment итог погашения долгов депозитом
type Repayment struct {
	Updates []DebtUpdate
	// Applied ушло на погашение долгов
	Applied int64
	// Remainder зачисляется на доступный баланс обычным депозитом
	Remainder int64
}

// PlanRepayment гасит долги депозитом, записи обходятся от старых к новым.
// Остаток депозита после всех долгов идет на доступный баланс.
func PlanRepayment(debts []models.WalletTransaction, deposit int64) Repayment {
	rest := deposit
	plan := Repayment{}
	for _, d := range debts {
		if rest == 0 {
			break
		}
		owe := -d.Amount
		if owe <= 0 {
			continue
		}
		pay := min(owe, rest)
		rest -= pay
		plan.Applied += pay
		plan.Updates = append(plan.Updates, DebtUpdate{
			ID:        d.ID,
			Amount:    d.Amount + pay,
			Paid:      d.Metadata.Int64("paid") + pay,
			FullyPaid: d.Amount+pay == 0,
		})
	}
	plan.Remainder = rest
	return plan
}

// ExchangeCredit сколько доступного баланса дает обмен замороженной суммы.
// Курс приходит снаружи, результат усекается до целых минорных единиц
// (IntPart, округление к нулю).
func ExchangeCredit(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).IntPart()
}
