// Package lifecycle содержит чистую логику переходов статусов заказа
// и политику проверки кода выдачи. Функции не ходят в базу: они получают
// снимок заказа и возвращают измененную копию либо ошибку. Применяет
// переходы слой storage внутри транзакции с блокировкой строки заказа,
// поэтому проверка предусловия и запись атомарны.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/serg2014/go-chatshop/internal/app/models"
)

// MaxWrongCodeAttempts после стольких отклоненных кодов очередная отправка
// блокируется до нового запроса кода оператором
const MaxWrongCodeAttempts = 2

var (
	// ErrAlreadyDone повторный вызов уже выполненной операции, не ошибка для клиента
	ErrAlreadyDone = errors.New("already done")
	// ErrSupportNeeded исчерпаны попытки ввода кода, дальше только через поддержку
	ErrSupportNeeded    = errors.New("support needed")
	ErrBadState         = errors.New("invalid order state")
	ErrBadAmount        = errors.New("invalid amount")
	ErrNoEmail          = errors.New("email is not set")
	ErrCodeNotRequested = errors.New("code is not requested")
	ErrNoCode           = errors.New("code is not submitted")
	// ErrNeedForce оператор запросил код, а покупатель его не прислал,
	// завершение требует явного подтверждения
	ErrNeedForce = errors.New("explicit force required")
	// ErrRefundInProgress заказ в статусе manyback, сначала надо завершить возврат
	ErrRefundInProgress = errors.New("refund in progress")
)

// ConfirmPayment отметка от платежного шлюза, статус оплаты не откатывается
func ConfirmPayment(o models.Order, paymentRef string) (models.Order, error) {
	if o.PaymentStatus == models.PaymentConfirmed {
		return o, ErrAlreadyDone
	}
	o.PaymentStatus = models.PaymentConfirmed
	o.PaymentRef = &paymentRef
	return o, nil
}

// SubmitEmail покупатель указывает почту для выдачи
func SubmitEmail(o models.Order, email string) (models.Order, error) {
	if email == "" {
		return o, fmt.Errorf("%w: empty email", ErrBadState)
	}
	if o.Status == models.OrderCompleted || o.Status == models.OrderCanceled {
		return o, fmt.Errorf("%w: order is %s", ErrBadState, o.Status)
	}
	o.Email = &email
	o.Status = models.OrderWaitingCodeRequest
	return o, nil
}

// RequestCode оператор открывает шаг ввода кода, счетчик ошибок сбрасывается
func RequestCode(o models.Order) (models.Order, error) {
	if o.Status == models.OrderCompleted {
		return o, fmt.Errorf("%w: order is completed", ErrBadState)
	}
	if o.Email == nil {
		return o, ErrNoEmail
	}
	o.Status = models.OrderWaitingCodeRequest
	o.CodeRequested = true
	o.WrongCodeAttempts = 0
	o.Code = nil
	return o, nil
}

// SubmitCode покупатель присылает код. Система не проверяет сам код:
// код выдается вне системы (по почте), правильность решает оператор.
// После MaxWrongCodeAttempts отклонений отправка блокируется без мутаций.
func SubmitCode(o models.Order, code string) (models.Order, error) {
	if o.WrongCodeAttempts >= MaxWrongCodeAttempts {
		return o, ErrSupportNeeded
	}
	if !o.CodeRequested {
		return o, ErrCodeNotRequested
	}
	if code == "" {
		return o, fmt.Errorf("%w: empty code", ErrBadState)
	}
	o.Code = &code
	o.Status = models.OrderWaiting
	return o, nil
}

// ConfirmCode оператор подтвердил код, заказ выдан
func ConfirmCode(o models.Order) (models.Order, error) {
	if o.Status == models.OrderCompleted {
		return o, ErrAlreadyDone
	}
	if o.Status != models.OrderWaiting || o.Code == nil {
		return o, ErrNoCode
	}
	o.Status = models.OrderCompleted
	return o, nil
}

// RejectCode оператор отклонил код, попытка засчитывается
func RejectCode(o models.Order) (models.Order, error) {
	o.WrongCodeAttempts++
	o.Code = nil
	o.CodeRequested = false
	o.Status = models.OrderWaiting
	return o, nil
}

// ForceComplete принудительное завершение оператором.
// Если код запрошен, но не прислан, нужен явный флаг force.
func ForceComplete(o models.Order, force bool) (models.Order, error) {
	if o.Status == models.OrderCompleted {
		return o, ErrAlreadyDone
	}
	if o.Status == models.OrderCanceled {
		return o, fmt.Errorf("%w: order is canceled", ErrBadState)
	}
	if o.CodeRequested && o.Code == nil && !force {
		return o, ErrNeedForce
	}
	o.Status = models.OrderCompleted
	return o, nil
}

// Cancel отмена заказа. Нельзя отменить завершенный заказ и заказ
// с незакрытым возвратом.
func Cancel(o models.Order) (models.Order, error) {
	if o.Status == models.OrderCanceled {
		return o, ErrAlreadyDone
	}
	if o.Status == models.OrderManyback {
		return o, ErrRefundInProgress
	}
	if o.Status == models.OrderCompleted {
		return o, fmt.Errorf("%w: order is completed", ErrBadState)
	}
	o.Status = models.OrderCanceled
	return o, nil
}

// GrantRefund оператор инициирует возврат. Сумма в пределах total,
// заказ должен быть оплачен и не в процессе другого возврата.
func GrantRefund(o models.Order, amount int64) (models.Order, error) {
	if o.Status == models.OrderManyback {
		return o, ErrRefundInProgress
	}
	if amount < 1 || amount > o.Total {
		return o, fmt.Errorf("%w: refund must be in [1, %d]", ErrBadAmount, o.Total)
	}
	if o.PaymentStatus != models.PaymentConfirmed {
		return o, fmt.Errorf("%w: payment is not confirmed", ErrBadState)
	}
	o.Status = models.OrderManyback
	o.RefundAmount = &amount
	return o, nil
}

// ReverseRefund откат возврата, заказ снова считается выданным
func ReverseRefund(o models.Order) (models.Order, error) {
	if o.Status != models.OrderManyback {
		if o.Status == models.OrderCompleted {
			return o, ErrAlreadyDone
		}
		return o, fmt.Errorf("%w: order is %s", ErrBadState, o.Status)
	}
	o.Status = models.OrderCompleted
	o.RefundAmount = nil
	return o, nil
}
