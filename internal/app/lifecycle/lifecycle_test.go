package lifecycle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/serg2014/go-chatshop/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder() models.Order {
	return models.Order{
		OrderID:       "order-1",
		UserID:        uuid.New(),
		Items:         map[string]uint32{"key-1": 1},
		Total:         1000,
		PaymentStatus: models.PaymentPending,
		Status:        models.OrderNew,
	}
}

func paidOrder() models.Order {
	o := newOrder()
	o.PaymentStatus = models.PaymentConfirmed
	return o
}

func ptr[T any](v T) *T {
	return &v
}

func TestConfirmPayment(t *testing.T) {
	o := newOrder()
	got, err := ConfirmPayment(o, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfirmed, got.PaymentStatus)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "pay-1", *got.PaymentRef)
	// статус самого заказа колбек не трогает
	assert.Equal(t, models.OrderNew, got.Status)

	// повторный колбек не дает ни мутации, ни ошибки клиенту
	again, err := ConfirmPayment(got, "pay-2")
	require.ErrorIs(t, err, ErrAlreadyDone)
	assert.Equal(t, got, again)
}

func TestSubmitEmail(t *testing.T) {
	o := newOrder()
	got, err := SubmitEmail(o, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaitingCodeRequest, got.Status)
	require.NotNil(t, got.Email)
	assert.Equal(t, "user@example.com", *got.Email)

	for _, status := range []models.OrderStatus{models.OrderCompleted, models.OrderCanceled} {
		o := newOrder()
		o.Status = status
		_, err := SubmitEmail(o, "user@example.com")
		assert.ErrorIs(t, err, ErrBadState)
	}
}

func TestRequestCode(t *testing.T) {
	o := newOrder()
	_, err := RequestCode(o)
	require.ErrorIs(t, err, ErrNoEmail)

	o.Email = ptr("user@example.com")
	o.WrongCodeAttempts = 2
	o.Code = ptr("1111")
	got, err := RequestCode(o)
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaitingCodeRequest, got.Status)
	assert.True(t, got.CodeRequested)
	// свежий запрос кода снимает блокировку и чистит старый код
	assert.Equal(t, 0, got.WrongCodeAttempts)
	assert.Nil(t, got.Code)

	o.Status = models.OrderCompleted
	_, err = RequestCode(o)
	assert.ErrorIs(t, err, ErrBadState)
}

func TestSubmitCode(t *testing.T) {
	o := newOrder()
	_, err := SubmitCode(o, "1234")
	require.ErrorIs(t, err, ErrCodeNotRequested)

	o.CodeRequested = true
	got, err := SubmitCode(o, "1234")
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaiting, got.Status)
	require.NotNil(t, got.Code)
	assert.Equal(t, "1234", *got.Code)
}

// TestCodeLockout после двух отклонений третья отправка блокируется
// без мутаций, новый запрос кода оператором сбрасывает счетчик
func TestCodeLockout(t *testing.T) {
	o := newOrder()
	o.Email = ptr("user@example.com")
	o, err := RequestCode(o)
	require.NoError(t, err)

	o, err = SubmitCode(o, "0000")
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaiting, o.Status)

	o, err = RejectCode(o)
	require.NoError(t, err)
	assert.Nil(t, o.Code)
	assert.False(t, o.CodeRequested)
	assert.Equal(t, 1, o.WrongCodeAttempts)

	// оператор может отклонить повторно и без новой отправки
	o, err = RejectCode(o)
	require.NoError(t, err)
	assert.Equal(t, MaxWrongCodeAttempts, o.WrongCodeAttempts)

	got, err := SubmitCode(o, "9999")
	require.ErrorIs(t, err, ErrSupportNeeded)
	assert.Equal(t, o, got)

	// оператор выдает новый код и отправка снова работает
	o, err = RequestCode(o)
	require.NoError(t, err)
	assert.Equal(t, 0, o.WrongCodeAttempts)
	o, err = SubmitCode(o, "4321")
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaiting, o.Status)
}

// TestLockoutScenario сценарий из жизни: одна ошибка уже была,
// отклонение доводит счетчик до предела
func TestLockoutScenario(t *testing.T) {
	o := newOrder()
	o.Email = ptr("user@example.com")
	o.CodeRequested = true
	o.WrongCodeAttempts = 1

	o, err := SubmitCode(o, "1234")
	require.NoError(t, err)
	assert.Equal(t, models.OrderWaiting, o.Status)

	o, err = RejectCode(o)
	require.NoError(t, err)
	assert.Equal(t, 2, o.WrongCodeAttempts)
	assert.Nil(t, o.Code)
	assert.Equal(t, models.OrderWaiting, o.Status)

	got, err := SubmitCode(o, "1234")
	require.ErrorIs(t, err, ErrSupportNeeded)
	assert.Equal(t, o, got)
}

func TestConfirmCode(t *testing.T) {
	o := newOrder()
	o.Status = models.OrderWaiting
	_, err := ConfirmCode(o)
	require.ErrorIs(t, err, ErrNoCode)

	o.Code = ptr("1234")
	got, err := ConfirmCode(o)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)

	// повторное подтверждение no-op
	_, err = ConfirmCode(got)
	assert.ErrorIs(t, err, ErrAlreadyDone)
}

func TestForceComplete(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(o *models.Order)
		force   bool
		wantErr error
	}{
		{
			name:    "plain order",
			prepare: func(o *models.Order) {},
		},
		{
			name: "code requested but not submitted needs force",
			prepare: func(o *models.Order) {
				o.CodeRequested = true
			},
			wantErr: ErrNeedForce,
		},
		{
			name: "force overrides missing code",
			prepare: func(o *models.Order) {
				o.CodeRequested = true
			},
			force: true,
		},
		{
			name: "already completed",
			prepare: func(o *models.Order) {
				o.Status = models.OrderCompleted
			},
			wantErr: ErrAlreadyDone,
		},
		{
			name: "canceled can not be completed",
			prepare: func(o *models.Order) {
				o.Status = models.OrderCanceled
			},
			wantErr: ErrBadState,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder()
			tt.prepare(&o)
			got, err := ForceComplete(o, tt.force)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.OrderCompleted, got.Status)
		})
	}
}

func TestCancel(t *testing.T) {
	o := newOrder()
	got, err := Cancel(o)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCanceled, got.Status)

	_, err = Cancel(got)
	assert.ErrorIs(t, err, ErrAlreadyDone)

	// завершенный заказ не отменить
	o = newOrder()
	o.Status = models.OrderCompleted
	_, err = Cancel(o)
	assert.ErrorIs(t, err, ErrBadState)

	// во время возврата отмена запрещена
	o = newOrder()
	o.Status = models.OrderManyback
	_, err = Cancel(o)
	assert.ErrorIs(t, err, ErrRefundInProgress)
}

func TestGrantRefund(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(o *models.Order)
		amount  int64
		wantErr error
	}{
		{
			name:    "full refund",
			prepare: func(o *models.Order) {},
			amount:  1000,
		},
		{
			name:    "partial refund",
			prepare: func(o *models.Order) {},
			amount:  600,
		},
		{
			name:    "zero amount",
			prepare: func(o *models.Order) {},
			amount:  0,
			wantErr: ErrBadAmount,
		},
		{
			name:    "more than total",
			prepare: func(o *models.Order) {},
			amount:  1001,
			wantErr: ErrBadAmount,
		},
		{
			name: "refund in progress",
			prepare: func(o *models.Order) {
				o.Status = models.OrderManyback
			},
			amount:  100,
			wantErr: ErrRefundInProgress,
		},
		{
			name: "payment not confirmed",
			prepare: func(o *models.Order) {
				o.PaymentStatus = models.PaymentPending
			},
			amount:  100,
			wantErr: ErrBadState,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := paidOrder()
			tt.prepare(&o)
			got, err := GrantRefund(o, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.OrderManyback, got.Status)
			require.NotNil(t, got.RefundAmount)
			assert.Equal(t, tt.amount, *got.RefundAmount)
		})
	}
}

func TestReverseRefund(t *testing.T) {
	o := paidOrder()
	o, err := GrantRefund(o, 600)
	require.NoError(t, err)

	got, err := ReverseRefund(o)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
	assert.Nil(t, got.RefundAmount)

	// откат уже откаченного возврата no-op
	_, err = ReverseRefund(got)
	assert.ErrorIs(t, err, ErrAlreadyDone)

	o = paidOrder()
	_, err = ReverseRefund(o)
	assert.ErrorIs(t, err, ErrBadState)
}
