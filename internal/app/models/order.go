package models

import "time"

type OrderStatus string

const (
	OrderNew                OrderStatus = "new"
	OrderPending            OrderStatus = "pending"
	OrderConfirmed          OrderStatus = "confirmed"
	OrderWaitingCodeRequest OrderStatus = "waiting_code_request"
	OrderWaiting            OrderStatus = "waiting"
	OrderCompleted          OrderStatus = "completed"
	OrderCanceled           OrderStatus = "canceled"
	// OrderManyback возврат в процессе, можно откатить обратно в completed
	OrderManyback OrderStatus = "manyback"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

type OrderID = string

type Order struct {
	OrderID           OrderID           `json:"order_id"`
	UserID            UserID            `json:"-"`
	Items             map[string]uint32 `json:"items"`
	Total             int64             `json:"total"`
	Email             *string           `json:"email,omitempty"`
	Code              *string           `json:"code,omitempty"`
	CodeRequested     bool              `json:"code_requested"`
	WrongCodeAttempts int               `json:"wrong_code_attempts"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	PaymentRef        *string           `json:"payment_ref,omitempty"`
	Status            OrderStatus       `json:"status"`
	RefundAmount      *int64            `json:"refund_amount,omitempty"`
	UploadTime        time.Time         `json:"uploaded_at"`
}

type Orders []Order
