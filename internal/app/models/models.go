package models

import (
	"time"

	"github.com/google/uuid"
)

type UserID = uuid.UUID

type RegisterUser struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Wallet кошелек покупателя
// balance оставлен для совместимости со старой схемой, новые операции его не трогают
type Wallet struct {
	Balance          int64 `json:"balance"`
	FrozenBalance    int64 `json:"frozen_balance"`
	AvailableBalance int64 `json:"available_balance"`
}

type WalletInfo struct {
	Wallet
	Transactions []WalletTransaction `json:"transactions"`
}

type TxType string

const (
	TxDeposit     TxType = "deposit"
	TxWithdraw    TxType = "withdraw"
	TxRefund      TxType = "refund"
	TxDebt        TxType = "debt"
	TxDebtPaid    TxType = "debt_paid"
	TxDebtPayment TxType = "debt_payment"
)

type Metadata map[string]any

// Int64 достает числовое поле из метаданных
// после чтения из jsonb числа приходят как float64
func (m Metadata) Int64(key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// WalletTransaction запись в истории кошелька
// история append-only, меняется только остаток у записи типа debt по мере погашения
type WalletTransaction struct {
	ID         int64     `json:"id"`
	UserID     UserID    `json:"-"`
	Type       TxType    `json:"type"`
	Amount     int64     `json:"amount"`
	OrderID    *OrderID  `json:"order_id,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreateTime time.Time `json:"created_at"`
}
