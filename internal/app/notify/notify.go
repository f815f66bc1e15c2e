// Package notify канал уведомлений в чат. Отправка fire-and-forget:
// ошибки логируются и глотаются, доставка никогда не влияет на
// результат основной операции.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/serg2014/go-chatshop/internal/app/models"
	"github.com/serg2014/go-chatshop/internal/logger"
	"go.uber.org/zap"
)

type Notifier interface {
	NotifyOperator(text string)
	NotifyCustomer(userID models.UserID, text string)
}

type chatNotifier struct {
	address      string
	operatorChat string
	client       *http.Client
}

func NewChatNotifier(address, operatorChat string) Notifier {
	return &chatNotifier{
		address:      address,
		operatorChat: operatorChat,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type message struct {
	ChatID string         `json:"chat_id,omitempty"`
	UserID *models.UserID `json:"user_id,omitempty"`
	Text   string         `json:"text"`
}

func (n *chatNotifier) send(msg message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		buf, err := json.Marshal(msg)
		if err != nil {
			logger.Log.Error("failed marshal notify", zap.Error(err))
			return
		}
		endpoint := fmt.Sprintf("%s/sendMessage", n.address)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
		if err != nil {
			logger.Log.Error("failed create notify request", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		response, err := n.client.Do(req)
		if err != nil {
			logger.Log.Error("failed send notify", zap.Error(err))
			return
		}
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			logger.Log.Error("notify not delivered", zap.Int("status", response.StatusCode))
		}
	}()
}

func (n *chatNotifier) NotifyOperator(text string) {
	n.send(message{ChatID: n.operatorChat, Text: text})
}

func (n *chatNotifier) NotifyCustomer(userID models.UserID, text string) {
	n.send(message{UserID: &userID, Text: text})
}

// Noop для тестов и запуска без бота
type Noop struct{}

func (Noop) NotifyOperator(string)                {}
func (Noop) NotifyCustomer(models.UserID, string) {}
