package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/serg2014/go-chatshop/internal/app/models"
)

var (
	ErrHTTPNTooManyRequets     = errors.New("http 429")
	ErrHTTPInternalServerError = errors.New("http 500")
	ErrHTTPOther               = errors.New("http other")
	ErrTimeout                 = errors.New("timeout")
)

// Client клиент платежного шлюза. Ретраев нет: неудачная инициация
// возвращается как ошибка, повтор команды за оператором или покупателем.
type Client struct {
	address string
	secret  string
	client  *http.Client
}

func NewClient(address, secret string) *Client {
	return &Client{
		address: address,
		secret:  secret,
		client: &http.Client{
			// TODO timeout в конфиг
			Timeout: 5 * time.Second,
		},
	}
}

type initiateRequest struct {
	OrderID   models.OrderID `json:"order_id"`
	Amount    int64          `json:"amount"`
	Signature string         `json:"signature"`
}

type initiateResponse struct {
	URL string `json:"url"`
}

// Initiate регистрирует платеж в шлюзе и возвращает ссылку на оплату
func (c *Client) Initiate(ctx context.Context, order *models.Order) (string, error) {
	body := initiateRequest{
		OrderID: order.OrderID,
		Amount:  order.Total,
		Signature: Sign(map[string]string{
			"order_id": order.OrderID,
			"amount":   strconv.FormatInt(order.Total, 10),
		}, c.secret),
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed marshal initiate: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/payment/create", c.address)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("failed create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("failed post: %w", err)
	}
	defer response.Body.Close()

	statusToError := map[int]error{
		http.StatusOK:                  nil,
		http.StatusTooManyRequests:     ErrHTTPNTooManyRequets,
		http.StatusInternalServerError: ErrHTTPInternalServerError,
	}
	err, ok := statusToError[response.StatusCode]
	if !ok {
		err = ErrHTTPOther
	}
	if err != nil {
		return "", err
	}

	var data initiateResponse
	dec := json.NewDecoder(response.Body)
	if err := dec.Decode(&data); err != nil {
		if os.IsTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("bad json: %w", err)
	}
	return data.URL, nil
}
