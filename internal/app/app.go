package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/serg2014/go-chatshop/internal/app/notify"
	"github.com/serg2014/go-chatshop/internal/app/payment"
	"github.com/serg2014/go-chatshop/internal/app/session"
	"github.com/serg2014/go-chatshop/internal/app/storage"
	"github.com/serg2014/go-chatshop/internal/config"
	"github.com/shopspring/decimal"
)

// OrdersPageLimit размер страницы операторского списка заказов
const OrdersPageLimit = 10

type App struct {
	config   *config.Config
	router   *chi.Mux
	store    storage.Storager
	notifier notify.Notifier
	sessions session.Store
	payments *payment.Client
	rate     decimal.Decimal
}

func NewApp(cnf *config.Config) (*App, error) {
	s, err := storage.NewStorage(context.Background(), cnf.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create NewStorage: %w", err)
	}
	// курс проверен в NewConfig
	rate, err := cnf.Rate()
	if err != nil {
		return nil, err
	}
	var notifier notify.Notifier = notify.Noop{}
	if cnf.NotifyAddress != "" {
		notifier = notify.NewChatNotifier(cnf.NotifyAddress, cnf.OperatorChat)
	}
	app := &App{
		config:   cnf,
		router:   chi.NewRouter(),
		store:    s,
		notifier: notifier,
		sessions: session.NewMemStore(cnf.SessionTTL),
		payments: payment.NewClient(cnf.PaymentAddress, cnf.PaymentSecret),
		rate:     rate,
	}
	app.setRoute()
	return app, nil
}

func (a *App) Address() string {
	return a.config.Address
}

func (a *App) GetRouter() *chi.Mux {
	return a.router
}

// CleanupSessions чистка протухших операторских сессий, зовется по тикеру
func (a *App) CleanupSessions(ctx context.Context, t time.Duration) error {
	return a.sessions.Cleanup(ctx)
}
