package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/serg2014/go-chatshop/internal/app/auth"
	usercontext "github.com/serg2014/go-chatshop/internal/app/context"
	"github.com/serg2014/go-chatshop/internal/app/lifecycle"
	"github.com/serg2014/go-chatshop/internal/app/models"
	"github.com/serg2014/go-chatshop/internal/app/payment"
	"github.com/serg2014/go-chatshop/internal/app/session"
	"github.com/serg2014/go-chatshop/internal/app/storage"
	"github.com/serg2014/go-chatshop/internal/logger"
	"go.uber.org/zap"
)

func (a *App) setRoute() {
	r := a.GetRouter()
	r.Use(logger.WithLogging)
	r.Use(gzipMiddleware)
	r.Use(auth.WithUserMiddleware)

	r.Get("/ping", a.ping())
	r.Post("/api/user/register", a.registerUser())
	r.Post("/api/user/login", a.authUser())
	r.Post("/api/payment/callback", a.paymentCallback())

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", a.createOrder())
		r.Post("/{orderID}/email", a.submitEmail())
		r.Post("/{orderID}/code", a.submitCode())
	})

	r.Route("/api/user/wallet", func(r chi.Router) {
		r.Get("/", a.wallet())
		r.Post("/exchange", a.exchange())
	})

	r.Route("/api/operator", func(r chi.Router) {
		r.Use(auth.OperatorMiddleware(a.config.OperatorKey))
		r.Get("/orders", a.listOrders())
		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Post("/request-code", a.requestCode())
			r.Post("/confirm-code", a.confirmCode())
			r.Post("/reject-code", a.rejectCode())
			r.Post("/complete", a.completeOrder())
			r.Post("/cancel", a.cancelOrder())
			r.Post("/refund", a.grantRefund())
			r.Post("/refund/reverse", a.reverseRefund())
		})
		r.Post("/users/{userID}/deposit", a.deposit())
	})
}

func simpleError(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	// порядок важен
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		logger.Log.Error("error encoding response", zap.Error(err))
	}
}

type resultResponse struct {
	Result string `json:"result"`
}

// domainError переводит доменные ошибки в статус и текст для клиента.
// Каждый отказ получает конкретную причину, молчаливых 500 для
// предвиденных случаев нет.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyDone):
		// повторная команда не ошибка, состояние уже нужное
		writeJSON(w, http.StatusOK, resultResponse{Result: "already done"})
	case errors.Is(err, lifecycle.ErrSupportNeeded):
		// не сбой: попытки кончились, клиента ведем в поддержку
		writeJSON(w, http.StatusConflict, resultResponse{Result: "support_needed"})
	case errors.Is(err, storage.ErrOrderNotFound):
		simpleError(w, http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrBadAmount):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrNotEnoughFrozen):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, lifecycle.ErrBadState),
		errors.Is(err, lifecycle.ErrNoEmail),
		errors.Is(err, lifecycle.ErrNoCode),
		errors.Is(err, lifecycle.ErrCodeNotRequested),
		errors.Is(err, lifecycle.ErrNeedForce),
		errors.Is(err, lifecycle.ErrRefundInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Log.Error("operation failed, state unchanged", zap.Error(err))
		simpleError(w, http.StatusInternalServerError)
	}
}

func (a *App) ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func (a *App) registerUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterUser
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			logger.Log.Debug("cannot decode request JSON body", zap.Error(err))
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Login == "" || req.Password == "" {
			http.Error(w, "empty login or password", http.StatusBadRequest)
			return
		}
		hashPassword := auth.SignPassword(req.Password)
		userIDPtr, err := a.store.CreateUser(r.Context(), req.Login, hashPassword)
		if err != nil {
			if errors.Is(err, storage.ErrUserExists) {
				http.Error(w, "user exists", http.StatusConflict)
				return
			}
			simpleError(w, http.StatusInternalServerError)
			return
		}
		setAuthCookie(*userIDPtr, w)
	}
}

func (a *App) authUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterUser
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			logger.Log.Debug("cannot decode request JSON body", zap.Error(err))
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Login == "" || req.Password == "" {
			http.Error(w, "empty login or password", http.StatusBadRequest)
			return
		}
		hashPassword := auth.SignPassword(req.Password)
		userIDPtr, err := a.store.GetUser(r.Context(), req.Login, hashPassword)
		if err != nil {
			if errors.Is(err, storage.ErrUserOrPassword) {
				simpleError(w, http.StatusUnauthorized)
				return
			}
			simpleError(w, http.StatusInternalServerError)
			return
		}
		setAuthCookie(*userIDPtr, w)
	}
}

func setAuthCookie(userID models.UserID, w http.ResponseWriter) {
	cookie := auth.CreateAuthCookie(userID)
	http.SetCookie(w, cookie)
}

type createOrderRequest struct {
	OrderID models.OrderID    `json:"order_id"`
	Items   map[string]uint32 `json:"items"`
	Total   int64             `json:"total"`
}

type createOrderResponse struct {
	OrderID    models.OrderID `json:"order_id"`
	PaymentURL string         `json:"payment_url"`
}

func (a *App) createOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := usercontext.GetUserID(r.Context())
		if err != nil {
			simpleError(w, http.StatusUnauthorized)
			return
		}
		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			logger.Log.Debug("cannot decode request JSON body", zap.Error(err))
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.OrderID == "" || len(req.Items) == 0 || req.Total < 1 {
			http.Error(w, "order_id, items and positive total are required", http.StatusBadRequest)
			return
		}

		order := models.Order{
			OrderID: req.OrderID,
			UserID:  *userID,
			Items:   req.Items,
			Total:   req.Total,
		}
		err = a.store.CreateOrder(r.Context(), order)
		if err != nil {
			if errors.Is(err, storage.ErrOrderExists) {
				http.Error(w, "order exists", http.StatusConflict)
				return
			}
			logger.Log.Error("failed CreateOrder", zap.Error(err))
			simpleError(w, http.StatusInternalServerError)
			return
		}
		a.notifier.NotifyOperator(fmt.Sprintf("new order %s, total %d", order.OrderID, order.Total))

		url, err := a.payments.Initiate(r.Context(), &order)
		if err != nil {
			// заказ создан, оплату можно переинициировать повторной командой
			logger.Log.Error("failed payment initiate", zap.Error(err), zap.String("order_id", order.OrderID))
			simpleError(w, http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, createOrderResponse{
			OrderID:    order.OrderID,
			PaymentURL: url,
		})
	}
}

type paymentCallbackRequest struct {
	OrderID    models.OrderID `json:"order_id"`
	Status     string         `json:"status"`
	PaymentRef string         `json:"payment_reference"`
	Signature  string         `json:"signature"`
}

func (a *App) paymentCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentCallbackRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			logger.Log.Debug("cannot decode request JSON body", zap.Error(err))
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		// в подпись входит все кроме самой подписи
		fields := map[string]string{
			"order_id":          req.OrderID,
			"status":            req.Status,
			"payment_reference": req.PaymentRef,
		}
		if !payment.Verify(fields, req.Signature, a.config.PaymentSecret) {
			logger.Log.Error("bad payment signature", zap.String("order_id", req.OrderID))
			simpleError(w, http.StatusForbidden)
			return
		}
		if req.Status != "confirmed" {
			// статус оплаты не откатывается, остальное игнорируем
			logger.Log.Info("skip payment callback", zap.String("status", req.Status))
			writeJSON(w, http.StatusOK, resultResponse{Result: "ignored"})
			return
		}

		_, err := a.store.ApplyOrderEvent(r.Context(), req.OrderID, func(o models.Order) (models.Order, error) {
			return lifecycle.ConfirmPayment(o, req.PaymentRef)
		})
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyOperator(fmt.Sprintf("order %s is paid", req.OrderID))
		writeJSON(w, http.StatusOK, resultResponse{Result: "ok"})
	}
}

// applyOwned переход разрешен только владельцу заказа,
// чужой заказ неотличим от несуществующего
func applyOwned(userID models.UserID, event func(models.Order) (models.Order, error)) func(models.Order) (models.Order, error) {
	return func(o models.Order) (models.Order, error) {
		if o.UserID != userID {
			return o, storage.ErrOrderNotFound
		}
		return event(o)
	}
}

type emailRequest struct {
	Email string `json:"email"`
}

func (a *App) submitEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := usercontext.GetUserID(r.Context())
		if err != nil {
			simpleError(w, http.StatusUnauthorized)
			return
		}
		var req emailRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil || req.Email == "" {
			http.Error(w, "email is required", http.StatusBadRequest)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		_, err = a.store.ApplyOrderEvent(r.Context(), orderID, applyOwned(*userID, func(o models.Order) (models.Order, error) {
			return lifecycle.SubmitEmail(o, req.Email)
		}))
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resultResponse{Result: "ok"})
	}
}

type codeRequest struct {
	Code string `json:"code"`
}

func (a *App) submitCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := usercontext.GetUserID(r.Context())
		if err != nil {
			simpleError(w, http.StatusUnauthorized)
			return
		}
		var req codeRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil || req.Code == "" {
			http.Error(w, "code is required", http.StatusBadRequest)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		_, err = a.store.ApplyOrderEvent(r.Context(), orderID, applyOwned(*userID, func(o models.Order) (models.Order, error) {
			return lifecycle.SubmitCode(o, req.Code)
		}))
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyOperator(fmt.Sprintf("order %s: customer submitted code", orderID))
		writeJSON(w, http.StatusOK, resultResponse{Result: "accepted"})
	}
}

func (a *App) wallet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := usercontext.GetUserID(r.Context())
		if err != nil {
			simpleError(w, http.StatusUnauthorized)
			return
		}
		info, err := a.store.Wallet(r.Context(), *userID)
		if err != nil {
			logger.Log.Error("failed Wallet", zap.Error(err))
			simpleError(w, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type exchangeResponse struct {
	Credited int64 `json:"credited"`
}

func (a *App) exchange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := usercontext.GetUserID(r.Context())
		if err != nil {
			simpleError(w, http.StatusUnauthorized)
			return
		}
		var req amountRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		credited, err := a.store.ExchangeFrozen(r.Context(), *userID, req.Amount, a.rate)
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyCustomer(*userID, fmt.Sprintf("exchanged %d frozen, credited %d", req.Amount, credited))
		writeJSON(w, http.StatusOK, exchangeResponse{Credited: credited})
	}
}

// listOrders постраничный список для оператора. Курсор страницы живет
// в операторской сессии: каждый вызов отдает следующую страницу,
// параметр reset=1 начинает сначала.
func (a *App) listOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Operator-Session")
		var s session.Session
		if key != "" && r.URL.Query().Get("reset") == "" {
			s, _ = a.sessions.Get(key)
		}
		orders, err := a.store.GetOrders(r.Context(), s.OrderOffset, OrdersPageLimit)
		if err != nil {
			logger.Log.Error("failed GetOrders", zap.Error(err))
			simpleError(w, http.StatusInternalServerError)
			return
		}
		if key != "" {
			s.OrderOffset += len(orders)
			a.sessions.Put(key, s)
		}
		if len(orders) == 0 {
			simpleError(w, http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// operatorOrderEvent общая обвязка операторских команд над заказом
func (a *App) operatorOrderEvent(event func(models.Order) (models.Order, error), done func(o *models.Order)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		order, err := a.store.ApplyOrderEvent(r.Context(), orderID, event)
		if err != nil {
			domainError(w, err)
			return
		}
		if done != nil {
			done(order)
		}
		writeJSON(w, http.StatusOK, resultResponse{Result: "ok"})
	}
}

func (a *App) requestCode() http.HandlerFunc {
	return a.operatorOrderEvent(lifecycle.RequestCode, func(o *models.Order) {
		a.notifier.NotifyCustomer(o.UserID, fmt.Sprintf("order %s: send your code", o.OrderID))
	})
}

func (a *App) confirmCode() http.HandlerFunc {
	return a.operatorOrderEvent(lifecycle.ConfirmCode, func(o *models.Order) {
		a.notifier.NotifyCustomer(o.UserID, fmt.Sprintf("order %s is completed", o.OrderID))
	})
}

func (a *App) rejectCode() http.HandlerFunc {
	return a.operatorOrderEvent(lifecycle.RejectCode, func(o *models.Order) {
		a.notifier.NotifyCustomer(o.UserID, fmt.Sprintf("order %s: code rejected", o.OrderID))
	})
}

type completeRequest struct {
	Force bool `json:"force"`
}

func (a *App) completeOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeRequest
		if r.ContentLength > 0 {
			dec := json.NewDecoder(r.Body)
			if err := dec.Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}
		a.operatorOrderEvent(func(o models.Order) (models.Order, error) {
			return lifecycle.ForceComplete(o, req.Force)
		}, func(o *models.Order) {
			a.notifier.NotifyCustomer(o.UserID, fmt.Sprintf("order %s is completed", o.OrderID))
		})(w, r)
	}
}

func (a *App) cancelOrder() http.HandlerFunc {
	return a.operatorOrderEvent(lifecycle.Cancel, func(o *models.Order) {
		a.notifier.NotifyCustomer(o.UserID, fmt.Sprintf("order %s is canceled", o.OrderID))
	})
}

func (a *App) grantRefund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req amountRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		order, err := a.store.GrantRefund(r.Context(), orderID, req.Amount)
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyCustomer(order.UserID,
			fmt.Sprintf("order %s: refund %d frozen on your wallet", order.OrderID, req.Amount))
		writeJSON(w, http.StatusOK, resultResponse{Result: "ok"})
	}
}

type reverseRefundResponse struct {
	Result string `json:"result"`
	Spent  int64  `json:"spent"`
	Debt   int64  `json:"debt"`
}

func (a *App) reverseRefund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		order, plan, err := a.store.ReverseRefund(r.Context(), orderID)
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyCustomer(order.UserID,
			fmt.Sprintf("order %s: refund reversed, %d withdrawn, %d debt", order.OrderID, plan.Spent, plan.Debt))
		writeJSON(w, http.StatusOK, reverseRefundResponse{
			Result: "ok",
			Spent:  plan.Spent,
			Debt:   plan.Debt,
		})
	}
}

type depositResponse struct {
	AppliedToDebt int64 `json:"applied_to_debt"`
	Credited      int64 `json:"credited"`
}

func (a *App) deposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "bad user id", http.StatusBadRequest)
			return
		}
		var req amountRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		plan, err := a.store.Deposit(r.Context(), userID, req.Amount)
		if err != nil {
			domainError(w, err)
			return
		}
		a.notifier.NotifyCustomer(userID,
			fmt.Sprintf("deposit %d: %d repaid debt, %d credited", req.Amount, plan.Applied, plan.Remainder))
		writeJSON(w, http.StatusOK, depositResponse{
			AppliedToDebt: plan.Applied,
			Credited:      plan.Remainder,
		})
	}
}
