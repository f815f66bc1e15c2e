package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/serg2014/go-chatshop/internal/app"
	"github.com/serg2014/go-chatshop/internal/config"
	"github.com/serg2014/go-chatshop/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cnf, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cnf.LogLevel); err != nil {
		log.Fatal(err)
	}
	a, err := app.NewApp(cnf)
	if err != nil {
		logger.Log.Fatal("error NewApp", zap.Error(err))
	}

	runServer(a.Address(), a.GetRouter(), cnf.SessionTTL, a.CleanupSessions)
}

func runServer(address string, h http.Handler, period time.Duration, f func(ctx context.Context, t time.Duration) error) {
	srv := http.Server{
		Addr:    address,
		Handler: h,
	}

	var wg sync.WaitGroup
	stopChannel := make(chan struct{})

	// чистка протухших операторских сессий
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(period)
		for {
			err := f(context.Background(), period)
			if err != nil {
				logger.Log.Error("failed cleanup", zap.Error(err))
			} else {
				logger.Log.Debug("cleanup done")
			}
			select {
			case <-ticker.C:
			case <-stopChannel:
				logger.Log.Info("Stop cleanup goroutine")
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		// создаем контекст, который будет отменен при получении сигнала
		ctxS, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		// 	ждем сигнала от ОС
		case <-ctxS.Done():
			logger.Log.Info("catch signal")
		// ждем закрытия канала
		case <-stopChannel:
			logger.Log.Info("stop")
		}

		// даем 5 секунд на завершение
		// TODO время в конфиг
		ctxT, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxT); err != nil {
			logger.Log.Info("Server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("Start server on %s", address))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Panic("error in ListenAndServe", zap.Error(err))
	}

	close(stopChannel)
	wg.Wait()
	logger.Log.Info("Server is shutdown")
}
