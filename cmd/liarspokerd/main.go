// liarspokerd serves staked liar's poker sessions over websockets.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/internal/cache"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/config"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/database"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/game"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
	ssync "github.com/swarnasn29/LiarsPoker-SOL/internal/sync"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ws"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	log := logrus.NewEntry(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store ledger.Store
	if cfg.DatabaseDSN != "" {
		pg, err := database.Connect(ctx, cfg.DatabaseDSN, log)
		if err != nil {
			log.WithError(err).Fatal("postgres connect failed")
		}
		defer pg.Close()
		store = pg
		log.Info("ledger: postgres")
	} else {
		store = ledger.NewMemoryStore()
		log.Warn("ledger: in-memory, state is lost on restart")
	}

	var notifier cache.Notifier
	var actions cache.ActionLogger = cache.NopActionLogger{}
	if cfg.RedisAddr != "" {
		rd := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err := rd.Ping(ctx); err != nil {
			log.WithError(err).Fatal("redis connect failed")
		}
		defer rd.Close()
		notifier = rd
		actions = rd
		log.Info("notifier: redis")
	} else {
		notifier = cache.NewBus()
		log.Info("notifier: in-process bus")
	}

	ctrl := game.New(store, notifier, actions, log)
	projector := ssync.NewProjector(store, notifier, log)
	gateway := ws.NewGateway(ctrl, projector, []byte(cfg.JWTSecret), log)

	reaper := game.NewReaper(ctrl, store, cfg.SessionTTL, cfg.ReapInterval, log)
	go reaper.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
}
