package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/classpick/classpick-backend/internal/config"
	"github.com/classpick/classpick-backend/internal/draw"
	"github.com/classpick/classpick-backend/internal/httpapi"
	"github.com/classpick/classpick-backend/internal/hub"
	"github.com/classpick/classpick-backend/internal/room"
	"github.com/classpick/classpick-backend/internal/roster"
	"github.com/classpick/classpick-backend/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := mustLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	store, err := roster.Load(cfg.RosterPath)
	if err != nil {
		logger.Fatal("loading roster", zap.String("path", cfg.RosterPath), zap.Error(err))
	}
	messages, err := roster.LoadMessages(cfg.MessagesPath)
	if err != nil {
		logger.Fatal("loading messages", zap.String("path", cfg.MessagesPath), zap.Error(err))
	}
	logger.Info("rosters loaded", zap.Int("classes", len(store.Classes())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := session.Env{
		Rng:      draw.NewTimeSeeded(),
		Messages: messages,
	}
	h := hub.New(ctx, env, room.Config{FrameInterval: cfg.FrameInterval}, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, store, logger),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func mustLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
