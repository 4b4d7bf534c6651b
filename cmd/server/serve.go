package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/httpapi"
	"github.com/lectrix/buzzboard/internal/room"
	"github.com/lectrix/buzzboard/internal/session"
)

func run(parent context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port))
	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = "http://" + addr + "/"
	}

	tokens := session.NewRegistry(cfg.adminToken)
	loader := func(ref string) (board.Board, error) {
		return board.Load(cfg.boardsDir, ref)
	}
	rm := room.New(ctx, tokens, loader, logger.Named("room"))

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.SetupRoutes(rm, tokens, baseURL, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	logger.Info("listening", zap.String("addr", addr))
	fmt.Printf("\nAdmin interface: %sws?token=%s\n\n", baseURL, tokens.AdminToken())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		rm.Inbox() <- room.Shutdown{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
