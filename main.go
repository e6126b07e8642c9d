package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"labelme/api"
)

func setupLogger(level string) {
	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           log.InfoLevel,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
	})
	if parsed, err := log.ParseLevel(level); err == nil {
		handler.SetLevel(parsed)
	} else {
		handler.Warn("unknown log level, fallback to info", "level", level)
	}
	slog.SetDefault(slog.New(handler))
}

func Run(ctx context.Context, args Args) error {
	server, err := api.NewServer(ctx, args.ServerConfig)
	if err != nil {
		return err
	}
	defer server.Close()
	if err := server.Start(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              args.ServerConfig.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: args.ServerConfig.HTTP.ReadHeaderTimeout,
		IdleTimeout:       args.ServerConfig.HTTP.IdleTimeout,
	}
	httpServer.RegisterOnShutdown(server.CloseEvents)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		// Shutdown 會先關閉 SSE 訂閱，剩下的連線超過期限就強制關閉
		shutdownCtx, cancel := context.WithTimeout(context.Background(), args.ServerConfig.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Graceful shutdown timed out", "error", err)
			return httpServer.Close()
		}
		return nil
	})

	eg.Go(func() error {
		slog.Info("Starting labelme HTTP server", "addr", httpServer.Addr)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return eg.Wait()
}

func main() {
	args := ParseArgs()
	setupLogger(args.LogLevel)
	if err := args.Validate(); err != nil {
		slog.Error("Invalid arguments", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx, args); err != nil {
		slog.Error("labelme exited with error", "error", err)
		os.Exit(1)
	}
}
