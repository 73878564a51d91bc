package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/directchat/internal/chat"
	"github.com/Tyrowin/directchat/internal/server"
	"github.com/Tyrowin/directchat/internal/session"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := server.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	if config.UsesDefaultSecret() {
		log.Warn("SESSION_SECRET is not set; sessions are signed with the development secret")
	}

	service := chat.NewService(log)
	sessions := session.NewManager(config.SessionSecret, config.SessionTTL)
	app := server.New(*config, service, sessions, log)
	app.Start()

	httpServer := server.CreateServer(config.Port, app.SetupRoutes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout, log); err != nil {
		log.Error("HTTP server did not shut down cleanly", "err", err)
	}
	if err := app.Hub().Shutdown(config.ShutdownTimeout); err != nil {
		log.Error("Hub did not shut down cleanly", "err", err)
	}
	log.Info("Server stopped cleanly")
	return nil
}
