package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/api"
	"github.com/vietanh2810/coffeeshop-api/internal/events"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := openDB(conf)
	if err != nil {
		return err
	}
	defer closeDB(gdb)

	if conf.Postgres != nil && conf.Postgres.AutoMigrate {
		if err = dao.InitTables(gdb); err != nil {
			return fmt.Errorf("failed to migrate database -> %w", err)
		}
	}

	rdb, err := openRedis(ctx, conf.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	publisher := events.NewPublisher(conf.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			zap.L().Warn("closing event publisher", zap.Error(err))
		}
	}()

	s, err := api.NewServer(conf, gdb, rdb, publisher)
	if err != nil {
		return fmt.Errorf("failed to build server -> %w", err)
	}

	go s.Hub.Run(ctx)
	if s.Relay != nil {
		go s.Relay.Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + conf.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}
