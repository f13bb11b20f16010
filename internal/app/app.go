package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/store"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Run запускает реплику storefront: store, восстанавливаемый из журнала действий, HTTP API
// со снимком состояния и gRPC сервис storefront.Replica с health. Завершается при отмене ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	replica := store.New(
		store.WithLogger(logger.WithField("layer", "store")),
		store.WithObserver(metrics.NewStoreMetrics()),
	)

	replay := startJournal(ctx, cfg, replica, logger.WithField("layer", "journal"))
	defer replay.stop(logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("journal", healthcheck.NewSimpleChecker("journal", replay.Check))

	httpSrv, _, err := startHTTPServer(ctx, cfg.HTTPAddr, newHTTPHandler(replica, healthHandler), logger)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}

	grpcServer, healthServer := newGRPCServer(replica, logger.WithField("layer", "grpc"))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(httpSrv, logger)
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем реплику")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(shutdownTimeout(cfg)):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(httpSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(httpSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func shutdownTimeout(cfg Config) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return cfg.ShutdownTimeout
}
