package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"hiretop/matching-service/internal/events"
	"hiretop/matching-service/internal/grpcserver"
	"hiretop/matching-service/internal/lifecycle"
	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/scheduler"
	"hiretop/matching-service/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC API, the health endpoint and the reminder cron",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	store := postgres.New(rt.pool)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	publisher := events.NewPublisher(rt.rdb, rt.cfg.EventPrefix)

	ranker := matching.NewRanker(store, rt.log.Named("matching"), rt.cfg.MaxPerPage)
	svc := lifecycle.NewService(store, publisher, rt.log.Named("lifecycle"))

	// ── gRPC server ─────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", ":"+rt.cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	defer lis.Close()
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcserver.UnaryLogger(rt.log.Named("grpc")),
		grpcserver.UnaryRecover(rt.log.Named("grpc")),
	))
	grpcserver.Register(gs, grpcserver.NewServer(ranker, svc, rt.log.Named("grpc")))

	// ── Health endpoint ─────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	hs := &http.Server{
		Addr:         ":" + rt.cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// ── Reminder cron ───────────────────────────────────────────────────────
	sched := scheduler.New(store, publisher, rt.log.Named("scheduler"), rt.cfg.ReminderSchedule, rt.cfg.ReminderHorizon)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("gRPC listening", zap.String("port", rt.cfg.GRPCPort), zap.String("version", version))
		return gs.Serve(lis)
	})
	g.Go(func() error {
		rt.log.Info("HTTP listening", zap.String("port", rt.cfg.HTTPPort))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		rt.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			rt.log.Warn("HTTP shutdown", zap.Error(err))
		}
		gs.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	rt.log.Info("stopped")
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": app,
		"version": version,
	})
}
