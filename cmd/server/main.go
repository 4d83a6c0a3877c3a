package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/config"
	"github.com/mmynk/splitbill/internal/ledger"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/service"
	"github.com/mmynk/splitbill/internal/settlement"
	"github.com/mmynk/splitbill/internal/storage/sqlite"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
	"github.com/mmynk/splitbill/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	locker, closeLocker, err := newLocker(cfg, m)
	if err != nil {
		return err
	}
	defer closeLocker()

	reg := registry.New(store, locker)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewBillServiceHandler(service.NewBillService(reg, m), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(ledger.New(store, reg, locker, m), m), interceptors))
	mux.Handle(apiconnect.NewSettlementServiceHandler(service.NewSettlementService(settlement.NewAggregator(reg, store), m), interceptors))
	mux.Handle("GET /metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS (needed by gRPC clients)
	handler := h2c.NewHandler(middleware.LogRequests(middleware.CORS(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "lock_backend", cfg.LockBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newLocker builds the configured bill lock backend.
func newLocker(cfg config.Config, m *metrics.Metrics) (lock.Locker, func(), error) {
	switch cfg.LockBackend {
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}

		opts := lock.DefaultRedisOptions()
		opts.Timeout = cfg.LockTimeout
		slog.Info("Using redis bill locks", "addr", cfg.RedisAddr)
		return lock.NewRedis(client, opts, m), func() { client.Close() }, nil
	default:
		return lock.NewLocal(cfg.LockTimeout, m), func() {}, nil
	}
}
