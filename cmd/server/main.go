package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/supply-chain/internal/adapter/handler"
	"github.com/rl1809/supply-chain/internal/adapter/handler/rpc"
	"github.com/rl1809/supply-chain/internal/adapter/notify"
	"github.com/rl1809/supply-chain/internal/adapter/storage"
	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/core/service"
	"github.com/rl1809/supply-chain/internal/metrics"
	"github.com/rl1809/supply-chain/internal/platform/config"
	"github.com/rl1809/supply-chain/internal/platform/logger"
	"github.com/rl1809/supply-chain/internal/platform/tracing"
	"github.com/rl1809/supply-chain/internal/port"
)

// fundableLedger is a ledger that can be seeded with initial balances.
type fundableLedger interface {
	port.Ledger
	Fund(ctx context.Context, account domain.Address, amount uint64) error
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, err := tracing.Setup(cfg.TraceExporter)
	if err != nil {
		fatal(log, "failed to set up tracing", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}
	sinks := []service.NamedSink{{Name: "log", Sink: notify.NewLogSink(log)}}

	// Ledger and journal
	var (
		ledger fundableLedger
		db     *sql.DB
	)
	if cfg.MySQLDSN != "" {
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			fatal(log, "failed to connect mysql", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			fatal(log, "failed to ping mysql", err)
		}
		if cfg.MySQLAutoMigrate {
			if err := storage.EnsureSchema(ctx, db); err != nil {
				fatal(log, "failed to apply schema", err)
			}
		}
		log.Info("connected to mysql")

		mysqlLedger := storage.NewMySQLLedger(db)
		if err := mysqlLedger.OpenAccount(ctx, domain.Address(cfg.Escrow)); err != nil {
			fatal(log, "failed to open escrow account", err)
		}
		ledger = mysqlLedger

		journal := storage.NewMySQLJournal(db)
		opts = append(opts, service.WithJournal(journal))
		sinks = append(sinks, service.NamedSink{Name: "mysql", Sink: journal})
	} else {
		ledger = storage.NewMemoryLedger()
		log.Warn("no mysql dsn configured, ledger is in memory")
	}

	balances, err := cfg.Balances()
	if err != nil {
		fatal(log, "invalid initial balances", err)
	}
	for account, amount := range balances {
		if err := ledger.Fund(ctx, domain.Address(account), amount); err != nil {
			fatal(log, "failed to fund account", err)
		}
		log.Info("funded account", "account", account, "amount", amount)
	}

	// Redis idempotency and pub/sub
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal(log, "failed to connect redis", err)
		}
		log.Info("connected to redis")

		opts = append(opts, service.WithIdempotency(storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)))
		sinks = append(sinks, service.NamedSink{Name: "redis", Sink: notify.NewRedisPublisher(rdb, cfg.RedisChannel)})
	}

	// Kafka
	var kafka *notify.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			fatal(log, "failed to create kafka publisher", err)
		}
		sinks = append(sinks, service.NamedSink{Name: "kafka", Sink: kafka})
	}

	// Initialize service
	registry := service.NewService(ledger, domain.Address(cfg.Owner), domain.Address(cfg.Escrow), cfg.QueueSize, opts...)

	// Start dispatcher; a single worker keeps notifications in transition order
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.NewDispatcher(log, m, sinks...).Run(registry.Events())
	}()
	log.Info("started notification dispatcher", "sinks", len(sinks))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	rpc.RegisterRegistryServer(grpcServer, handler.NewGRPCHandler(registry))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		fatal(log, "failed to listen", err)
	}

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	router := chi.NewRouter()
	handler.NewHTTPHandler(registry, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	// Close event queue and wait for the dispatcher to drain it
	registry.Close()
	wg.Wait()
	log.Info("dispatcher stopped")

	if kafka != nil {
		kafka.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to flush traces", "error", err)
	}
	log.Info("connections closed")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
