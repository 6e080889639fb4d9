package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"ecomflow/internal/config"
	"ecomflow/internal/ingest"
	"ecomflow/internal/logging"
	"ecomflow/internal/metrics"
	"ecomflow/internal/storage"
)

type source interface {
	ingest.Source
	Close() error
}

var openSource = func(cfg *config.Config) (source, error) {
	return ingest.NewKafkaSource(cfg.Kafka.Bootstrap, cfg.Kafka.GroupID, cfg.Kafka.RawTopic, time.Second)
}

func main() {
	var configPath, bootstrap, topic, addr string
	flag.StringVar(&configPath, "config", "", "YAML config file (default $ECOM_CONFIG_FILE)")
	flag.StringVar(&bootstrap, "bootstrap", "", "kafka bootstrap servers (overrides config)")
	flag.StringVar(&topic, "topic", "", "raw orders topic (overrides config)")
	flag.StringVar(&addr, "addr", "", "ops HTTP address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if bootstrap != "" {
		cfg.Kafka.Bootstrap = bootstrap
	}
	if topic != "" {
		cfg.Kafka.RawTopic = topic
	}
	if addr != "" {
		cfg.Ingest.Addr = addr
	}
	if cfg.Kafka.Bootstrap == "" {
		log.Fatalf("config: kafka bootstrap is required")
	}

	if err := run(cfg); err != nil {
		log.Printf("ingest: %v", err)
		os.Exit(1)
	}
}

// run owns every resource it opens; they are closed before it returns.
func run(cfg *config.Config) error {
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser.Close()

	st, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, Root: cfg.Storage.Root, Dir: cfg.Storage.Dir})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("close store", slog.String("err", err.Error()))
		}
	}()

	src, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	defer src.Close()

	reg := metrics.NewRegistry()
	lander := ingest.NewLander(st, reg, logger, cfg.Ingest.FlushRows, cfg.Ingest.FlushInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Ingest.Addr, Handler: router(reg), ReadHeaderTimeout: 5 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("ops server listening", slog.String("addr", cfg.Ingest.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	g.Go(func() error {
		logger.Info("ingest started",
			slog.String("bootstrap", cfg.Kafka.Bootstrap),
			slog.String("topic", cfg.Kafka.RawTopic),
			slog.String("backend", cfg.Storage.Backend))
		return lander.Run(gctx, src)
	})
	if err := g.Wait(); err != nil {
		logger.Error("ingest stopped", slog.String("err", err.Error()))
		return err
	}
	logger.Info("ingest stopped")
	return nil
}

func router(reg *metrics.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", reg.Handler())
	return r
}
