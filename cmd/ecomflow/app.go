package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ecomflow/internal/config"
	"ecomflow/internal/logging"
	"ecomflow/internal/manifest"
	"ecomflow/internal/model"
	"ecomflow/internal/pipeline"
	"ecomflow/internal/sink"
	"ecomflow/internal/storage"
)

// application holds the wired dependencies of one command invocation.
type application struct {
	cfg     *config.Config
	logger  *slog.Logger
	svc     *pipeline.Service
	store   storage.Store
	closers []io.Closer
	out     io.Writer
}

var app *application

func newApp(configPath, backend, root string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if root != "" {
		cfg.Storage.Root = root
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	a := &application{cfg: cfg, logger: logger, out: os.Stdout, closers: []io.Closer{logCloser}}

	store, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, Root: cfg.Storage.Root, Dir: cfg.Storage.Dir})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = store

	rejects, reports, err := sinks(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, rejects, reports)

	var pubs []manifest.Publisher
	if cfg.Sinks.ManifestDir != "" {
		pubs = append(pubs, manifest.NewFilesystemManifest(cfg.Sinks.ManifestDir))
	}
	if cfg.Kafka.Bootstrap != "" && cfg.Kafka.ManifestTopic != "" {
		km := manifest.NewKafkaManifest(cfg.Kafka.Bootstrap, cfg.Kafka.ManifestTopic)
		pubs = append(pubs, km)
		a.closers = append(a.closers, km)
	}

	a.svc = pipeline.NewService(store,
		pipeline.WithRejectSink(rejects),
		pipeline.WithReportSink(reports),
		pipeline.WithManifests(manifest.MultiPublisher(pubs...)),
		pipeline.WithLogger(logger))
	logger.Debug("ecomflow configured",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("root", cfg.Storage.Root),
		slog.Bool("kafka", cfg.Kafka.Bootstrap != ""))
	return a, nil
}

func sinks(cfg *config.Config) (*sink.MultiWriter, *sink.MultiWriter, error) {
	var rejects, reports []sink.Writer
	if cfg.Sinks.Dir != "" {
		rw, err := sink.NewFileWriter(cfg.Sinks.Dir, cfg.Sinks.RejectsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("rejects sink: %w", err)
		}
		pw, err := sink.NewFileWriter(cfg.Sinks.Dir, cfg.Sinks.ReportsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("reports sink: %w", err)
		}
		rejects, reports = append(rejects, rw), append(reports, pw)
	}
	if cfg.Kafka.Bootstrap != "" {
		if cfg.Kafka.RejectsTopic != "" {
			rejects = append(rejects, sink.NewKafkaWriter(cfg.Kafka.Bootstrap, cfg.Kafka.RejectsTopic))
		}
		if cfg.Kafka.ReportsTopic != "" {
			reports = append(reports, sink.NewKafkaWriter(cfg.Kafka.Bootstrap, cfg.Kafka.ReportsTopic))
		}
	}
	return sink.NewMultiWriter(rejects...), sink.NewMultiWriter(reports...), nil
}

// Close dumps metrics when configured and releases every resource.
func (a *application) Close() error {
	var errs []error
	if a.svc != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.svc.Metrics().WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	a.svc = nil
	return errors.Join(errs...)
}

func (a *application) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrMisconfiguredInput):
		return 2
	case errors.Is(err, model.ErrMissingSource):
		return 3
	case errors.Is(err, model.ErrEmptyDataset):
		return 4
	}
	return 1
}
