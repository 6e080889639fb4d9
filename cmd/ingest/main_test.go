package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ecomflow/internal/config"
	"ecomflow/internal/ingest"
	"ecomflow/internal/metrics"
	"ecomflow/internal/storage"
)

func TestRouter(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.IngestLanded.Add(2)
	srv := httptest.NewServer(router(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	rec := httptest.NewRecorder()
	router(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ecomflow_ingest_landed_total 2") {
		t.Fatalf("metrics body:\n%s", rec.Body.String())
	}
}

type brokenSource struct{ closed bool }

func (s *brokenSource) Next(context.Context) (ingest.Message, bool, error) {
	return ingest.Message{}, false, errors.New("broker down")
}
func (s *brokenSource) Commit(context.Context) error { return nil }
func (s *brokenSource) Close() error {
	s.closed = true
	return nil
}

func TestRun_ClosesResourcesOnFailure(t *testing.T) {
	src := &brokenSource{}
	prev := openSource
	openSource = func(*config.Config) (source, error) { return src, nil }
	defer func() { openSource = prev }()

	cfg := config.Default()
	cfg.Storage.Backend = storage.BackendBadger
	cfg.Storage.Root = t.TempDir()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "ingest.log")
	cfg.Ingest.Addr = "127.0.0.1:0"

	if err := run(cfg); err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("want the consume error, got %v", err)
	}
	if !src.closed {
		t.Fatal("source left open")
	}
	st, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, Root: cfg.Storage.Root})
	if err != nil {
		t.Fatalf("store still locked after run: %v", err)
	}
	st.Close()
}
