// Package manifest records one run manifest per executed stage so operators can tell
// which artifact a run produced and how many rows it kept or dropped.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ecomflow/internal/model"
)

type Manifest struct {
	RunID       string `json:"runId"`
	Stage       string `json:"stage"`
	RecordType  string `json:"recordType,omitempty"`
	Period      string `json:"period"`
	RowsIn      int64  `json:"rowsIn"`
	RowsOut     int64  `json:"rowsOut"`
	Rejected    int64  `json:"rejected"`
	Duplicates  int64  `json:"duplicates"`
	ArtifactKey string `json:"artifactKey,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// Key identifies the latest manifest of a stage, record type and period.
func (m Manifest) Key() string {
	parts := []string{m.Stage}
	if m.RecordType != "" {
		parts = append(parts, m.RecordType)
	}
	return strings.Join(append(parts, m.Period), "/")
}

// NowUnix is replaceable in tests.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

// NewRunID returns a random run identifier.
func NewRunID() string { return uuid.NewString() }

func stamp(m Manifest) Manifest {
	if m.CreatedAt == 0 {
		m.CreatedAt = NowUnix()
	}
	return m
}

type Publisher interface {
	Publish(ctx context.Context, m Manifest) error
}

// MultiPublisherImpl writes to multiple publishers sequentially.
type MultiPublisherImpl struct {
	pubs []Publisher
}

func MultiPublisher(pubs ...Publisher) Publisher {
	return &MultiPublisherImpl{pubs: pubs}
}

func (m *MultiPublisherImpl) Publish(ctx context.Context, mf Manifest) error {
	mf = stamp(mf)
	for _, p := range m.pubs {
		if err := p.Publish(ctx, mf); err != nil {
			return err
		}
	}
	return nil
}

type Reader interface {
	ReadLatest(stage, recordType, period string) (Manifest, error)
}

// FilesystemManifest keeps the latest manifest per key as a JSON file and appends every
// manifest to runs.jsonl.
type FilesystemManifest struct {
	baseDir string
}

func NewFilesystemManifest(baseDir string) *FilesystemManifest {
	return &FilesystemManifest{baseDir: baseDir}
}

func (f *FilesystemManifest) latestPath(key string) string {
	return filepath.Join(f.baseDir, strings.ReplaceAll(key, "/", "_")+".latest.json")
}

func (f *FilesystemManifest) Publish(_ context.Context, m Manifest) error {
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	m = stamp(m)
	out, err := os.Create(f.latestPath(m.Key()))
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	log, err := os.OpenFile(filepath.Join(f.baseDir, "runs.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer log.Close()
	if err := json.NewEncoder(log).Encode(&m); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

func (f *FilesystemManifest) ReadLatest(stage, recordType, period string) (Manifest, error) {
	key := Manifest{Stage: stage, RecordType: recordType, Period: period}.Key()
	data, err := os.ReadFile(f.latestPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: no manifest for %s", model.ErrMissingSource, key)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}

// KafkaManifest publishes manifests as compacted Kafka records keyed by Manifest.Key.
type KafkaManifest struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaManifest creates a Kafka manifest publisher.
// bootstrap can be comma-separated brokers.
func NewKafkaManifest(bootstrap string, topic string) *KafkaManifest {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		if a = strings.TrimSpace(a); a != "" {
			brokers = append(brokers, a)
		}
	}
	return &KafkaManifest{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaManifestWith is only for tests to inject a fake writer.
func NewKafkaManifestWith(w kafkaMessageWriter) *KafkaManifest {
	return &KafkaManifest{writer: w}
}

func (k *KafkaManifest) Publish(ctx context.Context, m Manifest) error {
	m = stamp(m)
	b, err := json.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(m.Key()), Value: b})
}

func (k *KafkaManifest) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
