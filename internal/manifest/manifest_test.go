package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"

	"ecomflow/internal/model"
)

func TestPublishAndReadLatest(t *testing.T) {
	old := NowUnix
	NowUnix = func() int64 { return 1700000000 }
	t.Cleanup(func() { NowUnix = old })

	dir := t.TempDir()
	m := NewFilesystemManifest(dir)
	ctx := context.Background()
	first := Manifest{RunID: "r1", Stage: "clean", RecordType: "orders", Period: "2024/5/3", RowsIn: 10, RowsOut: 8, Rejected: 1, Duplicates: 1}
	second := first
	second.RunID, second.RowsOut = "r2", 9
	for _, mf := range []Manifest{first, second} {
		if err := m.Publish(ctx, mf); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}
	got, err := m.ReadLatest("clean", "orders", "2024/5/3")
	if err != nil {
		t.Fatalf("ReadLatest error: %v", err)
	}
	if got.RunID != "r2" || got.RowsOut != 9 || got.CreatedAt != 1700000000 {
		t.Fatalf("unexpected manifest: %+v", got)
	}

	f, err := os.Open(filepath.Join(dir, "runs.jsonl"))
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	defer f.Close()
	n := 0
	for s := bufio.NewScanner(f); s.Scan(); n++ {
		var mf Manifest
		if err := json.Unmarshal(s.Bytes(), &mf); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
	}
	if n != 2 {
		t.Fatalf("want 2 runs logged, got %d", n)
	}

	if _, err := m.ReadLatest("enrich", "orders", "2024/5/3"); !errors.Is(err, model.ErrMissingSource) {
		t.Fatalf("want missing source, got %v", err)
	}
}

func TestManifestKey(t *testing.T) {
	if k := (Manifest{Stage: "revenue", Period: "2024/5"}).Key(); k != "revenue/2024/5" {
		t.Fatalf("key: %s", k)
	}
	if k := (Manifest{Stage: "clean", RecordType: "clients", Period: "2024/5/3"}).Key(); k != "clean/clients/2024/5/3" {
		t.Fatalf("key: %s", k)
	}
	if NewRunID() == NewRunID() {
		t.Fatalf("run ids must differ")
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaManifest_Publish_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	km := NewKafkaManifestWith(fk)
	if err := km.Publish(context.Background(), Manifest{RunID: "abc", Stage: "stock", Period: "2024/5/3"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 msg, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != "stock/2024/5/3" {
		t.Fatalf("bad key: %s", string(fk.msgs[0].Key))
	}
	var got Manifest
	if err := json.Unmarshal(fk.msgs[0].Value, &got); err != nil || got.CreatedAt == 0 {
		t.Fatalf("bad value: %v %+v", err, got)
	}
}

func TestKafkaManifest_Publish_Fail(t *testing.T) {
	fk := &fakeKafkaWriter{fail: true}
	km := NewKafkaManifestWith(fk)
	if err := km.Publish(context.Background(), Manifest{Stage: "stock"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMultiPublisher(t *testing.T) {
	a, b := &fakeKafkaWriter{}, &fakeKafkaWriter{}
	p := MultiPublisher(NewKafkaManifestWith(a), NewKafkaManifestWith(b), NewFilesystemManifest(t.TempDir()))
	if err := p.Publish(context.Background(), Manifest{Stage: "clean", Period: "2024/5/3"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Fatalf("fan out: %d %d", len(a.msgs), len(b.msgs))
	}
}
