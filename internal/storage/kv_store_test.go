package storage

import (
	"context"
	"testing"

	"ecomflow/internal/model"
)

func TestPebbleStore_Contract(t *testing.T) {
	st, err := NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func TestPebbleStore_ReopenKeepsArtifacts(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	k := DayKey(ZoneEnriched, "orders", model.Date(2024, 5, 3))
	if err := st.Put(context.Background(), k, []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble reopen: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	got, err := st.Get(context.Background(), k)
	if err != nil || string(got) != "payload" {
		t.Fatalf("after reopen: %q err=%v", got, err)
	}
}

func TestBadgerStore_Contract(t *testing.T) {
	st, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("badger open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func TestUpperBound(t *testing.T) {
	if got := string(upperBound([]byte("clean/orders/"))); got != "clean/orders0" {
		t.Fatalf("upper bound: %q", got)
	}
	if got := upperBound([]byte{0xff, 0xff}); got != nil {
		t.Fatalf("all 0xff prefix has no upper bound, got %v", got)
	}
}
