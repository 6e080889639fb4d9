package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_HandlerAndTextfile(t *testing.T) {
	r := NewRegistry()
	r.RowsIn.WithLabelValues("clean", "orders").Add(10)
	r.RowsRejected.WithLabelValues("orders", "bad_price").Inc()
	r.StageSeconds.WithLabelValues("clean").Observe(0.2)
	r.IngestLanded.Add(3)

	if got := testutil.ToFloat64(r.RowsIn.WithLabelValues("clean", "orders")); got != 10 {
		t.Fatalf("rows in: %v", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`ecomflow_rows_in_total{record_type="orders",stage="clean"} 10`,
		`ecomflow_rows_rejected_total{reason="bad_price",record_type="orders"} 1`,
		`ecomflow_ingest_landed_total 3`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}

	path := filepath.Join(t.TempDir(), "ecomflow.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "ecomflow_stage_duration_seconds_count") {
		t.Fatalf("textfile lacks histogram:\n%s", data)
	}
}
