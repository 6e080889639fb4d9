package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomflow/internal/analytics"
	"ecomflow/internal/manifest"
	"ecomflow/internal/model"
	"ecomflow/internal/sink"
	"ecomflow/internal/storage"
)

type recordingSink struct {
	mu     sync.Mutex
	events []sink.Event
}

func (r *recordingSink) Append(_ context.Context, e sink.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type recordingPublisher struct {
	manifests []manifest.Manifest
}

func (r *recordingPublisher) Publish(_ context.Context, m manifest.Manifest) error {
	r.manifests = append(r.manifests, m)
	return nil
}

const ordersHeader = "order_id,order_date,customer_id,customer_name,product_id,product_name,quantity,price,status\n"

type harness struct {
	store    *storage.InMemoryStore
	svc      *Service
	rejects  *recordingSink
	reports  *recordingSink
	manifest *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    storage.NewInMemoryStore(),
		rejects:  &recordingSink{},
		reports:  &recordingSink{},
		manifest: &recordingPublisher{},
	}
	h.svc = NewService(h.store,
		WithRejectSink(h.rejects),
		WithReportSink(h.reports),
		WithManifests(h.manifest),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	return h
}

func (h *harness) land(t *testing.T, rt model.RecordType, date time.Time, csv string) {
	t.Helper()
	require.NoError(t, h.store.Put(context.Background(), storage.DayKey(storage.ZoneRaw, string(rt), date), []byte(csv)))
}

// landOrders writes one order per "customer:product:qty:price".
func (h *harness) landOrders(t *testing.T, date time.Time, firstID int, lines ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString(ordersHeader)
	for i, line := range lines {
		var c, p, q int
		var price string
		parts := strings.Split(line, ":")
		require.Len(t, parts, 4)
		fmt.Sscan(parts[0], &c)
		fmt.Sscan(parts[1], &p)
		fmt.Sscan(parts[2], &q)
		price = parts[3]
		fmt.Fprintf(&b, "%d,%s,%d,Client %d,%d,Produit %d,%d,%s,livrée\n", firstID+i, date.Format(model.DateLayout), c, c, p, p, q, price)
	}
	h.land(t, model.Orders, date, b.String())
}

func (h *harness) process(t *testing.T, dates ...time.Time) {
	t.Helper()
	ctx := context.Background()
	for _, d := range dates {
		_, err := h.svc.Clean(ctx, d, model.Orders)
		require.NoError(t, err)
		_, err = h.svc.Enrich(ctx, d, model.Orders)
		require.NoError(t, err)
	}
}

func TestDailyStock_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 3)
	h.land(t, model.Orders, day, ordersHeader+
		"1,2024-05-03,10,Alice,1,Clavier,3,20,livrée\n"+
		"2,2024-05-03,11,Bob,4,Souris,5,10,livrée\n"+
		"3,2024-05-03,12,Carl,1,Clavier,1,20,livrée\n"+
		"2,2024-05-03,11,Bob,4,Souris,5,10,livrée\n"+
		"4,2024-05-03,13,Dana,4,Souris,-2,10,annulée\n")

	rep, err := h.svc.Clean(ctx, day, model.Orders)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, StageResult{
		RecordType: model.Orders, RowsIn: 5, RowsOut: 3, Rejected: 1, Duplicates: 1,
		ArtifactKey: "clean/orders/2024/5/3",
	}, rep.Results[0])
	require.Len(t, h.rejects.events, 1)
	assert.Equal(t, sink.KindRejection, h.rejects.events[0].Kind)
	assert.Equal(t, rep.RunID, h.rejects.events[0].RunID)
	assert.Contains(t, string(h.rejects.events[0].Payload), `"reason":"bad_quantity"`)

	_, err = h.svc.Enrich(ctx, day, model.Orders)
	require.NoError(t, err)

	rows, err := h.svc.DailyStock(ctx, day, analytics.Stocks{1: 100, 4: 200, 10: 140})
	require.NoError(t, err)
	assert.Equal(t, []model.StockRow{
		{ProductID: 1, StockInitial: 100, QuantiteVendue: 4, StockRestant: 96},
		{ProductID: 4, StockInitial: 200, QuantiteVendue: 5, StockRestant: 195},
		{ProductID: 10, StockInitial: 140, QuantiteVendue: 0, StockRestant: 140},
	}, rows)

	ok, err := h.store.Exists(ctx, storage.DayKey(storage.ZoneAnalytics, KindStock, day))
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, h.reports.events)
	assert.Equal(t, StageStock, h.reports.events[len(h.reports.events)-1].Stage)

	stages := map[string]int{}
	for _, m := range h.manifest.manifests {
		stages[m.Stage]++
		assert.NotEmpty(t, m.RunID)
	}
	assert.Equal(t, map[string]int{StageClean: 1, StageEnrich: 1, StageStock: 1}, stages)
}

func TestDailyStock_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 3)

	_, err := h.svc.DailyStock(ctx, day, analytics.Stocks{1: 5})
	assert.True(t, errors.Is(err, model.ErrMissingSource))

	_, err = h.svc.DailyStock(ctx, day, analytics.Stocks{1: -5})
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput), "stock map is checked before data")
}

func TestCleanEnrich_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 4)
	h.landOrders(t, day, 1, "1:1:2:9.99", "2:2:7:149.50", "3:1:1:0.5", "1:3:4:12.00")
	h.land(t, model.Clients, day, "customer_id,customer_name,email,registration_date\n1,Alice,ALICE@gmail.com,2024-01-02\n2,Bob,bob@hotmail.fr,\n")
	h.land(t, model.Products, day, "product_id,product_name,price\n1,Clavier,9.99\n2,Écran large,149.5\n")

	artifacts := func() map[string][]byte {
		out := map[string][]byte{}
		for _, zone := range []storage.Zone{storage.ZoneClean, storage.ZoneEnriched} {
			for _, rt := range model.AllRecordTypes {
				key := storage.DayKey(zone, string(rt), day)
				data, err := h.store.Get(ctx, key)
				require.NoError(t, err)
				out[key.String()] = data
			}
		}
		return out
	}

	for i := 0; i < 2; i++ {
		rep, err := h.svc.Clean(ctx, day)
		require.NoError(t, err)
		assert.Len(t, rep.Results, 3)
		_, err = h.svc.Enrich(ctx, day)
		require.NoError(t, err)
	}
	first := artifacts()
	_, err := h.svc.Clean(ctx, day)
	require.NoError(t, err)
	_, err = h.svc.Enrich(ctx, day)
	require.NoError(t, err)
	second := artifacts()

	require.Len(t, first, 6)
	for k, v := range first {
		assert.True(t, bytes.Equal(v, second[k]), "artifact %s changed between runs", k)
	}
}

func TestClean_Conditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 5)

	_, err := h.svc.Clean(ctx, day)
	assert.True(t, errors.Is(err, model.ErrMissingSource), "nothing to clean")

	h.landOrders(t, day, 1, "1:1:1:10")
	h.land(t, model.Products, day, "")
	rep, err := h.svc.Clean(ctx, day)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	require.Len(t, rep.Conditions, 2)
	kinds := []string{rep.Conditions[0].Kind, rep.Conditions[1].Kind}
	assert.ElementsMatch(t, []string{model.ConditionMissingSource, model.ConditionEmptyDataset}, kinds)

	_, err = h.svc.Clean(ctx, day, model.Clients)
	assert.True(t, errors.Is(err, model.ErrMissingSource), "explicit type fails on its own source")

	h.land(t, model.Orders, day, "order_id,price\n1,10\n")
	_, err = h.svc.Clean(ctx, day, model.Orders)
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}

func TestClean_MalformedLineIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 3)
	h.land(t, model.Orders, day, ordersHeader+
		"1,2024-05-03,10,Alice,1,Clavier,1,20,livrée\n"+
		"2,2024-05-03,11,\"B\"x,1,Clavier,1,20,livrée\n"+
		"3,2024-05-03,12,Carl,1,Clavier,2,20,livrée\n")
	h.land(t, model.Products, day, "product_id,product_name,price\n")

	rep, err := h.svc.Clean(ctx, day)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, 3, rep.Results[0].RowsIn)
	assert.Equal(t, 2, rep.Results[0].RowsOut)
	assert.Equal(t, 1, rep.Results[0].Rejected)
	require.Len(t, h.rejects.events, 1)
	assert.Contains(t, string(h.rejects.events[0].Payload), `"reason":"malformed_row"`)
	assert.Contains(t, string(h.rejects.events[0].Payload), `"line":3`)

	var kinds []string
	for _, c := range rep.Conditions {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, model.ConditionEmptyDataset, "a header without rows is an empty dataset")
}

func TestEnrich_MissingClean(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Enrich(context.Background(), model.Date(2024, 5, 5), model.Orders)
	assert.True(t, errors.Is(err, model.ErrMissingSource))
}

func TestDailySummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := model.Date(2024, 5, 4)

	_, err := h.svc.DailySummary(ctx, day)
	assert.True(t, errors.Is(err, model.ErrMissingSource))

	h.landOrders(t, day, 1, "1:1:5:10", "2:2:1:30")
	h.process(t, day)
	sum, err := h.svc.DailySummary(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalOrders)
	assert.True(t, decimal.NewFromInt(80).Equal(sum.TotalRevenue))
	assert.Equal(t, 100.0, sum.WeekendOrdersPct)
	assert.Equal(t, 50.0, sum.BulkOrdersPct)

	ok, err := h.store.Exists(ctx, storage.DayKey(storage.ZoneEnriched, KindDailySummary, day))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewCustomers_FullHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d1, d2, d3, d4 := model.Date(2024, 5, 1), model.Date(2024, 5, 2), model.Date(2024, 5, 3), model.Date(2024, 5, 4)
	h.landOrders(t, d1, 1, "1:1:1:10", "2:1:1:10")
	h.landOrders(t, d2, 10, "2:1:1:10", "3:1:2:15", "3:2:1:5")
	h.landOrders(t, d4, 20, "1:1:1:10", "4:1:1:7.25")
	h.process(t, d1, d2, d4)

	rows, err := h.svc.NewCustomers(ctx, d2, d4)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, d2, rows[0].Date)
	assert.Equal(t, int64(1), rows[0].NouveauxClients, "customer 2 ordered before the range")
	assert.True(t, decimal.NewFromInt(35).Equal(rows[0].RevenusNouveauxClients))
	assert.Equal(t, model.NewCustomersRow{Date: d3}, rows[1])
	assert.Equal(t, int64(1), rows[2].NouveauxClients)
	assert.Equal(t, "7.25", rows[2].RevenusNouveauxClients.String())

	var total int64
	for _, r := range rows {
		total += r.NouveauxClients
	}
	assert.Equal(t, int64(2), total)

	_, err = h.svc.NewCustomers(ctx, d4, d1)
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}

func TestMonthlyRevenue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var days []time.Time
	id := 1
	// 29 orders over 10 days: 28 at 127.63 and one at 127.70
	for d := 1; d <= 10; d++ {
		day := model.Date(2024, 5, d)
		var lines []string
		n := 3
		if d > 8 {
			n = 2
		}
		for i := 0; i < n; i++ {
			lines = append(lines, fmt.Sprintf("%d:1:1:127.63", id))
		}
		if d == 10 {
			lines = append(lines, fmt.Sprintf("%d:1:1:127.70", id))
		}
		h.landOrders(t, day, id, lines...)
		id += len(lines)
		days = append(days, day)
	}
	h.process(t, days...)

	rep, err := h.svc.MonthlyRevenue(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, "3701.34", rep.CATotal.StringFixed(2))
	assert.Equal(t, int64(29), rep.NombreCommandes)
	assert.Equal(t, "127.63", rep.Rounded().PanierMoyen.StringFixed(2))
	assert.Equal(t, int64(10), rep.JoursAvecCommandes)
	assert.Equal(t, model.Date(2024, 5, 10), rep.MeilleurJour.Date)
	assert.Equal(t, model.Date(2024, 5, 9), rep.PireJour.Date)

	empty, err := h.svc.MonthlyRevenue(ctx, 2024, 6)
	require.NoError(t, err)
	assert.True(t, empty.Empty)

	_, err = h.svc.MonthlyRevenue(ctx, 2024, 0)
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}

func TestComprehensiveReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d1, d2, d3 := model.Date(2024, 4, 30), model.Date(2024, 5, 1), model.Date(2024, 5, 2)
	h.landOrders(t, d1, 1, "1:1:2:10")
	h.landOrders(t, d2, 10, "2:1:1:10", "1:2:3:5")
	h.process(t, d1, d2)

	rep, err := h.svc.ComprehensiveReport(ctx, d1, d3, analytics.Stocks{1: 10})
	require.NoError(t, err)
	require.Len(t, rep.Stock, 2)
	assert.Equal(t, int64(8), rep.Stock[0].Rows[0].StockRestant)
	assert.Equal(t, int64(9), rep.Stock[1].Rows[0].StockRestant)
	assert.True(t, rep.Stock[1].Rows[1].Unmanaged)

	require.Len(t, rep.NewCustomers, 3)
	assert.Equal(t, int64(1), rep.NewCustomers[0].NouveauxClients)
	assert.Equal(t, int64(1), rep.NewCustomers[1].NouveauxClients)

	require.Len(t, rep.Monthly, 2)
	assert.Equal(t, 4, rep.Monthly[0].Mois)
	assert.Equal(t, 5, rep.Monthly[1].Mois)
	assert.Equal(t, "25", rep.Monthly[1].CATotal.String())

	require.Len(t, rep.Conditions, 2)
	for _, c := range rep.Conditions {
		assert.Equal(t, d3, c.Date)
		assert.Equal(t, model.ConditionMissingSource, c.Kind)
	}

	_, err = h.svc.ComprehensiveReport(ctx, d1, d3, analytics.Stocks{1: -1})
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}
