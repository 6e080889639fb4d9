package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecomflow/internal/analytics"
	"ecomflow/internal/columnar"
	"ecomflow/internal/enrich"
	"ecomflow/internal/model"
	"ecomflow/internal/sink"
	"ecomflow/internal/storage"
)

// enrichedOrders loads the enriched orders of date.
func (s *Service) enrichedOrders(ctx context.Context, date time.Time) ([]model.EnrichedOrder, error) {
	key := storage.DayKey(storage.ZoneEnriched, string(model.Orders), date)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	rows, err := columnar.EnrichedOrders.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return rows, nil
}

// optionalEnrichedOrders is enrichedOrders where a missing partition reads as no orders.
func (s *Service) optionalEnrichedOrders(ctx context.Context, date time.Time) ([]model.EnrichedOrder, bool, error) {
	rows, err := s.enrichedOrders(ctx, date)
	if errors.Is(err, model.ErrMissingSource) {
		return nil, false, nil
	}
	return rows, err == nil, err
}

func persistReport[T any](ctx context.Context, s *Service, stage string, key storage.Key, codec *columnar.Codec[T], rows []T, payload any) error {
	data, err := codec.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", stage, err)
	}
	if err := s.put(ctx, key, data); err != nil {
		return err
	}
	if err := s.publish(ctx, s.reports, sink.KindReport, stage, key, payload); err != nil {
		return err
	}
	return s.manifest(ctx, stage, "", key, 0, len(rows), 0, 0)
}

// DailySummary computes the headline figures of date from its enriched orders and
// persists them next to the enriched partition.
func (s *Service) DailySummary(ctx context.Context, date time.Time) (sum model.DailySummary, err error) {
	ctx, _ = s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, StageSummary, started, err) }(time.Now())

	date = model.Day(date)
	orders, err := s.enrichedOrders(ctx, date)
	if err != nil {
		return sum, fmt.Errorf("summary %s: %w", date.Format(model.DateLayout), err)
	}
	sum = enrich.Summarize(date, orders)
	key := storage.DayKey(storage.ZoneEnriched, KindDailySummary, date)
	if err := persistReport(ctx, s, StageSummary, key, columnar.DailySummaries, []model.DailySummary{sum}, sum); err != nil {
		return sum, err
	}
	s.logger.InfoContext(ctx, "daily summary",
		slog.String("date", date.Format(model.DateLayout)),
		slog.Int64("orders", sum.TotalOrders),
		slog.String("revenue", sum.TotalRevenue.StringFixed(2)))
	return sum, nil
}

// DailyStock reports the remaining stock of every product in stocks or sold on date.
// Missing enriched orders for date wrap model.ErrMissingSource.
func (s *Service) DailyStock(ctx context.Context, date time.Time, stocks analytics.Stocks) (rows []model.StockRow, err error) {
	ctx, _ = s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, StageStock, started, err) }(time.Now())

	date = model.Day(date)
	rows, err = s.dailyStock(ctx, date, stocks)
	if err != nil {
		return nil, err
	}
	key := storage.DayKey(storage.ZoneAnalytics, KindStock, date)
	if err := persistReport(ctx, s, StageStock, key, columnar.StockRows, rows, model.StockDay{Date: date, Rows: rows}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "daily stock",
		slog.String("date", date.Format(model.DateLayout)), slog.Int("products", len(rows)))
	return rows, nil
}

func (s *Service) dailyStock(ctx context.Context, date time.Time, stocks analytics.Stocks) ([]model.StockRow, error) {
	if err := stocks.Validate(); err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}
	orders, err := s.enrichedOrders(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("stock %s: %w", date.Format(model.DateLayout), err)
	}
	return analytics.DailyStock(orders, stocks)
}

// NewCustomers counts, for each day of [start, end], the customers whose first order in
// the whole enriched history falls on that day. Days without data yield zero rows.
func (s *Service) NewCustomers(ctx context.Context, start, end time.Time) (rows []model.NewCustomersRow, err error) {
	ctx, _ = s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, StageNewCustomers, started, err) }(time.Now())

	rows, _, err = s.newCustomers(ctx, start, end)
	if err != nil {
		return nil, err
	}
	key := storage.RangeKey(storage.ZoneAnalytics, KindNewCustomers, model.Day(start), model.Day(end))
	if err := persistReport(ctx, s, StageNewCustomers, key, columnar.NewCustomerRows, rows, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) newCustomers(ctx context.Context, start, end time.Time) ([]model.NewCustomersRow, []model.Condition, error) {
	days, err := model.DaysInRange(start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("new customers: %w", err)
	}
	first := days[0]

	keys, err := s.store.List(ctx, storage.ZoneEnriched, string(model.Orders))
	if err != nil {
		return nil, nil, fmt.Errorf("list enriched orders: %w", err)
	}
	tracker := analytics.NewFirstOrderTracker()
	for _, k := range keys {
		d, ok := k.Date()
		if !ok || !d.Before(first) {
			continue
		}
		orders, err := s.enrichedOrders(ctx, d)
		if err != nil {
			return nil, nil, fmt.Errorf("new customers history %s: %w", k, err)
		}
		tracker.Seed(orders)
	}
	s.logger.DebugContext(ctx, "customer history seeded", slog.Int("known", tracker.Known()))

	var conds []model.Condition
	rows := make([]model.NewCustomersRow, 0, len(days))
	for _, d := range days {
		orders, found, err := s.optionalEnrichedOrders(ctx, d)
		if err != nil {
			return nil, nil, fmt.Errorf("new customers %s: %w", d.Format(model.DateLayout), err)
		}
		if !found {
			conds = append(conds, model.Condition{Date: d, Stage: StageNewCustomers, Kind: model.ConditionMissingSource, Message: "no enriched orders"})
		}
		rows = append(rows, tracker.Day(d, orders))
	}
	return rows, conds, nil
}

// MonthlyRevenue summarises the enriched orders of year/month. A month without data
// yields a zero report flagged Empty.
func (s *Service) MonthlyRevenue(ctx context.Context, year, month int) (rep model.MonthlyRevenue, err error) {
	ctx, _ = s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, StageRevenue, started, err) }(time.Now())

	rep, err = s.monthlyRevenue(ctx, year, month)
	if err != nil {
		return rep, err
	}
	key := storage.MonthKey(storage.ZoneAnalytics, KindMonthlyRevenue, year, month)
	if err := persistReport(ctx, s, StageRevenue, key, columnar.MonthlyRevenues, []model.MonthlyRevenue{rep}, rep.Rounded()); err != nil {
		return rep, err
	}
	s.logger.InfoContext(ctx, "monthly revenue",
		slog.Int("year", year), slog.Int("month", month),
		slog.String("ca_total", rep.CATotal.StringFixed(2)),
		slog.Int64("orders", rep.NombreCommandes),
		slog.Bool("empty", rep.Empty))
	return rep, nil
}

func (s *Service) monthlyRevenue(ctx context.Context, year, month int) (model.MonthlyRevenue, error) {
	days, err := model.MonthDays(year, month)
	if err != nil {
		return model.MonthlyRevenue{}, fmt.Errorf("revenue: %w", err)
	}
	var all []model.EnrichedOrder
	for _, d := range days {
		orders, _, err := s.optionalEnrichedOrders(ctx, d)
		if err != nil {
			return model.MonthlyRevenue{}, fmt.Errorf("revenue %s: %w", d.Format(model.DateLayout), err)
		}
		all = append(all, orders...)
	}
	return analytics.MonthlyRevenue(year, month, all)
}

// ComprehensiveReport runs every report over [start, end]: stock per day, new customers
// over the range and revenue for each month the range touches. Days without data become
// conditions instead of errors.
func (s *Service) ComprehensiveReport(ctx context.Context, start, end time.Time, stocks analytics.Stocks) (rep model.ComprehensiveReport, err error) {
	ctx, _ = s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, StageReport, started, err) }(time.Now())

	if err := stocks.Validate(); err != nil {
		return rep, fmt.Errorf("report: %w", err)
	}
	days, err := model.DaysInRange(start, end)
	if err != nil {
		return rep, fmt.Errorf("report: %w", err)
	}
	rep = model.ComprehensiveReport{Start: days[0], End: days[len(days)-1]}

	for _, d := range days {
		rows, err := s.dailyStock(ctx, d, stocks)
		if err != nil {
			c, ok := condition(StageStock, d, err)
			if !ok {
				return rep, err
			}
			rep.Conditions = append(rep.Conditions, c)
			continue
		}
		rep.Stock = append(rep.Stock, model.StockDay{Date: d, Rows: rows})
	}

	nc, conds, err := s.newCustomers(ctx, rep.Start, rep.End)
	if err != nil {
		return rep, err
	}
	rep.NewCustomers = nc
	rep.Conditions = append(rep.Conditions, conds...)

	seen := map[[2]int]bool{}
	for _, d := range days {
		ym := [2]int{d.Year(), int(d.Month())}
		if seen[ym] {
			continue
		}
		seen[ym] = true
		m, err := s.monthlyRevenue(ctx, ym[0], ym[1])
		if err != nil {
			return rep, err
		}
		rep.Monthly = append(rep.Monthly, m)
	}

	key := storage.RangeKey(storage.ZoneAnalytics, StageReport, rep.Start, rep.End)
	if err := s.publish(ctx, s.reports, sink.KindReport, StageReport, key, roundedReport(rep)); err != nil {
		return rep, err
	}
	if err := s.manifest(ctx, StageReport, "", key, len(days), len(rep.Stock), 0, 0); err != nil {
		return rep, err
	}
	s.logger.InfoContext(ctx, "comprehensive report",
		slog.String("start", rep.Start.Format(model.DateLayout)),
		slog.String("end", rep.End.Format(model.DateLayout)),
		slog.Int("stock_days", len(rep.Stock)),
		slog.Int("conditions", len(rep.Conditions)))
	return rep, nil
}

func roundedReport(rep model.ComprehensiveReport) model.ComprehensiveReport {
	out := rep
	out.Monthly = make([]model.MonthlyRevenue, len(rep.Monthly))
	for i, m := range rep.Monthly {
		out.Monthly[i] = m.Rounded()
	}
	out.NewCustomers = make([]model.NewCustomersRow, len(rep.NewCustomers))
	for i, r := range rep.NewCustomers {
		r.RevenusNouveauxClients = r.RevenusNouveauxClients.Round(2)
		out.NewCustomers[i] = r
	}
	return out
}
