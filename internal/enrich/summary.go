package enrich

import (
	"time"

	"github.com/shopspring/decimal"

	"ecomflow/internal/model"
)

// Summarize computes the headline figures of one day of enriched orders. An empty day
// yields a zero summary for date.
func Summarize(date time.Time, rows []model.EnrichedOrder) model.DailySummary {
	s := model.DailySummary{Date: model.Day(date), TotalOrders: int64(len(rows))}
	if len(rows) == 0 {
		return s
	}
	customers := map[int64]struct{}{}
	products := map[int64]struct{}{}
	var weekend, bulk int
	for _, r := range rows {
		s.TotalRevenue = s.TotalRevenue.Add(r.TotalAmount)
		customers[r.CustomerID] = struct{}{}
		products[r.ProductID] = struct{}{}
		if r.IsWeekend {
			weekend++
		}
		if r.IsBulkOrder {
			bulk++
		}
	}
	s.AvgOrderValue = s.TotalRevenue.DivRound(decimal.NewFromInt(s.TotalOrders), amountScale)
	s.UniqueCustomers = int64(len(customers))
	s.UniqueProducts = int64(len(products))
	s.WeekendOrdersPct = pct(weekend, len(rows))
	s.BulkOrdersPct = pct(bulk, len(rows))
	return s
}

// pct is a percentage with two decimals.
func pct(n, total int) float64 {
	return decimal.NewFromInt(int64(n)).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2).InexactFloat64()
}
