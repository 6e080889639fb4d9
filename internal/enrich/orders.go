// Package enrich adds derived temporal and business columns to cleaned tables. Every
// function is pure: the output has the input's rows in the input's order.
package enrich

import (
	"github.com/shopspring/decimal"

	"ecomflow/internal/model"
)

// amountScale is the precision kept for derived means.
const amountScale = 4

var (
	quartileLabels = []string{"Bas", "Moyen-", "Moyen+", "Élevé"}
	tercileLabels  = []string{"Faible", "Moyen", "Élevé"}
	discountRatio  = decimal.RequireFromString("0.9")
)

type customerAgg struct {
	count int64
	spent decimal.Decimal
	items int64
}

type productAgg struct {
	count    int64
	qty      int64
	revenue  decimal.Decimal
	priceSum decimal.Decimal
}

// Orders enriches one day of cleaned orders.
func Orders(orders []model.Order) []model.EnrichedOrder {
	out := make([]model.EnrichedOrder, len(orders))
	if len(orders) == 0 {
		return out
	}
	prices := make([]float64, len(orders))
	totals := make([]float64, len(orders))
	for i, o := range orders {
		prices[i] = o.Price.InexactFloat64()
		totals[i] = o.TotalAmount.InexactFloat64()
	}
	priceQuartiles := qcut(prices, quartileLabels)
	revenueCats := qcut(totals, tercileLabels)
	pm, psd := mean(prices), stddev(prices)

	for i, o := range orders {
		e := model.EnrichedOrder{
			Order:            o,
			Temporal:         Calendar(o.OrderDate),
			PriceQuartile:    priceQuartiles[i],
			PriceCategory:    spreadCategory(prices[i], pm, psd),
			QuantityCategory: quantityCategory(o.Quantity),
			IsBulkOrder:      o.Quantity >= 5,
			RevenueCategory:  revenueCats[i],
		}
		e.AvgUnitPrice = o.TotalAmount.DivRound(decimal.NewFromInt(o.Quantity), amountScale)
		e.DiscountIndicator = o.Price.LessThan(e.AvgUnitPrice.Mul(discountRatio))
		out[i] = e
	}
	addCustomerInsights(out)
	addProductInsights(out)
	return out
}

func addCustomerInsights(rows []model.EnrichedOrder) {
	aggs := map[int64]*customerAgg{}
	var ids []int64
	for _, r := range rows {
		a, ok := aggs[r.CustomerID]
		if !ok {
			a = &customerAgg{}
			aggs[r.CustomerID] = a
			ids = append(ids, r.CustomerID)
		}
		a.count++
		a.spent = a.spent.Add(r.TotalAmount)
		a.items += r.Quantity
	}
	spent := make([]float64, len(ids))
	for i, id := range ids {
		spent[i] = aggs[id].spent.InexactFloat64()
	}
	s := sortedCopy(spent)
	p80, p20 := quantile(s, 0.8), quantile(s, 0.2)

	insights := make(map[int64]model.CustomerInsights, len(ids))
	for i, id := range ids {
		a := aggs[id]
		ci := model.CustomerInsights{
			OrderCount:      a.count,
			TotalSpent:      a.spent,
			AvgOrderValue:   a.spent.DivRound(decimal.NewFromInt(a.count), amountScale),
			TotalItems:      a.items,
			CustomerSegment: "Standard",
			CustomerType:    customerType(a.count),
		}
		switch {
		case spent[i] > p80:
			ci.CustomerSegment = "Premium"
		case spent[i] < p20:
			ci.CustomerSegment = "Économique"
		}
		insights[id] = ci
	}
	for i := range rows {
		rows[i].CustomerInsights = insights[rows[i].CustomerID]
	}
}

func customerType(orders int64) string {
	switch {
	case orders == 1:
		return "Nouveau"
	case orders <= 2:
		return "Occasionnel"
	}
	return "Fidèle"
}

func addProductInsights(rows []model.EnrichedOrder) {
	aggs := map[int64]*productAgg{}
	var ids []int64
	for _, r := range rows {
		a, ok := aggs[r.ProductID]
		if !ok {
			a = &productAgg{}
			aggs[r.ProductID] = a
			ids = append(ids, r.ProductID)
		}
		a.count++
		a.qty += r.Quantity
		a.revenue = a.revenue.Add(r.TotalAmount)
		a.priceSum = a.priceSum.Add(r.Price)
	}
	counts := make([]float64, len(ids))
	revenues := make([]float64, len(ids))
	for i, id := range ids {
		counts[i] = float64(aggs[id].count)
		revenues[i] = aggs[id].revenue.InexactFloat64()
	}
	popularity := qcut(counts, tercileLabels)
	performance := qcut(revenues, tercileLabels)

	insights := make(map[int64]model.ProductInsights, len(ids))
	for i, id := range ids {
		a := aggs[id]
		insights[id] = model.ProductInsights{
			ProductOrderCount:  a.count,
			ProductTotalQty:    a.qty,
			ProductRevenue:     a.revenue,
			ProductAvgPrice:    a.priceSum.DivRound(decimal.NewFromInt(a.count), amountScale),
			ProductPopularity:  popularity[i],
			ProductPerformance: performance[i],
		}
	}
	for i := range rows {
		rows[i].ProductInsights = insights[rows[i].ProductID]
	}
}
