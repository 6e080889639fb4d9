package enrich

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomflow/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(id, customer, product, qty int64, price string) model.Order {
	p := dec(price)
	return model.Order{
		OrderID: id, OrderDate: model.Date(2024, 5, 4), CustomerID: customer, ProductID: product,
		Quantity: qty, Price: p, TotalAmount: p.Mul(decimal.NewFromInt(qty)),
	}
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 2.5, quantile([]float64{1, 2, 3, 4}, 0.5))
	assert.Equal(t, 1.0, quantile([]float64{1, 2, 3, 4}, 0))
	assert.InDelta(t, 3.4, quantile([]float64{1, 2, 3, 4}, 0.8), 1e-9)
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestStddev(t *testing.T) {
	assert.InDelta(t, math.Sqrt(32.0/7), stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.True(t, math.IsNaN(stddev([]float64{3})))
	assert.Equal(t, "Normal", spreadCategory(3, 3, math.NaN()))
}

func TestQcut(t *testing.T) {
	got := qcut([]float64{8, 1, 2, 3, 4, 5, 6, 7}, quartileLabels)
	assert.Equal(t, []string{"Élevé", "Bas", "Bas", "Moyen-", "Moyen-", "Moyen+", "Moyen+", "Élevé"}, got)

	assert.Equal(t, []string{"Standard", "Standard", "Standard", "Standard"}, qcut([]float64{5, 5, 5, 10}, quartileLabels))
	assert.Equal(t, []string{"Standard"}, qcut([]float64{42}, tercileLabels))
}

func TestQuantityCategory(t *testing.T) {
	for q, want := range map[int64]string{1: "Unitaire", 2: "Petit", 3: "Petit", 4: "Moyen", 5: "Moyen", 6: "Gros"} {
		assert.Equal(t, want, quantityCategory(q), "quantity %d", q)
	}
}

func TestCalendar(t *testing.T) {
	c := Calendar(model.Date(2024, 5, 4))
	assert.Equal(t, model.Temporal{
		Year: 2024, Month: 5, Day: 4, Weekday: 5, Week: 18, Quarter: 2,
		IsWeekend: true, DayName: "Samedi", MonthName: "Mai",
	}, c)
	assert.Equal(t, "Lundi", Calendar(model.Date(2024, 12, 30)).DayName)
	assert.Equal(t, int64(1), Calendar(model.Date(2024, 12, 30)).Week, "ISO week of the next year")
	assert.Equal(t, model.Temporal{}, Calendar(time.Time{}))
}

func TestOrders(t *testing.T) {
	in := []model.Order{
		order(1, 1, 10, 1, "10"),
		order(2, 1, 11, 5, "20"),
		order(3, 2, 10, 2, "30"),
	}
	out := Orders(in)
	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, in[i], out[i].Order, "row %d keeps its base fields and position", i)
	}

	assert.Equal(t, []string{"Bas", "Moyen-", "Élevé"}, []string{out[0].PriceQuartile, out[1].PriceQuartile, out[2].PriceQuartile})
	assert.Equal(t, []string{"Faible", "Élevé", "Moyen"}, []string{out[0].RevenueCategory, out[1].RevenueCategory, out[2].RevenueCategory})
	assert.Equal(t, "Normal", out[0].PriceCategory)
	assert.Equal(t, "Moyen", out[1].QuantityCategory)
	assert.True(t, out[1].IsBulkOrder)
	assert.False(t, out[0].IsBulkOrder)
	assert.True(t, out[2].AvgUnitPrice.Equal(dec("30")))
	assert.False(t, out[2].DiscountIndicator)
	assert.Equal(t, "Samedi", out[0].DayName)

	c1 := out[0].CustomerInsights
	assert.Equal(t, int64(2), c1.OrderCount)
	assert.True(t, c1.TotalSpent.Equal(dec("110")))
	assert.True(t, c1.AvgOrderValue.Equal(dec("55")))
	assert.Equal(t, int64(6), c1.TotalItems)
	assert.Equal(t, "Premium", c1.CustomerSegment)
	assert.Equal(t, "Occasionnel", c1.CustomerType)
	assert.Equal(t, "Économique", out[2].CustomerSegment)
	assert.Equal(t, "Nouveau", out[2].CustomerType)

	p10 := out[0].ProductInsights
	assert.Equal(t, int64(2), p10.ProductOrderCount)
	assert.Equal(t, int64(3), p10.ProductTotalQty)
	assert.True(t, p10.ProductRevenue.Equal(dec("70")))
	assert.True(t, p10.ProductAvgPrice.Equal(dec("20")))
	assert.Equal(t, "Élevé", p10.ProductPopularity)
	assert.Equal(t, "Faible", p10.ProductPerformance)
	assert.Equal(t, "Faible", out[1].ProductPopularity)
	assert.Equal(t, "Élevé", out[1].ProductPerformance)
	assert.Equal(t, out[0].ProductInsights, out[2].ProductInsights)
}

func TestOrders_Deterministic(t *testing.T) {
	in := []model.Order{order(1, 1, 1, 3, "9.99"), order(2, 2, 1, 7, "149.5"), order(3, 3, 2, 1, "0.5")}
	assert.Equal(t, Orders(in), Orders(in))
	assert.Empty(t, Orders(nil))
}

func TestClients(t *testing.T) {
	out := Clients([]model.Client{
		{CustomerID: 1, Email: "a@gmail.com", RegistrationDate: model.Date(2024, 1, 15)},
		{CustomerID: 2, Email: "b@hotmail.fr"},
		{CustomerID: 3, Email: "c@orange.fr"},
		{CustomerID: 4},
	})
	assert.Equal(t, "gmail.com", out[0].EmailDomain)
	assert.Equal(t, "Gmail", out[0].EmailProviderType)
	assert.Equal(t, "Lundi", out[0].DayName)
	assert.Equal(t, "Outlook", out[1].EmailProviderType)
	assert.Equal(t, "Autre", out[2].EmailProviderType)
	assert.Equal(t, "", out[3].EmailDomain)
	assert.Equal(t, int64(0), out[1].Year)
}

func TestProducts(t *testing.T) {
	out := Products([]model.Product{
		{ProductID: 1, ProductName: "Écran 27 pouces", Price: dec("10")},
		{ProductID: 2, ProductName: "Souris", Price: dec("20")},
		{ProductID: 3, ProductName: "Clavier", Price: dec("30")},
	})
	assert.Equal(t, int64(15), out[0].NameLength)
	assert.Equal(t, int64(3), out[0].WordCount)
	assert.Equal(t, "Bas", out[0].PriceQuartile)
	assert.Equal(t, "Élevé", out[2].PriceQuartile)
}

func TestSummarize(t *testing.T) {
	day := model.Date(2024, 5, 4)
	s := Summarize(day, Orders([]model.Order{
		order(1, 1, 10, 1, "10"),
		order(2, 1, 11, 5, "20"),
		order(3, 2, 10, 2, "30"),
	}))
	assert.Equal(t, int64(3), s.TotalOrders)
	assert.True(t, s.TotalRevenue.Equal(dec("170")))
	assert.True(t, s.AvgOrderValue.Equal(dec("56.6667")))
	assert.Equal(t, int64(2), s.UniqueCustomers)
	assert.Equal(t, int64(2), s.UniqueProducts)
	assert.Equal(t, 100.0, s.WeekendOrdersPct)
	assert.Equal(t, 33.33, s.BulkOrdersPct)

	empty := Summarize(day, nil)
	assert.Equal(t, model.DailySummary{Date: day}, empty)
}
