package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomflow/internal/model"
)

func sale(date time.Time, customer, product, qty int64, total string) model.EnrichedOrder {
	var e model.EnrichedOrder
	e.OrderDate = date
	e.CustomerID = customer
	e.ProductID = product
	e.Quantity = qty
	e.TotalAmount = decimal.RequireFromString(total)
	return e
}

func TestDailyStock(t *testing.T) {
	day := model.Date(2024, 5, 3)
	orders := []model.EnrichedOrder{
		sale(day, 1, 1, 3, "30"),
		sale(day, 2, 4, 5, "50"),
		sale(day, 3, 1, 1, "10"),
	}
	rows, err := DailyStock(orders, Stocks{1: 100, 4: 200, 10: 140})
	require.NoError(t, err)
	assert.Equal(t, []model.StockRow{
		{ProductID: 1, StockInitial: 100, QuantiteVendue: 4, StockRestant: 96},
		{ProductID: 4, StockInitial: 200, QuantiteVendue: 5, StockRestant: 195},
		{ProductID: 10, StockInitial: 140, QuantiteVendue: 0, StockRestant: 140},
	}, rows)
}

func TestDailyStock_UnmanagedAndOversold(t *testing.T) {
	day := model.Date(2024, 5, 3)
	rows, err := DailyStock([]model.EnrichedOrder{sale(day, 1, 7, 2, "1"), sale(day, 1, 2, 9, "1")}, Stocks{2: 5})
	require.NoError(t, err)
	assert.Equal(t, []model.StockRow{
		{ProductID: 2, StockInitial: 5, QuantiteVendue: 9, StockRestant: -4},
		{ProductID: 7, StockInitial: 0, QuantiteVendue: 2, StockRestant: -2, Unmanaged: true},
	}, rows)
}

func TestDailyStock_NegativeStock(t *testing.T) {
	_, err := DailyStock(nil, Stocks{3: -1, 1: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}

func TestFirstOrderTracker(t *testing.T) {
	d1, d2, d3 := model.Date(2024, 5, 1), model.Date(2024, 5, 2), model.Date(2024, 5, 3)
	tr := NewFirstOrderTracker()
	tr.Seed([]model.EnrichedOrder{sale(model.Date(2024, 4, 20), 1, 1, 1, "5")})
	assert.Equal(t, 1, tr.Known())

	r1 := tr.Day(d1, []model.EnrichedOrder{
		sale(d1, 1, 1, 1, "10"),
		sale(d1, 2, 1, 1, "20"),
		sale(d1, 2, 1, 1, "5.5"),
		sale(d1, 3, 1, 1, "1"),
	})
	assert.Equal(t, d1, r1.Date)
	assert.Equal(t, int64(2), r1.NouveauxClients)
	assert.True(t, decimal.RequireFromString("26.5").Equal(r1.RevenusNouveauxClients))

	r2 := tr.Day(d2, nil)
	assert.Equal(t, int64(0), r2.NouveauxClients)
	assert.True(t, r2.RevenusNouveauxClients.IsZero())

	r3 := tr.Day(d3, []model.EnrichedOrder{sale(d3, 2, 1, 1, "1"), sale(d3, 4, 1, 1, "2")})
	assert.Equal(t, int64(1), r3.NouveauxClients)
	assert.Equal(t, 4, tr.Known())
}

func TestMonthlyRevenue(t *testing.T) {
	var orders []model.EnrichedOrder
	for i := 0; i < 28; i++ {
		orders = append(orders, sale(model.Date(2024, 5, 1+i%10), int64(i), 1, 1, "127.63"))
	}
	orders = append(orders, sale(model.Date(2024, 5, 20), 99, 1, 1, "127.70"))
	orders = append(orders, sale(model.Date(2024, 6, 1), 99, 1, 1, "1000"))

	rep, err := MonthlyRevenue(2024, 5, orders)
	require.NoError(t, err)
	assert.False(t, rep.Empty)
	assert.True(t, decimal.RequireFromString("3701.34").Equal(rep.CATotal), rep.CATotal.String())
	assert.Equal(t, int64(29), rep.NombreCommandes)
	assert.Equal(t, "127.63", rep.Rounded().PanierMoyen.StringFixed(2))
	assert.Equal(t, int64(11), rep.JoursAvecCommandes)
	assert.Equal(t, "336.49", rep.Rounded().CAMoyenParJour.StringFixed(2))

	// days 1..8 carry three orders, 9 and 10 two, the 20th one
	assert.Equal(t, model.Date(2024, 5, 1), rep.MeilleurJour.Date)
	assert.Equal(t, int64(3), rep.MeilleurJour.Orders)
	assert.Equal(t, model.Date(2024, 5, 20), rep.PireJour.Date)

	// 2024-05-04 and 05 are the only weekend days with orders
	assert.Equal(t, int64(2), rep.WeekEnd.Days)
	assert.Equal(t, int64(6), rep.WeekEnd.Orders)
	assert.Equal(t, int64(23), rep.Semaine.Orders)
	assert.True(t, rep.CATotal.Equal(rep.Semaine.Revenue.Add(rep.WeekEnd.Revenue)))
}

func TestMonthlyRevenue_TiesPickEarliest(t *testing.T) {
	rep, err := MonthlyRevenue(2024, 2, []model.EnrichedOrder{
		sale(model.Date(2024, 2, 9), 1, 1, 1, "10"),
		sale(model.Date(2024, 2, 3), 1, 1, 1, "10"),
		sale(model.Date(2024, 2, 29), 1, 1, 1, "10"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, 2, 3), rep.MeilleurJour.Date)
	assert.Equal(t, model.Date(2024, 2, 3), rep.PireJour.Date)
}

func TestMonthlyRevenue_EmptyAndInvalid(t *testing.T) {
	rep, err := MonthlyRevenue(2024, 7, nil)
	require.NoError(t, err)
	assert.True(t, rep.Empty)
	assert.Equal(t, 2024, rep.Annee)
	assert.Equal(t, 7, rep.Mois)
	assert.True(t, rep.PanierMoyen.IsZero())

	_, err = MonthlyRevenue(2024, 13, nil)
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}
