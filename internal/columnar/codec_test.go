package columnar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomflow/internal/model"
)

func sampleOrders() []model.Order {
	d := model.Date(2024, 5, 3)
	return []model.Order{
		{OrderID: 1, OrderDate: d, CustomerID: 10, CustomerName: "Alice", ProductID: 1, ProductName: "Product_1",
			Quantity: 2, Price: decimal.RequireFromString("19.99"), Status: "shipped", TotalAmount: decimal.RequireFromString("39.98")},
		{OrderID: 2, OrderDate: d, CustomerID: 11, CustomerName: "Bob", ProductID: 4, ProductName: "Product_4",
			Quantity: 5, Price: decimal.RequireFromString("3.5"), TotalAmount: decimal.RequireFromString("17.5")},
	}
}

func TestOrders_RoundTrip(t *testing.T) {
	in := sampleOrders()
	b, err := Orders.Encode(in)
	require.NoError(t, err)

	out, err := Orders.Decode(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].OrderID, out[i].OrderID)
		assert.True(t, in[i].OrderDate.Equal(out[i].OrderDate), "date %d", i)
		assert.Equal(t, in[i].CustomerName, out[i].CustomerName)
		assert.Equal(t, in[i].Status, out[i].Status)
		assert.True(t, in[i].Price.Equal(out[i].Price), "price %s vs %s", in[i].Price, out[i].Price)
		assert.True(t, in[i].TotalAmount.Equal(out[i].TotalAmount))
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Orders.Encode(sampleOrders())
	require.NoError(t, err)
	b, err := Orders.Encode(sampleOrders())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_EmptyTable(t *testing.T) {
	b, err := Orders.Encode(nil)
	require.NoError(t, err)
	out, err := Orders.Decode(context.Background(), b)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecode_MissingColumn(t *testing.T) {
	b, err := Clients.Encode([]model.Client{{CustomerID: 1, Email: "a@b.c"}})
	require.NoError(t, err)

	_, err = Orders.Decode(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.True(t, errors.Is(err, model.ErrMisconfiguredInput))
}

func TestEnrichedOrders_RoundTripKeepsEmbeddedFields(t *testing.T) {
	in := []model.EnrichedOrder{{
		Order:    sampleOrders()[0],
		Temporal: model.Temporal{Year: 2024, Month: 5, Day: 3, Weekday: 4, Week: 18, Quarter: 2, DayName: "Vendredi", MonthName: "Mai"},
		CustomerInsights: model.CustomerInsights{OrderCount: 1, TotalSpent: decimal.RequireFromString("39.98"),
			CustomerSegment: "Standard", CustomerType: "Nouveau"},
		ProductInsights:  model.ProductInsights{ProductOrderCount: 1, ProductPopularity: "Standard"},
		PriceQuartile:    "Standard",
		IsBulkOrder:      false,
		AvgUnitPrice:     decimal.RequireFromString("19.99"),
		QuantityCategory: "Petit",
	}}
	b, err := EnrichedOrders.Encode(in)
	require.NoError(t, err)

	// An enriched artifact is a superset of the clean schema.
	base, err := Orders.Decode(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.Equal(t, int64(1), base[0].OrderID)

	out, err := EnrichedOrders.Decode(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Vendredi", out[0].DayName)
	assert.Equal(t, int64(18), out[0].Week)
	assert.Equal(t, "Nouveau", out[0].CustomerType)
	assert.Equal(t, "Petit", out[0].QuantityCategory)
}

func TestClients_ZeroRegistrationDate(t *testing.T) {
	b, err := Clients.Encode([]model.Client{{CustomerID: 7}})
	require.NoError(t, err)
	out, err := Clients.Decode(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].RegistrationDate.Equal(time.Time{}))
}

func TestDecimal_RoundsToScale(t *testing.T) {
	n := toNum(decimal.RequireFromString("1.234567"))
	got := fromNum(n, DecimalScale)
	assert.True(t, got.Equal(decimal.RequireFromString("1.2346")), "got %s", got)
}
