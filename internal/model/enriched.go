package model

import "github.com/shopspring/decimal"

// Temporal holds the calendar columns derived from one date column.
type Temporal struct {
	Year      int64  `json:"year"`
	Month     int64  `json:"month"`
	Day       int64  `json:"day"`
	Weekday   int64  `json:"weekday"` // 0 = Monday
	Week      int64  `json:"week"`    // ISO week
	Quarter   int64  `json:"quarter"`
	IsWeekend bool   `json:"is_weekend"`
	DayName   string `json:"day_name"`
	MonthName string `json:"month_name"`
}

// CustomerInsights are per-customer aggregates over the day's orders.
type CustomerInsights struct {
	OrderCount      int64           `json:"order_count"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	TotalItems      int64           `json:"total_items"`
	CustomerSegment string          `json:"customer_segment"`
	CustomerType    string          `json:"customer_type"`
}

// ProductInsights are per-product aggregates over the day's orders.
type ProductInsights struct {
	ProductOrderCount  int64           `json:"product_order_count"`
	ProductTotalQty    int64           `json:"product_total_qty"`
	ProductRevenue     decimal.Decimal `json:"product_revenue"`
	ProductAvgPrice    decimal.Decimal `json:"product_avg_price"`
	ProductPopularity  string          `json:"product_popularity"`
	ProductPerformance string          `json:"product_performance"`
}

// EnrichedOrder is an Order plus derived columns. The embedded Order is a copy of the
// cleaned row and is never modified by enrichment.
type EnrichedOrder struct {
	Order
	Temporal
	CustomerInsights
	ProductInsights

	PriceQuartile     string          `json:"price_quartile"`
	PriceCategory     string          `json:"price_category"`
	QuantityCategory  string          `json:"quantity_category"`
	IsBulkOrder       bool            `json:"is_bulk_order"`
	RevenueCategory   string          `json:"revenue_category"`
	AvgUnitPrice      decimal.Decimal `json:"avg_unit_price"`
	DiscountIndicator bool            `json:"discount_indicator"`
}

// EnrichedClient adds registration calendar columns and email classification.
type EnrichedClient struct {
	Client
	Temporal

	EmailDomain       string `json:"email_domain"`
	EmailProviderType string `json:"email_provider_type"`
}

// EnrichedProduct adds price bucketing and name statistics.
type EnrichedProduct struct {
	Product

	PriceQuartile string `json:"price_quartile"`
	PriceCategory string `json:"price_category"`
	NameLength    int64  `json:"product_name_length"`
	WordCount     int64  `json:"product_word_count"`
}
