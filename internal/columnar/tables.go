package columnar

import (
	"time"

	"github.com/shopspring/decimal"

	"ecomflow/internal/model"
)

func orderColumns() []Column[model.Order] {
	type O = model.Order
	return []Column[O]{
		Int64("order_id", func(r *O) int64 { return r.OrderID }, func(r *O, v int64) { r.OrderID = v }),
		Date("order_date", func(r *O) time.Time { return r.OrderDate }, func(r *O, v time.Time) { r.OrderDate = v }),
		Int64("customer_id", func(r *O) int64 { return r.CustomerID }, func(r *O, v int64) { r.CustomerID = v }),
		String("customer_name", func(r *O) string { return r.CustomerName }, func(r *O, v string) { r.CustomerName = v }),
		Int64("product_id", func(r *O) int64 { return r.ProductID }, func(r *O, v int64) { r.ProductID = v }),
		String("product_name", func(r *O) string { return r.ProductName }, func(r *O, v string) { r.ProductName = v }),
		Int64("quantity", func(r *O) int64 { return r.Quantity }, func(r *O, v int64) { r.Quantity = v }),
		Decimal("price", func(r *O) decimal.Decimal { return r.Price }, func(r *O, v decimal.Decimal) { r.Price = v }),
		String("status", func(r *O) string { return r.Status }, func(r *O, v string) { r.Status = v }),
		Decimal("total_amount", func(r *O) decimal.Decimal { return r.TotalAmount }, func(r *O, v decimal.Decimal) { r.TotalAmount = v }),
	}
}

func clientColumns() []Column[model.Client] {
	type C = model.Client
	return []Column[C]{
		Int64("customer_id", func(r *C) int64 { return r.CustomerID }, func(r *C, v int64) { r.CustomerID = v }),
		String("customer_name", func(r *C) string { return r.CustomerName }, func(r *C, v string) { r.CustomerName = v }),
		String("email", func(r *C) string { return r.Email }, func(r *C, v string) { r.Email = v }),
		String("phone", func(r *C) string { return r.Phone }, func(r *C, v string) { r.Phone = v }),
		String("address", func(r *C) string { return r.Address }, func(r *C, v string) { r.Address = v }),
		String("city", func(r *C) string { return r.City }, func(r *C, v string) { r.City = v }),
		Date("registration_date", func(r *C) time.Time { return r.RegistrationDate }, func(r *C, v time.Time) { r.RegistrationDate = v }),
	}
}

func productColumns() []Column[model.Product] {
	type P = model.Product
	return []Column[P]{
		Int64("product_id", func(r *P) int64 { return r.ProductID }, func(r *P, v int64) { r.ProductID = v }),
		String("product_name", func(r *P) string { return r.ProductName }, func(r *P, v string) { r.ProductName = v }),
		String("category", func(r *P) string { return r.Category }, func(r *P, v string) { r.Category = v }),
		String("brand", func(r *P) string { return r.Brand }, func(r *P, v string) { r.Brand = v }),
		String("description", func(r *P) string { return r.Description }, func(r *P, v string) { r.Description = v }),
		Decimal("price", func(r *P) decimal.Decimal { return r.Price }, func(r *P, v decimal.Decimal) { r.Price = v }),
		Decimal("cost", func(r *P) decimal.Decimal { return r.Cost }, func(r *P, v decimal.Decimal) { r.Cost = v }),
		Decimal("weight", func(r *P) decimal.Decimal { return r.Weight }, func(r *P, v decimal.Decimal) { r.Weight = v }),
	}
}

// temporalColumns prefixes the calendar columns with the source date column name, except
// for the shared flags (is_weekend, day_name, month_name).
func temporalColumns(prefix string) []Column[model.Temporal] {
	type T = model.Temporal
	return []Column[T]{
		Int64(prefix+"_year", func(r *T) int64 { return r.Year }, func(r *T, v int64) { r.Year = v }),
		Int64(prefix+"_month", func(r *T) int64 { return r.Month }, func(r *T, v int64) { r.Month = v }),
		Int64(prefix+"_day", func(r *T) int64 { return r.Day }, func(r *T, v int64) { r.Day = v }),
		Int64(prefix+"_weekday", func(r *T) int64 { return r.Weekday }, func(r *T, v int64) { r.Weekday = v }),
		Int64(prefix+"_week", func(r *T) int64 { return r.Week }, func(r *T, v int64) { r.Week = v }),
		Int64(prefix+"_quarter", func(r *T) int64 { return r.Quarter }, func(r *T, v int64) { r.Quarter = v }),
		Bool("is_weekend", func(r *T) bool { return r.IsWeekend }, func(r *T, v bool) { r.IsWeekend = v }),
		String("day_name", func(r *T) string { return r.DayName }, func(r *T, v string) { r.DayName = v }),
		String("month_name", func(r *T) string { return r.MonthName }, func(r *T, v string) { r.MonthName = v }),
	}
}

func customerInsightColumns() []Column[model.CustomerInsights] {
	type C = model.CustomerInsights
	return []Column[C]{
		Int64("order_count", func(r *C) int64 { return r.OrderCount }, func(r *C, v int64) { r.OrderCount = v }),
		Decimal("total_spent", func(r *C) decimal.Decimal { return r.TotalSpent }, func(r *C, v decimal.Decimal) { r.TotalSpent = v }),
		Decimal("avg_order_value", func(r *C) decimal.Decimal { return r.AvgOrderValue }, func(r *C, v decimal.Decimal) { r.AvgOrderValue = v }),
		Int64("total_items", func(r *C) int64 { return r.TotalItems }, func(r *C, v int64) { r.TotalItems = v }),
		String("customer_segment", func(r *C) string { return r.CustomerSegment }, func(r *C, v string) { r.CustomerSegment = v }),
		String("customer_type", func(r *C) string { return r.CustomerType }, func(r *C, v string) { r.CustomerType = v }),
	}
}

func productInsightColumns() []Column[model.ProductInsights] {
	type P = model.ProductInsights
	return []Column[P]{
		Int64("product_order_count", func(r *P) int64 { return r.ProductOrderCount }, func(r *P, v int64) { r.ProductOrderCount = v }),
		Int64("product_total_qty", func(r *P) int64 { return r.ProductTotalQty }, func(r *P, v int64) { r.ProductTotalQty = v }),
		Decimal("product_revenue", func(r *P) decimal.Decimal { return r.ProductRevenue }, func(r *P, v decimal.Decimal) { r.ProductRevenue = v }),
		Decimal("product_avg_price", func(r *P) decimal.Decimal { return r.ProductAvgPrice }, func(r *P, v decimal.Decimal) { r.ProductAvgPrice = v }),
		String("product_popularity", func(r *P) string { return r.ProductPopularity }, func(r *P, v string) { r.ProductPopularity = v }),
		String("product_performance", func(r *P) string { return r.ProductPerformance }, func(r *P, v string) { r.ProductPerformance = v }),
	}
}

func enrichedOrderColumns() []Column[model.EnrichedOrder] {
	type E = model.EnrichedOrder
	var cols []Column[E]
	cols = append(cols, EmbedAll(orderColumns(), func(r *E) *model.Order { return &r.Order })...)
	cols = append(cols, EmbedAll(temporalColumns("order_date"), func(r *E) *model.Temporal { return &r.Temporal })...)
	cols = append(cols,
		String("price_quartile", func(r *E) string { return r.PriceQuartile }, func(r *E, v string) { r.PriceQuartile = v }),
		String("price_category", func(r *E) string { return r.PriceCategory }, func(r *E, v string) { r.PriceCategory = v }),
		String("quantity_category", func(r *E) string { return r.QuantityCategory }, func(r *E, v string) { r.QuantityCategory = v }),
		Bool("is_bulk_order", func(r *E) bool { return r.IsBulkOrder }, func(r *E, v bool) { r.IsBulkOrder = v }),
		String("revenue_category", func(r *E) string { return r.RevenueCategory }, func(r *E, v string) { r.RevenueCategory = v }),
		Decimal("avg_unit_price", func(r *E) decimal.Decimal { return r.AvgUnitPrice }, func(r *E, v decimal.Decimal) { r.AvgUnitPrice = v }),
		Bool("discount_indicator", func(r *E) bool { return r.DiscountIndicator }, func(r *E, v bool) { r.DiscountIndicator = v }),
	)
	cols = append(cols, EmbedAll(customerInsightColumns(), func(r *E) *model.CustomerInsights { return &r.CustomerInsights })...)
	cols = append(cols, EmbedAll(productInsightColumns(), func(r *E) *model.ProductInsights { return &r.ProductInsights })...)
	return cols
}

func enrichedClientColumns() []Column[model.EnrichedClient] {
	type E = model.EnrichedClient
	var cols []Column[E]
	cols = append(cols, EmbedAll(clientColumns(), func(r *E) *model.Client { return &r.Client })...)
	cols = append(cols, EmbedAll(temporalColumns("registration_date"), func(r *E) *model.Temporal { return &r.Temporal })...)
	cols = append(cols,
		String("email_domain", func(r *E) string { return r.EmailDomain }, func(r *E, v string) { r.EmailDomain = v }),
		String("email_provider_type", func(r *E) string { return r.EmailProviderType }, func(r *E, v string) { r.EmailProviderType = v }),
	)
	return cols
}

func enrichedProductColumns() []Column[model.EnrichedProduct] {
	type E = model.EnrichedProduct
	var cols []Column[E]
	cols = append(cols, EmbedAll(productColumns(), func(r *E) *model.Product { return &r.Product })...)
	cols = append(cols,
		String("price_quartile", func(r *E) string { return r.PriceQuartile }, func(r *E, v string) { r.PriceQuartile = v }),
		String("price_category", func(r *E) string { return r.PriceCategory }, func(r *E, v string) { r.PriceCategory = v }),
		Int64("product_name_length", func(r *E) int64 { return r.NameLength }, func(r *E, v int64) { r.NameLength = v }),
		Int64("product_word_count", func(r *E) int64 { return r.WordCount }, func(r *E, v int64) { r.WordCount = v }),
	)
	return cols
}

func stockColumns() []Column[model.StockRow] {
	type S = model.StockRow
	return []Column[S]{
		Int64("product_id", func(r *S) int64 { return r.ProductID }, func(r *S, v int64) { r.ProductID = v }),
		Int64("stock_initial", func(r *S) int64 { return r.StockInitial }, func(r *S, v int64) { r.StockInitial = v }),
		Int64("quantite_vendue", func(r *S) int64 { return r.QuantiteVendue }, func(r *S, v int64) { r.QuantiteVendue = v }),
		Int64("stock_restant", func(r *S) int64 { return r.StockRestant }, func(r *S, v int64) { r.StockRestant = v }),
		Bool("unmanaged", func(r *S) bool { return r.Unmanaged }, func(r *S, v bool) { r.Unmanaged = v }),
	}
}

func newCustomersColumns() []Column[model.NewCustomersRow] {
	type N = model.NewCustomersRow
	return []Column[N]{
		Date("date", func(r *N) time.Time { return r.Date }, func(r *N, v time.Time) { r.Date = v }),
		Int64("nouveaux_clients", func(r *N) int64 { return r.NouveauxClients }, func(r *N, v int64) { r.NouveauxClients = v }),
		Decimal("revenus_nouveaux_clients", func(r *N) decimal.Decimal { return r.RevenusNouveauxClients }, func(r *N, v decimal.Decimal) { r.RevenusNouveauxClients = v }),
	}
}

func monthlyRevenueColumns() []Column[model.MonthlyRevenue] {
	type M = model.MonthlyRevenue
	return []Column[M]{
		Int64("annee", func(r *M) int64 { return int64(r.Annee) }, func(r *M, v int64) { r.Annee = int(v) }),
		Int64("mois", func(r *M) int64 { return int64(r.Mois) }, func(r *M, v int64) { r.Mois = int(v) }),
		Decimal("ca_total", func(r *M) decimal.Decimal { return r.CATotal }, func(r *M, v decimal.Decimal) { r.CATotal = v }),
		Int64("nombre_commandes", func(r *M) int64 { return r.NombreCommandes }, func(r *M, v int64) { r.NombreCommandes = v }),
		Decimal("panier_moyen", func(r *M) decimal.Decimal { return r.PanierMoyen }, func(r *M, v decimal.Decimal) { r.PanierMoyen = v }),
		Decimal("ca_moyen_par_jour", func(r *M) decimal.Decimal { return r.CAMoyenParJour }, func(r *M, v decimal.Decimal) { r.CAMoyenParJour = v }),
		Int64("jours_avec_commandes", func(r *M) int64 { return r.JoursAvecCommandes }, func(r *M, v int64) { r.JoursAvecCommandes = v }),
		Date("meilleur_jour", func(r *M) time.Time { return r.MeilleurJour.Date }, func(r *M, v time.Time) { r.MeilleurJour.Date = v }),
		Decimal("meilleur_jour_ca", func(r *M) decimal.Decimal { return r.MeilleurJour.Revenue }, func(r *M, v decimal.Decimal) { r.MeilleurJour.Revenue = v }),
		Int64("meilleur_jour_commandes", func(r *M) int64 { return r.MeilleurJour.Orders }, func(r *M, v int64) { r.MeilleurJour.Orders = v }),
		Date("pire_jour", func(r *M) time.Time { return r.PireJour.Date }, func(r *M, v time.Time) { r.PireJour.Date = v }),
		Decimal("pire_jour_ca", func(r *M) decimal.Decimal { return r.PireJour.Revenue }, func(r *M, v decimal.Decimal) { r.PireJour.Revenue = v }),
		Int64("pire_jour_commandes", func(r *M) int64 { return r.PireJour.Orders }, func(r *M, v int64) { r.PireJour.Orders = v }),
		Decimal("ca_semaine", func(r *M) decimal.Decimal { return r.Semaine.Revenue }, func(r *M, v decimal.Decimal) { r.Semaine.Revenue = v }),
		Int64("commandes_semaine", func(r *M) int64 { return r.Semaine.Orders }, func(r *M, v int64) { r.Semaine.Orders = v }),
		Int64("jours_semaine", func(r *M) int64 { return r.Semaine.Days }, func(r *M, v int64) { r.Semaine.Days = v }),
		Decimal("ca_week_end", func(r *M) decimal.Decimal { return r.WeekEnd.Revenue }, func(r *M, v decimal.Decimal) { r.WeekEnd.Revenue = v }),
		Int64("commandes_week_end", func(r *M) int64 { return r.WeekEnd.Orders }, func(r *M, v int64) { r.WeekEnd.Orders = v }),
		Int64("jours_week_end", func(r *M) int64 { return r.WeekEnd.Days }, func(r *M, v int64) { r.WeekEnd.Days = v }),
		Bool("empty", func(r *M) bool { return r.Empty }, func(r *M, v bool) { r.Empty = v }),
	}
}

func dailySummaryColumns() []Column[model.DailySummary] {
	type D = model.DailySummary
	return []Column[D]{
		Date("date", func(r *D) time.Time { return r.Date }, func(r *D, v time.Time) { r.Date = v }),
		Int64("total_orders", func(r *D) int64 { return r.TotalOrders }, func(r *D, v int64) { r.TotalOrders = v }),
		Decimal("total_revenue", func(r *D) decimal.Decimal { return r.TotalRevenue }, func(r *D, v decimal.Decimal) { r.TotalRevenue = v }),
		Decimal("avg_order_value", func(r *D) decimal.Decimal { return r.AvgOrderValue }, func(r *D, v decimal.Decimal) { r.AvgOrderValue = v }),
		Int64("unique_customers", func(r *D) int64 { return r.UniqueCustomers }, func(r *D, v int64) { r.UniqueCustomers = v }),
		Int64("unique_products", func(r *D) int64 { return r.UniqueProducts }, func(r *D, v int64) { r.UniqueProducts = v }),
		Float64("weekend_orders_pct", func(r *D) float64 { return r.WeekendOrdersPct }, func(r *D, v float64) { r.WeekendOrdersPct = v }),
		Float64("bulk_orders_pct", func(r *D) float64 { return r.BulkOrdersPct }, func(r *D, v float64) { r.BulkOrdersPct = v }),
	}
}

// Table codecs. They are stateless and safe to share.
var (
	Orders           = NewCodec(orderColumns()...)
	Clients          = NewCodec(clientColumns()...)
	Products         = NewCodec(productColumns()...)
	EnrichedOrders   = NewCodec(enrichedOrderColumns()...)
	EnrichedClients  = NewCodec(enrichedClientColumns()...)
	EnrichedProducts = NewCodec(enrichedProductColumns()...)
	StockRows        = NewCodec(stockColumns()...)
	NewCustomerRows  = NewCodec(newCustomersColumns()...)
	MonthlyRevenues  = NewCodec(monthlyRevenueColumns()...)
	DailySummaries   = NewCodec(dailySummaryColumns()...)
)
