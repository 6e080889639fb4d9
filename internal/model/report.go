package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRow is one line of the daily stock report.
type StockRow struct {
	ProductID      int64 `json:"product_id"`
	StockInitial   int64 `json:"stock_initial"`
	QuantiteVendue int64 `json:"quantite_vendue"`
	StockRestant   int64 `json:"stock_restant"`
	// Unmanaged is set when the product sold but is absent from the stock map.
	Unmanaged bool `json:"unmanaged"`
}

// NewCustomersRow counts customers whose first ever order falls on Date.
type NewCustomersRow struct {
	Date                   time.Time       `json:"date"`
	NouveauxClients        int64           `json:"nouveaux_clients"`
	RevenusNouveauxClients decimal.Decimal `json:"revenus_nouveaux_clients"`
}

// DayRevenue is the revenue of a single calendar day.
type DayRevenue struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// RevenueSplit aggregates revenue over a subset of days.
type RevenueSplit struct {
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
	Days    int64           `json:"days"`
}

// MonthlyRevenue summarises one calendar month. Values are exact; use Rounded before
// presenting them.
type MonthlyRevenue struct {
	Annee              int             `json:"annee"`
	Mois               int             `json:"mois"`
	CATotal            decimal.Decimal `json:"ca_total"`
	NombreCommandes    int64           `json:"nombre_commandes"`
	PanierMoyen        decimal.Decimal `json:"panier_moyen"`
	CAMoyenParJour     decimal.Decimal `json:"ca_moyen_par_jour"`
	JoursAvecCommandes int64           `json:"jours_avec_commandes"`
	MeilleurJour       DayRevenue      `json:"meilleur_jour"`
	PireJour           DayRevenue      `json:"pire_jour"`
	Semaine            RevenueSplit    `json:"semaine"`
	WeekEnd            RevenueSplit    `json:"week_end"`
	Empty              bool            `json:"empty"`
}

// Rounded returns a copy with every amount rounded to currency precision.
func (m MonthlyRevenue) Rounded() MonthlyRevenue {
	m.CATotal = m.CATotal.Round(2)
	m.PanierMoyen = m.PanierMoyen.Round(2)
	m.CAMoyenParJour = m.CAMoyenParJour.Round(2)
	m.MeilleurJour.Revenue = m.MeilleurJour.Revenue.Round(2)
	m.PireJour.Revenue = m.PireJour.Revenue.Round(2)
	m.Semaine.Revenue = m.Semaine.Revenue.Round(2)
	m.WeekEnd.Revenue = m.WeekEnd.Revenue.Round(2)
	return m
}

// DailySummary is the per-day headline of enriched orders.
type DailySummary struct {
	Date             time.Time       `json:"date"`
	TotalOrders      int64           `json:"total_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AvgOrderValue    decimal.Decimal `json:"avg_order_value"`
	UniqueCustomers  int64           `json:"unique_customers"`
	UniqueProducts   int64           `json:"unique_products"`
	WeekendOrdersPct float64         `json:"weekend_orders_pct"`
	BulkOrdersPct    float64         `json:"bulk_orders_pct"`
}

// Condition kinds reported by range operations.
const (
	ConditionMissingSource = "missing_source"
	ConditionEmptyDataset  = "empty_dataset"
)

// Condition records a day a range operation could not use.
type Condition struct {
	Date    time.Time `json:"date"`
	Stage   string    `json:"stage"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// StockDay is the stock report of one date.
type StockDay struct {
	Date time.Time  `json:"date"`
	Rows []StockRow `json:"rows"`
}

// ComprehensiveReport bundles every report over a date range.
type ComprehensiveReport struct {
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	Stock        []StockDay        `json:"stock"`
	NewCustomers []NewCustomersRow `json:"new_customers"`
	Monthly      []MonthlyRevenue  `json:"monthly"`
	Conditions   []Condition       `json:"conditions"`
}
