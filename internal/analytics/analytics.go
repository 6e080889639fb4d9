// Package analytics computes the business reports over enriched orders: remaining stock
// per day, new-customer acquisition and monthly revenue.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ecomflow/internal/model"
)

// Stocks maps product_id to the initial stock of the day.
type Stocks map[int64]int64

// Validate rejects negative initial stock.
func (s Stocks) Validate() error {
	var bad []int64
	for id, qty := range s {
		if qty < 0 {
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 {
		sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
		return fmt.Errorf("%w: negative initial stock for products %v", model.ErrMisconfiguredInput, bad)
	}
	return nil
}

// DailyStock returns one row per product in stocks or in the day's sales, sorted by
// product_id. Products sold but absent from stocks start at zero and are flagged
// Unmanaged. Remaining stock is not clamped.
func DailyStock(orders []model.EnrichedOrder, stocks Stocks) ([]model.StockRow, error) {
	if err := stocks.Validate(); err != nil {
		return nil, err
	}
	sold := make(map[int64]int64)
	for _, o := range orders {
		sold[o.ProductID] += o.Quantity
	}
	ids := make([]int64, 0, len(stocks)+len(sold))
	for id := range stocks {
		ids = append(ids, id)
	}
	for id := range sold {
		if _, ok := stocks[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]model.StockRow, len(ids))
	for i, id := range ids {
		initial, managed := stocks[id]
		rows[i] = model.StockRow{
			ProductID:      id,
			StockInitial:   initial,
			QuantiteVendue: sold[id],
			StockRestant:   initial - sold[id],
			Unmanaged:      !managed,
		}
	}
	return rows, nil
}

// FirstOrderTracker walks days in order and counts customers seen for the first time.
// Seed it with every order dated before the first day walked.
type FirstOrderTracker struct {
	seen map[int64]struct{}
}

func NewFirstOrderTracker() *FirstOrderTracker {
	return &FirstOrderTracker{seen: make(map[int64]struct{})}
}

// Seed marks the customers of historical orders as known.
func (t *FirstOrderTracker) Seed(orders []model.EnrichedOrder) {
	for _, o := range orders {
		t.seen[o.CustomerID] = struct{}{}
	}
}

// Known is the number of customers seen so far.
func (t *FirstOrderTracker) Known() int { return len(t.seen) }

// Day counts the customers of date whose first order falls on it and sums the revenue of
// their orders that day. The day's customers are then known.
func (t *FirstOrderTracker) Day(date time.Time, orders []model.EnrichedOrder) model.NewCustomersRow {
	row := model.NewCustomersRow{Date: model.Day(date)}
	fresh := make(map[int64]struct{})
	for _, o := range orders {
		if _, old := t.seen[o.CustomerID]; old {
			continue
		}
		fresh[o.CustomerID] = struct{}{}
		row.RevenusNouveauxClients = row.RevenusNouveauxClients.Add(o.TotalAmount)
	}
	row.NouveauxClients = int64(len(fresh))
	for id := range fresh {
		t.seen[id] = struct{}{}
	}
	return row
}

// MonthlyRevenue summarises the orders of year/month. Orders dated outside the month are
// ignored. A month without orders yields a zero report flagged Empty.
func MonthlyRevenue(year, month int, orders []model.EnrichedOrder) (model.MonthlyRevenue, error) {
	if month < 1 || month > 12 {
		return model.MonthlyRevenue{}, fmt.Errorf("%w: month %d outside 1..12", model.ErrMisconfiguredInput, month)
	}
	rep := model.MonthlyRevenue{Annee: year, Mois: month}

	byDay := make(map[time.Time]*model.DayRevenue)
	for _, o := range orders {
		d := model.Day(o.OrderDate)
		if d.Year() != year || int(d.Month()) != month {
			continue
		}
		dr, ok := byDay[d]
		if !ok {
			dr = &model.DayRevenue{Date: d}
			byDay[d] = dr
		}
		dr.Revenue = dr.Revenue.Add(o.TotalAmount)
		dr.Orders++
	}
	if len(byDay) == 0 {
		rep.Empty = true
		return rep, nil
	}

	days := make([]model.DayRevenue, 0, len(byDay))
	for _, dr := range byDay {
		days = append(days, *dr)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	rep.MeilleurJour, rep.PireJour = days[0], days[0]
	for _, d := range days {
		rep.CATotal = rep.CATotal.Add(d.Revenue)
		rep.NombreCommandes += d.Orders
		if d.Revenue.GreaterThan(rep.MeilleurJour.Revenue) {
			rep.MeilleurJour = d
		}
		if d.Revenue.LessThan(rep.PireJour.Revenue) {
			rep.PireJour = d
		}
		split := &rep.Semaine
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			split = &rep.WeekEnd
		}
		split.Revenue = split.Revenue.Add(d.Revenue)
		split.Orders += d.Orders
		split.Days++
	}
	rep.JoursAvecCommandes = int64(len(days))
	rep.PanierMoyen = rep.CATotal.Div(decimal.NewFromInt(rep.NombreCommandes))
	rep.CAMoyenParJour = rep.CATotal.Div(decimal.NewFromInt(rep.JoursAvecCommandes))
	return rep, nil
}
