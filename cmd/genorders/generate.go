package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"ecomflow/internal/extract"
	"ecomflow/internal/model"
)

var (
	firstNames = []string{"Jean", "Marie", "Paul", "Sophie", "Luc", "Camille", "Hugo", "Léa", "Louis", "Chloé"}
	lastNames  = []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand"}
	domains    = []string{"gmail.com", "yahoo.fr", "outlook.com", "hotmail.fr", "orange.fr", "free.fr"}
	cities     = []string{"Paris", "Lyon", "Marseille", "Toulouse", "Nantes", "Lille", "Bordeaux"}
	categories = []string{"Informatique", "Maison", "Sport", "Livres", "Jardin"}
	statuses   = []string{"livrée", "expédiée", "en préparation", "annulée"}
)

type product struct {
	id       int
	name     string
	category string
	price    float64
}

type generator struct {
	rng       *rand.Rand
	customers int
	catalog   []product
	dirty     float64
	nextOrder int
}

func newGenerator(rng *rand.Rand, customers, products int, dirty float64) *generator {
	g := &generator{rng: rng, customers: customers, dirty: dirty, nextOrder: 1}
	for i := 1; i <= products; i++ {
		cat := categories[rng.Intn(len(categories))]
		g.catalog = append(g.catalog, product{
			id:       i,
			name:     fmt.Sprintf("%s %d", cat, i),
			category: cat,
			price:    float64(199+rng.Intn(30000)) / 100,
		})
	}
	return g
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func customerName(id int) string {
	return firstNames[id%len(firstNames)] + " " + lastNames[id%len(lastNames)]
}

// day builds the raw tables of one date. A share of rows is duplicated or corrupted so
// the cleaner has something to reject.
func (g *generator) day(date time.Time, orders int) map[model.RecordType]*extract.RawTable {
	ds := date.Format(model.DateLayout)

	var orderRows [][]string
	for i := 0; i < orders; i++ {
		c := 1 + g.rng.Intn(g.customers)
		p := g.catalog[g.rng.Intn(len(g.catalog))]
		row := []string{
			strconv.Itoa(g.nextOrder), ds, strconv.Itoa(c), customerName(c),
			strconv.Itoa(p.id), p.name, strconv.Itoa(1 + g.rng.Intn(6)), money(p.price),
			statuses[g.rng.Intn(len(statuses))],
		}
		g.nextOrder++
		orderRows = append(orderRows, row)
		if g.rng.Float64() < g.dirty {
			orderRows = append(orderRows, g.corrupt(row))
		}
	}

	var clientRows [][]string
	for c := 1; c <= g.customers; c++ {
		if g.rng.Intn(4) != 0 {
			continue
		}
		first, last := firstNames[c%len(firstNames)], lastNames[c%len(lastNames)]
		email := fmt.Sprintf(" %s.%s%d@%s ", first, last, c, domains[c%len(domains)])
		if g.rng.Float64() < g.dirty {
			email = "nan"
		}
		reg := date.AddDate(0, 0, -g.rng.Intn(700)).Format(model.DateLayout)
		clientRows = append(clientRows, []string{strconv.Itoa(c), first, last, email,
			fmt.Sprintf("+33 6 %02d %02d %02d %02d", g.rng.Intn(100), g.rng.Intn(100), g.rng.Intn(100), g.rng.Intn(100)),
			cities[c%len(cities)], reg})
	}

	var productRows [][]string
	for _, p := range g.catalog {
		productRows = append(productRows, []string{strconv.Itoa(p.id), p.name, p.category, "Marque " + p.category[:3], money(p.price), money(p.price * 0.6)})
	}

	return map[model.RecordType]*extract.RawTable{
		model.Orders: extract.NewRawTable(
			[]string{"order_id", "order_date", "customer_id", "customer_name", "product_id", "product_name", "quantity", "price", "status"},
			orderRows),
		model.Clients: extract.NewRawTable(
			[]string{"customer_id", "first_name", "last_name", "email", "phone", "city", "registration_date"},
			clientRows),
		model.Products: extract.NewRawTable(
			[]string{"product_id", "product_name", "category", "brand", "price", "cost"},
			productRows),
	}
}

// corrupt returns a duplicate of row or a copy with one broken field.
func (g *generator) corrupt(row []string) []string {
	out := append([]string(nil), row...)
	switch g.rng.Intn(5) {
	case 0:
		out[6] = "0"
	case 1:
		out[7] = "-" + out[7]
	case 2:
		out[1] = "not-a-date"
	case 3:
		out[0] = ""
	}
	return out
}
