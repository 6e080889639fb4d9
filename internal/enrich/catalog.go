package enrich

import (
	"strings"
	"unicode/utf8"

	"ecomflow/internal/model"
)

// Clients enriches cleaned clients with registration calendar columns and email
// classification.
func Clients(clients []model.Client) []model.EnrichedClient {
	out := make([]model.EnrichedClient, len(clients))
	for i, c := range clients {
		domain := EmailDomain(c.Email)
		out[i] = model.EnrichedClient{
			Client:            c,
			Temporal:          Calendar(c.RegistrationDate),
			EmailDomain:       domain,
			EmailProviderType: ProviderType(domain),
		}
	}
	return out
}

// EmailDomain returns the part after the last '@', or "" when there is none.
func EmailDomain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// ProviderType classifies a mail domain.
func ProviderType(domain string) string {
	switch {
	case strings.Contains(domain, "gmail"):
		return "Gmail"
	case strings.Contains(domain, "yahoo"):
		return "Yahoo"
	case strings.Contains(domain, "outlook"), strings.Contains(domain, "hotmail"):
		return "Outlook"
	}
	return "Autre"
}

// Products enriches cleaned products with price bucketing and name statistics.
func Products(products []model.Product) []model.EnrichedProduct {
	out := make([]model.EnrichedProduct, len(products))
	if len(products) == 0 {
		return out
	}
	prices := make([]float64, len(products))
	for i, p := range products {
		prices[i] = p.Price.InexactFloat64()
	}
	quartiles := qcut(prices, quartileLabels)
	pm, psd := mean(prices), stddev(prices)
	for i, p := range products {
		out[i] = model.EnrichedProduct{
			Product:       p,
			PriceQuartile: quartiles[i],
			PriceCategory: spreadCategory(prices[i], pm, psd),
			NameLength:    int64(utf8.RuneCountInString(p.ProductName)),
			WordCount:     int64(len(strings.Fields(p.ProductName))),
		}
	}
	return out
}
