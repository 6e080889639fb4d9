package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordType names a raw data family. Each family has its own partition tree.
type RecordType string

const (
	Orders   RecordType = "orders"
	Clients  RecordType = "clients"
	Products RecordType = "products"
)

// AllRecordTypes is the processing order used when no record type filter is given.
var AllRecordTypes = []RecordType{Clients, Products, Orders}

// ParseRecordType accepts the lowercase record type names.
func ParseRecordType(s string) (RecordType, error) {
	switch rt := RecordType(strings.ToLower(strings.TrimSpace(s))); rt {
	case Orders, Clients, Products:
		return rt, nil
	}
	return "", fmt.Errorf("%w: unsupported record type %q (supported: orders, clients, products)", ErrMisconfiguredInput, s)
}

// Order is a cleaned order line. Fields are never mutated after cleaning.
type Order struct {
	OrderID      int64           `json:"order_id"`
	OrderDate    time.Time       `json:"order_date"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// Client is a cleaned customer record. RegistrationDate is zero when the source has none.
type Client struct {
	CustomerID       int64     `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Product is a cleaned catalog record. Cost and Weight are zero when the source lacks them.
type Product struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Weight      decimal.Decimal `json:"weight"`
}
