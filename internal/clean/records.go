package clean

import (
	"time"

	"github.com/shopspring/decimal"

	"ecomflow/internal/extract"
	"ecomflow/internal/model"
)

// Orders cleans an orders partition: ids, date, quantity and price are mandatory,
// text is trimmed and total_amount is computed. Duplicates by order_id keep the first
// valid row.
func Orders(t *extract.RawTable, date time.Time) (Result[model.Order], error) {
	if err := requireColumns(model.Orders, t, "order_id", "order_date", "customer_id", "product_id", "quantity", "price"); err != nil {
		return Result[model.Order]{}, err
	}
	parse := func(i int) (model.Order, error) {
		var o model.Order
		var err error
		if o.OrderID, err = parseID("order_id", t.Value(i, "order_id")); err != nil {
			return o, err
		}
		if o.CustomerID, err = parseID("customer_id", t.Value(i, "customer_id")); err != nil {
			return o, err
		}
		if o.ProductID, err = parseID("product_id", t.Value(i, "product_id")); err != nil {
			return o, err
		}
		if o.OrderDate, err = parseDate("order_date", t.Value(i, "order_date")); err != nil {
			return o, err
		}
		if o.Quantity, err = parseQuantity(t.Value(i, "quantity")); err != nil {
			return o, err
		}
		if o.Price, err = parsePositive(ReasonBadPrice, "price", t.Value(i, "price")); err != nil {
			return o, err
		}
		o.CustomerName = cleanText(t.Value(i, "customer_name"))
		o.ProductName = cleanText(t.Value(i, "product_name"))
		o.Status = cleanText(t.Value(i, "status"))
		o.TotalAmount = o.Price.Mul(decimal.NewFromInt(o.Quantity))
		if !fitsAmount(o.TotalAmount) {
			return o, reject(ReasonBadQuantity, "total_amount %s of %d x %s is out of range", o.TotalAmount, o.Quantity, o.Price)
		}
		return o, nil
	}
	return run(model.Orders, t, date, "order_id", parse, func(o *model.Order) int64 { return o.OrderID }), nil
}

// Clients cleans a clients partition. When the source has an email column every row
// needs a plausible address.
func Clients(t *extract.RawTable, date time.Time) (Result[model.Client], error) {
	if err := requireColumns(model.Clients, t, "customer_id"); err != nil {
		return Result[model.Client]{}, err
	}
	hasEmail := t.Has("email")
	parse := func(i int) (model.Client, error) {
		var c model.Client
		var err error
		if c.CustomerID, err = parseID("customer_id", t.Value(i, "customer_id")); err != nil {
			return c, err
		}
		if hasEmail {
			email, ok := normalizeEmail(t.Value(i, "email"))
			if !ok {
				return c, reject(ReasonBadEmail, "email %q is not an address", email)
			}
			c.Email = email
		}
		c.CustomerName = cleanText(t.Value(i, "customer_name"))
		if c.CustomerName == "" {
			first, last := cleanText(t.Value(i, "first_name")), cleanText(t.Value(i, "last_name"))
			c.CustomerName = cleanText(first + " " + last)
		}
		c.Phone = normalizePhone(t.Value(i, "phone"))
		c.Address = cleanText(t.Value(i, "address"))
		c.City = cleanText(t.Value(i, "city"))
		if s := cleanText(t.Value(i, "registration_date")); s != "" {
			// an unreadable registration date is not critical
			if d, err := parseDate("registration_date", s); err == nil {
				c.RegistrationDate = d
			}
		}
		return c, nil
	}
	return run(model.Clients, t, date, "customer_id", parse, func(c *model.Client) int64 { return c.CustomerID }), nil
}

// Products cleans a products partition. price, cost and weight must be positive when the
// source carries them.
func Products(t *extract.RawTable, date time.Time) (Result[model.Product], error) {
	if err := requireColumns(model.Products, t, "product_id", "product_name"); err != nil {
		return Result[model.Product]{}, err
	}
	numeric := []struct {
		col    string
		reason string
		set    func(*model.Product, decimal.Decimal)
	}{
		{"price", ReasonBadPrice, func(p *model.Product, d decimal.Decimal) { p.Price = d }},
		{"cost", ReasonBadNumber, func(p *model.Product, d decimal.Decimal) { p.Cost = d }},
		{"weight", ReasonBadNumber, func(p *model.Product, d decimal.Decimal) { p.Weight = d }},
	}
	parse := func(i int) (model.Product, error) {
		var p model.Product
		var err error
		if p.ProductID, err = parseID("product_id", t.Value(i, "product_id")); err != nil {
			return p, err
		}
		if p.ProductName = cleanText(t.Value(i, "product_name")); p.ProductName == "" {
			return p, reject(ReasonMissingField, "product_name is empty")
		}
		for _, n := range numeric {
			if !t.Has(n.col) {
				continue
			}
			d, err := parsePositive(n.reason, n.col, t.Value(i, n.col))
			if err != nil {
				return p, err
			}
			n.set(&p, d)
		}
		p.Category = cleanText(t.Value(i, "category"))
		p.Brand = cleanText(t.Value(i, "brand"))
		p.Description = cleanText(t.Value(i, "description"))
		return p, nil
	}
	return run(model.Products, t, date, "product_id", parse, func(p *model.Product) int64 { return p.ProductID }), nil
}
