package clean

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecomflow/internal/columnar"
	"ecomflow/internal/model"
)

var (
	minID    = decimal.NewFromInt(1)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	// maxAmount bounds amounts to what a DECIMAL(18,4) column holds.
	maxAmount = decimal.New(1, columnar.DecimalPrecision-columnar.DecimalScale)
)

// dateLayouts are tried in order when parsing dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"02/01/2006",
	"2006/01/02",
}

// parseID reads an integer identifier. Integral floats ("12.0") are accepted since
// spreadsheet exports often write ids that way.
func parseID(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || isNullToken(s) {
		return 0, reject(ReasonMissingID, "%s is empty", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, reject(ReasonBadID, "%s %q is not an integer", field, s)
	}
	if d.LessThan(minID) || d.GreaterThan(maxInt64) {
		return 0, reject(ReasonBadID, "%s %s is out of range", field, d)
	}
	return d.IntPart(), nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, reject(ReasonBadDate, "%s %q is not a date", field, s)
}

// parseQuantity reads a strictly positive integral quantity.
func parseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, reject(ReasonBadQuantity, "quantity %q is not an integer", s)
	}
	if !d.IsPositive() {
		return 0, reject(ReasonBadQuantity, "quantity %s must be positive", d)
	}
	if d.GreaterThan(maxInt64) {
		return 0, reject(ReasonBadQuantity, "quantity %s is out of range", d)
	}
	return d.IntPart(), nil
}

// parsePositive reads a strictly positive decimal, rounded to the stored scale. Values
// that round to zero or overflow the stored precision are rejected.
func parsePositive(reason, field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, reject(reason, "%s %q is not a number", field, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, reject(reason, "%s %s must be positive", field, d)
	}
	r := d.Round(columnar.DecimalScale)
	if !r.IsPositive() {
		return decimal.Zero, reject(reason, "%s %s rounds to zero at %d decimals", field, d, columnar.DecimalScale)
	}
	if !fitsAmount(r) {
		return decimal.Zero, reject(reason, "%s %s is out of range", field, d)
	}
	return r, nil
}

func fitsAmount(d decimal.Decimal) bool { return d.Abs().LessThan(maxAmount) }

func isNullToken(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "null", "none", "<na>", "nat":
		return true
	}
	return false
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if isNullToken(s) {
		return ""
	}
	return s
}

// normalizeEmail lower-cases and trims; ok is false for values that cannot be addresses.
func normalizeEmail(s string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(s))
	if e == "" || isNullToken(e) || !strings.Contains(e, "@") {
		return e, false
	}
	return e, true
}

// normalizePhone keeps digits, '+', '-', spaces and parentheses.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == ' ', r == '(', r == ')':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
