package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBadPrice is returned when a display price cannot be parsed.
var ErrBadPrice = errors.New("unparseable price")

// ParsePrice converts a display price string into a decimal. The storefront
// renders prices the Finnish way ("19,99 €", "9,90€/kk"), so currency
// symbols, unit suffixes and whitespace are stripped and a comma decimal
// separator is converted before parsing. A bare machine format ("19.99")
// also parses.
func ParsePrice(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ',' || r == '.':
			return r
		case r == '-':
			return r
		}
		return -1
	}, s)
	// "/kk" style suffixes leave nothing behind, currency symbols are gone.
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, ErrBadPrice
	}
	// Guard against thousand separators producing multiple points
	// ("1.299,00" -> "1.299.00"): keep only the last as the decimal point.
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrBadPrice
	}
	if d.IsNegative() {
		return decimal.Zero, ErrBadPrice
	}
	return d, nil
}
