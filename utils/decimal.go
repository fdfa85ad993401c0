package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice reads a user-formatted price string such as "$45.99", "£1,200" or "USD 30"
// into a decimal. Currency symbols, codes and thousands separators are ignored.
func ParsePrice(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, ErrInvalidPrice
	}
	s = strings.ReplaceAll(s, ",", "")

	neg := false
	var b strings.Builder
	b.Grow(len(s) + 1)
	seenDigit := false
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && !seenDigit:
			neg = true
		case r == ' ' && seenDigit:
			// "45.99 USD": stop at the first gap after the amount
			break scan
		}
	}
	clean := strings.Trim(b.String(), ".")
	if clean == "" || !seenDigit {
		return decimal.Zero, ErrInvalidPrice
	}
	if neg {
		clean = "-" + clean
	}

	val, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	return val, nil
}
