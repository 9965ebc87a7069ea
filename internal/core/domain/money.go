package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a decimal major-unit amount such as "10" or "10.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.New("amount cannot be negative")
	}
	return amount, nil
}

// NormalizeCurrency upper-cases an ISO 4217 alphabetic code.
func NormalizeCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if len(c) != 3 {
		return "", errors.New("currency must be a three letter ISO 4217 code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", errors.New("currency must be a three letter ISO 4217 code")
		}
	}
	return c, nil
}
