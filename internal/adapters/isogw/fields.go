package isogw

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/shopspring/decimal"
)

func messageType(t domain.TransactionType) (string, error) {
	switch t {
	case domain.TypeAuthorize:
		return "0100", nil
	case domain.TypeSale, domain.TypeRefund:
		return "0200", nil
	case domain.TypeCapture:
		return "0220", nil
	case domain.TypeReverse, domain.TypeVoid:
		return "0400", nil
	default:
		return "", fmt.Errorf("no message type for %s", t)
	}
}

// processingCode is field 3: transaction type, from account, to account.
func processingCode(req domain.NormalizedRequest) string {
	switch req.TransactionType {
	case domain.TypeRefund:
		return "200000"
	case domain.TypeReverse, domain.TypeVoid:
		if ref, ok := req.PaymentMethod.(*domain.TransactionReference); ok && ref.OriginalType == domain.TypeRefund {
			return "200000"
		}
		return "000000"
	default:
		return "000000"
	}
}

type currency struct {
	numeric  string
	exponent int32
}

var currencies = map[string]currency{
	"AUD": {"036", 2},
	"BHD": {"048", 3},
	"CAD": {"124", 2},
	"CHF": {"756", 2},
	"EUR": {"978", 2},
	"GBP": {"826", 2},
	"JPY": {"392", 0},
	"KWD": {"414", 3},
	"NGN": {"566", 2},
	"USD": {"840", 2},
}

func lookupCurrency(code string) (currency, bool) {
	c, ok := currencies[strings.ToUpper(code)]
	return c, ok
}

// minorUnits renders amount as the 12 digit field 4 value.
func minorUnits(amount decimal.Decimal, exponent int32) (string, error) {
	if amount.IsNegative() {
		return "", errors.New("amount must not be negative")
	}
	minor := amount.Shift(exponent)
	if !minor.Equal(minor.Truncate(0)) {
		return "", fmt.Errorf("amount %s has more than %d decimal places", amount, exponent)
	}
	digits := minor.StringFixed(0)
	if len(digits) > 12 {
		return "", fmt.Errorf("amount %s does not fit in 12 digits", amount)
	}
	return padLeft(digits, 12), nil
}

// expiry is field 14, YYMM.
func expiry(month, year int) string {
	if month < 1 || month > 12 || year <= 0 {
		return ""
	}
	return fmt.Sprintf("%02d%02d", year%100, month)
}

// walletData is the field 48 payload of a decrypted wallet payment.
func walletData(w *domain.MobileWallet) string {
	var b strings.Builder
	b.WriteString("CAVV=")
	b.WriteString(w.Cryptogram)
	if w.Eci != "" {
		b.WriteString(";ECI=")
		b.WriteString(w.Eci)
	}
	if w.MobileType != "" {
		b.WriteString(";WALLET=")
		b.WriteString(string(w.MobileType))
	}
	return b.String()
}

// retrievalReference is field 37 in the YDDDhh + STAN layout.
func retrievalReference(t time.Time, stan string) string {
	return fmt.Sprintf("%s%03d%s%s", t.Format("06")[1:], t.YearDay(), t.Format("15"), stan)
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
