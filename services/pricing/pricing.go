// Package pricing turns human-entered package prices into invoice terms: numeric totals,
// invoice numbers, due dates, milestone shares and display strings.
package pricing

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDueDays is the offset between issue date and due date.
const DefaultDueDays = 30

var (
	priceNoise  = strings.NewReplacer("৳", "", "$", "", ",", "")
	firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
	numberFmt   = message.NewPrinter(language.English)
)

// ParsePriceToNumber extracts the first number from a display price such as "৳50,000" or
// "500 USD". For ranges like "৳50,000 - ৳80,000" the lower bound is returned. Returns 0 when
// no number is present.
func ParsePriceToNumber(price string) float64 {
	cleaned := strings.Join(strings.Fields(priceNoise.Replace(price)), "")
	match := firstNumber.FindString(cleaned)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// GenerateInvoiceNumber returns a label of the form INV-YYYY-MM-NNNNN. The random suffix is
// not checked for collisions.
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%02d-%05d", now.Year(), int(now.Month()), 10000+rand.IntN(90000))
}

// CalculateDueDate returns issue plus the given number of days.
func CalculateDueDate(issue time.Time, days int) time.Time {
	return issue.AddDate(0, 0, days)
}

// FormatCurrency renders an amount with two decimals and thousands separators, prefixed by
// ৳ for BDT and $ for everything else.
func FormatCurrency(amount float64, currency string) string {
	symbol := "$"
	if strings.EqualFold(currency, "BDT") {
		symbol = "৳"
	}
	return symbol + numberFmt.Sprintf("%.2f", Round2(amount))
}

// FormatAmount renders an amount the way it appears in timeline descriptions: no trailing
// zeros, no separators ("1000", "333.33").
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SplitEvenly divides total into n equal shares. Both the share amount and its percentage
// are rounded to two decimals, so n*amount may differ from total by a cent or two.
func SplitEvenly(total float64, n int) (amount, percentage float64) {
	if n <= 0 {
		return 0, 0
	}
	pct := decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(n)))
	share := decimal.NewFromFloat(total).Mul(pct).Div(decimal.NewFromInt(100))
	amount, _ = share.Round(2).Float64()
	percentage, _ = pct.Round(2).Float64()
	return amount, percentage
}
