// Package verify cross-checks extracted facts against the source text and
// derives the final confidence score. It also normalizes European date and
// currency notation into the ISO forms the output contract prefers.
package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var euDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`),
	regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`),
}

// isoDate matches an ISO YYYY-MM-DD value.
var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeEUDate converts DD/MM/YYYY (or DD-MM-YY) notation to ISO
// YYYY-MM-DD. Returns ok=false when the value is not a recognizable European
// date, in which case the literal must be preserved.
func NormalizeEUDate(value string) (string, bool) {
	// Already ISO: the two-digit-year pattern would otherwise re-parse
	// "2026-03-01" as 26-03-01.
	if isoDate.MatchString(strings.TrimSpace(value)) {
		return "", false
	}
	for _, pattern := range euDatePatterns {
		m := pattern.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			// Two-digit years: 00-50 are 2000s, 51-99 are 1900s.
			if year <= 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			// Rejects impossible dates like 31/02.
			continue
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
	}
	return "", false
}

// currencySymbols maps common symbols to ISO 4217 codes.
var currencySymbols = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
	"¥": "JPY",
	"₹": "INR",
}

var knownCurrencyCodes = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "JPY": true, "CHF": true, "INR": true,
}

// NormalizeCurrency maps currency symbols to ISO 4217 codes. Unrecognized
// values pass through unchanged; nil stays nil (currency is never inferred).
func NormalizeCurrency(currency *string) *string {
	if currency == nil {
		return nil
	}
	clean := strings.TrimSpace(*currency)
	if clean == "" {
		return nil
	}
	if knownCurrencyCodes[strings.ToUpper(clean)] {
		upper := strings.ToUpper(clean)
		return &upper
	}
	for symbol, code := range currencySymbols {
		if strings.Contains(clean, symbol) {
			c := code
			return &c
		}
	}
	return currency
}
