// Package words spells rupee amounts in the Indian numbering system.
package words

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be a finite non-negative number")

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
}

var teens = []string{
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// NumberToWords converts n using crore, lakh and thousand groups. Zero yields
// an empty string; callers decide how to present it.
func NumberToWords(n int64) string {
	if n <= 0 {
		return ""
	}

	parts := make([]string, 0, 8)
	if n >= crore {
		parts = append(parts, NumberToWords(n/crore), "Crore")
		n %= crore
	}
	if n >= lakh {
		parts = append(parts, belowHundred(n/lakh), "Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, belowHundred(n/thousand), "Thousand")
		n %= thousand
	}
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func belowHundred(n int64) string {
	switch {
	case n < 10:
		return ones[n]
	case n < 20:
		return teens[n-10]
	default:
		return strings.TrimSpace(tens[n/10] + " " + ones[n%10])
	}
}

// AmountInWords renders amount as "<Rupees> Rupees[ and <Paise> Paise] Only".
func AmountInWords(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return "", ErrInvalidAmount
	}

	// Round before splitting so 99.999 carries into a whole rupee instead of
	// reading as one hundred paise.
	rounded := decimal.NewFromFloat(amount).Round(2)
	rupees := rounded.Floor()
	paise := rounded.Sub(rupees).Mul(decimal.NewFromInt(100)).IntPart()

	rupeeWords := NumberToWords(rupees.IntPart())
	if rupeeWords == "" {
		rupeeWords = "Zero"
	}

	var b strings.Builder
	b.WriteString(rupeeWords)
	b.WriteString(" Rupees")
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(NumberToWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String(), nil
}
