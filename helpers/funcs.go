package helpers

import (
	"strconv"
	"strings"

	"github.com/sdcoffey/big"
	"github.com/shopspring/decimal"
)

// RoundTo rounds value half away from zero to the given decimal places.
func RoundTo(value float64, places int32) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(places).Float64()
	return rounded
}

// FormatDecimal renders value with a fixed number of decimals for the form.
func FormatDecimal(value float64, places int) string {
	return big.NewDecimal(value).FormattedString(places)
}

// ParseLeadingInt reads an optionally signed integer prefix, ignoring leading
// whitespace and any trailing characters: "12px" reads as 12. ok is false
// when text does not start with a digit.
func ParseLeadingInt(text string) (int, bool) {
	text = strings.TrimSpace(text)
	end := 0
	if end < len(text) && (text[end] == '+' || text[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	value, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseLeadingFloat is the float counterpart of ParseLeadingInt: "0.25%"
// reads as 0.25.
func ParseLeadingFloat(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	end := 0
	if end < len(text) && (text[end] == '+' || text[end] == '-') {
		end++
	}
	digits := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
		digits++
	}
	if end < len(text) && text[end] == '.' {
		end++
		for end < len(text) && text[end] >= '0' && text[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if end < len(text) && (text[end] == 'e' || text[end] == 'E') {
		exponentEnd := end + 1
		if exponentEnd < len(text) && (text[exponentEnd] == '+' || text[exponentEnd] == '-') {
			exponentEnd++
		}
		exponentDigits := exponentEnd
		for exponentEnd < len(text) && text[exponentEnd] >= '0' && text[exponentEnd] <= '9' {
			exponentEnd++
		}
		if exponentEnd > exponentDigits {
			end = exponentEnd
		}
	}
	value, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// IntOrZero and FloatOrZero give the form a safe value for unreadable input.
func IntOrZero(text string) int {
	value, _ := ParseLeadingInt(text)
	return value
}

func FloatOrZero(text string) float64 {
	value, _ := ParseLeadingFloat(text)
	return value
}
