package utils

import (
	"math"
	"strconv"
	"strings"
)

// default country code prefixed to bare national numbers (Brazil)
const defaultCountryCode = "55"

// NormalizePhone — best-effort E.164. Strips everything that is not a digit,
// prefixes "55" when the number looks national (10 or 11 digits) and
// guarantees a leading "+". Never fails: garbage in, short string out.
// NOTE: a foreign number that happens to have 10-11 digits gets mis-prefixed;
// kept as-is because the WhatsApp channel only carries BR numbers today.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 || len(digits) == 11 {
		digits = defaultCountryCode + digits
	}
	return "+" + digits
}

// ParseAmount parses a user-typed decimal amount ("10.50").
// Returns ok=false for non-numeric input or values <= 0.
func ParseAmount(input string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ToCentavos converts a BRL amount to integer centavos (floor, never rounds up).
func ToCentavos(amount float64) int64 {
	return int64(math.Floor(amount * 100))
}
