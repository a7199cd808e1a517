package common

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const (
	CNPYDecimals = 6 // CNPY has 6 decimals (micro)
	Ticker       = "CNPY"
)

// MicroToCNPY converts micro units to CNPY string without float precision loss
func MicroToCNPY(micro uint64) string {
	return formatWithDecimals(micro, CNPYDecimals)
}

// CNPYToMicro converts CNPY string to micro units without float precision loss.
// More than 6 fractional digits is an error rather than a silent truncation.
func CNPYToMicro(cnpy string) (uint64, error) {
	return parseWithDecimals(cnpy, CNPYDecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(10000000, 6) = "10.000000"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("10.5", 6) = 10500000
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	whole, frac, hasPoint := strings.Cut(s, ".")
	if hasPoint && strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return 0, fmt.Errorf("too many decimal places: max %d", decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var scale uint64 = 1
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	hi, lo := bits.Mul64(w, scale)
	if hi != 0 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	sum, carry := bits.Add64(lo, f, 0)
	if carry != 0 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return sum, nil
}
