package postgres

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numericToMinor converts a NUMERIC column to minor units, given the
// currency's number of fraction digits.
func numericToMinor(s string, digits int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric string")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	return int64(math.Round(f * math.Pow10(digits))), nil
}
