package remotive

import (
	"regexp"
	"strconv"
	"strings"
)

var salaryNumber = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(k)?`)

// ParseSalaryRange extracts a salary range, in thousands of currency units,
// from provider free text such as "$40k - $50k" or "45000-55000 EUR".
// A single figure yields an equal min and max. Returns ok=false when no
// figure parses or when the range is inverted (min greater than max), in
// which case both bounds are nil and the caller logs a warning.
func ParseSalaryRange(text string) (minK, maxK *int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, false
	}

	var values []int
	for _, m := range salaryNumber.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", ".")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[2] == "" && f >= 1000 {
			f /= 1000
		}
		v := int(f + 0.5)
		if v <= 0 {
			continue
		}
		values = append(values, v)
		if len(values) == 2 {
			break
		}
	}

	switch len(values) {
	case 0:
		return nil, nil, false
	case 1:
		return &values[0], &values[0], true
	default:
		if values[0] > values[1] {
			return nil, nil, false
		}
		return &values[0], &values[1], true
	}
}
