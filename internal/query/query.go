// Package query parses URL query strings for every transport that serves the
// calculation endpoints.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Parse splits a raw query string ("num1=10&num2=4") into a key/value map.
// Keys and values are percent-decoded with '+' read as a space. A component that
// fails to decode is kept verbatim. The first occurrence of a key wins; pairs
// with an empty key are dropped. A leading '?' is ignored.
func Parse(raw string) map[string]string {
	values := make(map[string]string)
	raw = strings.TrimPrefix(raw, "?")

	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		if _, seen := values[key]; seen {
			continue
		}
		values[key] = unescape(value)
	}

	return values
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// Float parses values[key] as a finite float64.
// ok is false when the key is absent, the value is not a number, or the value
// is infinite or NaN.
func Float(values map[string]string, key string) (f float64, present, ok bool) {
	raw, present := values[key]
	if !present {
		return 0, false, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, true, false
	}
	return f, true, true
}

// FloatOrZero returns the finite float at values[key], or 0 when it is absent
// or malformed.
func FloatOrZero(values map[string]string, key string) float64 {
	f, _, ok := Float(values, key)
	if !ok {
		return 0
	}
	return f
}
