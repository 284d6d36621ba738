package service

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	openRangeRe  = regexp.MustCompile(`^\d+\+$`)
	closedRangeRe = regexp.MustCompile(`^\d+-\d+$`)
)

// PriceRange is one selected price facet. Max is nil for open-ended
// "min+" ranges.
type PriceRange struct {
	Min float64
	Max *float64
}

// Contains reports whether price falls inside the range (inclusive).
func (r PriceRange) Contains(price float64) bool {
	if price < r.Min {
		return false
	}
	return r.Max == nil || price <= *r.Max
}

// ParsePriceRanges parses the comma-separated price_ranges parameter.
// Supported tokens: "min-max" and "min+". Invalid tokens are skipped;
// an empty result means the caller falls back to the default path.
func ParsePriceRanges(raw string) []PriceRange {
	var out []PriceRange
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch {
		case openRangeRe.MatchString(tok):
			min, err := strconv.ParseFloat(tok[:len(tok)-1], 64)
			if err == nil {
				out = append(out, PriceRange{Min: min})
			}
		case closedRangeRe.MatchString(tok):
			parts := strings.SplitN(tok, "-", 2)
			min, err1 := strconv.ParseFloat(parts[0], 64)
			max, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 == nil && err2 == nil {
				out = append(out, PriceRange{Min: min, Max: &max})
			}
		}
	}
	return out
}

// Superset computes the single covering range used to scan once instead
// of per range. The upper bound is open when any member range is open.
func Superset(ranges []PriceRange) PriceRange {
	super := PriceRange{Min: ranges[0].Min}
	var max float64
	bounded := true
	for _, r := range ranges {
		if r.Min < super.Min {
			super.Min = r.Min
		}
		if r.Max == nil {
			bounded = false
			continue
		}
		if *r.Max > max {
			max = *r.Max
		}
	}
	if bounded {
		super.Max = &max
	}
	return super
}

// InAnyRange reports whether price falls inside at least one range.
func InAnyRange(price float64, ranges []PriceRange) bool {
	for _, r := range ranges {
		if r.Contains(price) {
			return true
		}
	}
	return false
}
