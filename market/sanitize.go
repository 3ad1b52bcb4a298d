package market

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RawCandle is an untrusted feed record. Keys are the lower-case field
// names time, open, high, low and close; values may be numbers,
// json.Number or strings.
type RawCandle map[string]any

// Report counts what happened to each record during sanitization.
type Report struct {
	Input        int
	Unparseable  int // a field could not be coerced to a finite number
	Inconsistent int // OHLC invariant violated
	Duplicates   int // later records sharing a timestamp
	Kept         int
}

func (r Report) Dropped() int {
	return r.Input - r.Kept
}

func (r Report) String() string {
	return fmt.Sprintf("input=%d kept=%d unparseable=%d inconsistent=%d duplicates=%d",
		r.Input, r.Kept, r.Unparseable, r.Inconsistent, r.Duplicates)
}

// msThreshold separates epoch milliseconds from epoch seconds.
const msThreshold = 1e12

// Sanitize turns raw feed records into a canonical Series:
//
//  1. coerce every field to a finite number (or reject the record)
//  2. drop records failing the OHLC invariant
//  3. sort ascending by time
//  4. drop later records that share a timestamp (keep-first policy)
func Sanitize(raw []RawCandle) (Series, Report) {
	rep := Report{Input: len(raw)}

	candles := make([]Candle, 0, len(raw))
	for _, r := range raw {
		c, ok := coerce(r)
		if !ok {
			rep.Unparseable++
			continue
		}
		candles = append(candles, c)
	}

	series, inconsistent, dups := normalize(candles)
	rep.Inconsistent = inconsistent
	rep.Duplicates = dups
	rep.Kept = len(series)
	return series, rep
}

// Normalize runs the validation, ordering and dedup steps on typed candles.
// It is idempotent: Normalize(Normalize(x)) equals Normalize(x).
func Normalize(candles []Candle) Series {
	s, _, _ := normalize(candles)
	return s
}

func normalize(candles []Candle) (Series, int, int) {
	valid := make([]Candle, 0, len(candles))
	inconsistent := 0
	for _, c := range candles {
		if !c.Valid() {
			inconsistent++
			continue
		}
		valid = append(valid, c)
	}

	// Stable so that "first" among equal timestamps means first in input order.
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Time < valid[j].Time })

	out := make(Series, 0, len(valid))
	dups := 0
	for i, c := range valid {
		if i > 0 && c.Time == out[len(out)-1].Time {
			dups++
			continue
		}
		out = append(out, c)
	}
	return out, inconsistent, dups
}

func coerce(r RawCandle) (Candle, bool) {
	if r == nil {
		return Candle{}, false
	}
	ts, ok := normalizeTime(r["time"])
	if !ok {
		return Candle{}, false
	}
	var prices [4]float64
	for i, k := range [...]string{"open", "high", "low", "close"} {
		v, ok := toNumber(r[k])
		if !ok {
			return Candle{}, false
		}
		prices[i] = v
	}
	return Candle{Time: ts, Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]}, true
}

// toNumber coerces numbers and numeric strings. Empty strings, booleans
// and everything else are rejected.
func toNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// normalizeTime returns unix seconds. Strings are parsed as ISO-like dates
// (UTC when no zone is given); numbers are epoch seconds, or epoch
// milliseconds when greater than 1e12.
// maxEpoch is 2^63, the first float64 outside int64 range.
const maxEpoch = 9.223372036854775807e18

func normalizeTime(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		return parseISOTime(s)
	}
	f, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	if f > msThreshold {
		f /= 1000
	}
	f = math.Floor(f)
	if f >= maxEpoch || f < -maxEpoch {
		return 0, false
	}
	return int64(f), true
}

func parseISOTime(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
