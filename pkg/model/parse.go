package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold separates epoch-seconds from epoch-milliseconds
// interpretations of a bare numeric timestamp. Values below it are seconds.
const epochMillisThreshold = 1_000_000_000_000

// yearDuration is the average Gregorian year, used for whole-year ages.
const yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

// ExtractTimestamp derives the event time in epoch milliseconds from a raw
// transaction payload, or 0 when no encoding yields a valid time.
// Encodings are tried in order, first success wins:
//  1. trans_date + trans_time as a combined local date-time
//  2. created_at as a combined date-time
//  3. timestamp/ts as an epoch number (seconds below the threshold, else millis)
func ExtractTimestamp(raw map[string]any) int64 {
	date := stringField(raw, "trans_date", "transaction_date")
	clock := stringField(raw, "trans_time", "transaction_time")
	if date != "" && clock != "" {
		// Coerce HH:MM to HH:MM:SS before parsing.
		if strings.Count(clock, ":") == 1 {
			clock += ":00"
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.Local); err == nil {
			return t.UnixMilli()
		}
	}

	if created := stringField(raw, "created_at", "createdAt"); created != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.ParseInLocation(layout, created, time.Local); err == nil {
				return t.UnixMilli()
			}
		}
	}

	if v, ok := numericField(raw, "timestamp", "ts"); ok {
		if v < epochMillisThreshold {
			return int64(v) * 1000
		}
		return int64(v)
	}

	return 0
}

// IsFraud resolves the tri-encoded ML prediction: boolean true, numeric 1,
// or string "1" mean fraud; anything else means legitimate.
func IsFraud(v any) bool {
	switch p := v.(type) {
	case bool:
		return p
	case float64:
		return p == 1
	case int:
		return p == 1
	case string:
		return p == "1"
	case json.Number:
		return p.String() == "1"
	}
	return false
}

// AgeAt returns the whole-year age for a date of birth at the given instant.
func AgeAt(dob, now time.Time) int {
	return int(now.Sub(dob) / yearDuration)
}

// normalizeID renders an id value as a string so that ids reported as
// numbers by one endpoint and strings by another still compare equal.
func normalizeID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// parseAmount reads an amount from its numeric or string encoding.
// Unparsable values fail to zero; the record itself is always kept.
func parseAmount(v any) float64 {
	switch a := v.(type) {
	case float64:
		return a
	case json.Number:
		if f, err := a.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(a), 64); err == nil {
			return f
		}
	case int:
		return float64(a)
	}
	return 0
}

// parseDate parses a date-only or RFC3339 value, returning nil on failure.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// firstPresent returns the first non-nil value among the given keys.
func firstPresent(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// stringField returns the first string-typed value among the given keys.
func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			return s
		}
	}
	return ""
}

// numericField returns the first numeric value among the given keys.
func numericField(raw map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := raw[k].(type) {
		case float64:
			return n, true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case int:
			return float64(n), true
		}
	}
	return 0, false
}

// floatField returns a pointer to the first numeric value among the given
// keys, or nil when absent. Used for optional coordinates.
func floatField(raw map[string]any, keys ...string) *float64 {
	if f, ok := numericField(raw, keys...); ok {
		return &f
	}
	return nil
}
