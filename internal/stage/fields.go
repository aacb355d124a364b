package stage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// object is a decoded JSON object. Numbers are kept as json.Number so that
// integer counters survive without a float64 round trip.
type object map[string]any

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, structuref("malformed json: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, structuref("trailing data after document")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, structuref("top level is %s, want object", typeName(v))
	}
	return object(m), nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func (o object) has(key string) bool {
	v, ok := o[key]
	return ok && v != nil
}

func (o object) str(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func (o object) f64(key string) float64 { return toFloat(o[key]) }
func (o object) i64(key string) int64   { return toInt64(o[key]) }
func (o object) i32(key string) int32   { return toInt32(o[key]) }

func toFloat(v any) float64 {
	var f float64
	switch v := v.(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toInt64(v any) int64 {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f := toFloat(v)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func toInt32(v any) int32 {
	n := toInt64(v)
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int32(n)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// timestamp parses an ISO-8601 field. Zone-less values are UTC, matching how
// the stages stamp their output. Missing or unparsable values yield now.
func (o object) timestamp(key string, now time.Time) time.Time {
	s := strings.TrimSpace(o.str(key))
	if s == "" {
		return now.UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now.UTC()
}

// compactDate parses the leading YYYYMMDD of a field. It returns nil instead
// of an error so one bad date never sinks the document.
func (o object) compactDate(key string) *time.Time {
	s := strings.TrimSpace(o.str(key))
	if len(s) < 8 {
		return nil
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return nil
	}
	return &t
}

// list returns the array at key. present is false for a missing or null key.
func (o object) list(key string) (items []any, present bool, err error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, true, structuref("is %s, want array", typeName(v))
	}
	return arr, true, nil
}

func (o object) objects(key string) ([]object, error) {
	arr, _, err := o.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]object, 0, len(arr))
	for i, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, structuref("element %d is %s, want object", i, typeName(it))
		}
		out = append(out, object(m))
	}
	return out, nil
}

// stringList keeps the non-blank string elements of the array at key, trimmed.
// Non-string elements are skipped.
func (o object) stringList(key string) ([]string, bool, error) {
	arr, present, err := o.list(key)
	if err != nil || !present {
		return nil, present, err
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, true, nil
}

// child returns the nested object at key, or an empty object when missing.
func (o object) child(key string) (object, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return object{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, structuref("is %s, want object", typeName(v))
	}
	return object(m), nil
}
