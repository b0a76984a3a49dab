// Package payload is the JSON value layer used by every parser in the repo.
//
// Values are gjson.Result (a tagged union over null/bool/number/string/
// array/object). Lookups go through the typed accessors below, each of which
// tries a list of gjson paths in order and reports whether any of them held
// a usable value. That keeps "required" and "best-effort" reads explicit at
// the call site instead of chains of manual casts.
package payload

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidJSON is returned by Parse for bodies that are not valid JSON.
var ErrInvalidJSON = errors.New("invalid json")

// Parse validates and parses a response body. An empty body parses to a null
// value.
func Parse(body []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.ParseBytes(trimmed), nil
}

// Unwrap returns the nested value when v is an object carrying a "data" key,
// otherwise v itself.
func Unwrap(v gjson.Result) gjson.Result {
	if v.IsObject() {
		if data := v.Get("data"); data.Exists() {
			return data
		}
	}
	return v
}

// Escape escapes a literal object key for use as a gjson/sjson path.
func Escape(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func first(v gjson.Result, paths []string, accept func(gjson.Result) bool) (gjson.Result, bool) {
	for _, path := range paths {
		r := v.Get(path)
		if r.Exists() && r.Type != gjson.Null && accept(r) {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// Str returns the first non-empty string (or number rendered as text) found
// at any of paths.
func Str(v gjson.Result, paths ...string) (string, bool) {
	r, ok := first(v, paths, func(r gjson.Result) bool {
		return (r.Type == gjson.String || r.Type == gjson.Number) && strings.TrimSpace(r.String()) != ""
	})
	if !ok {
		return "", false
	}
	return strings.TrimSpace(r.String()), true
}

// String is Str without the presence flag.
func String(v gjson.Result, paths ...string) string {
	s, _ := Str(v, paths...)
	return s
}

// Float returns the first numeric value (or numeric string) at any of paths.
func Float(v gjson.Result, paths ...string) (float64, bool) {
	var out float64
	_, ok := first(v, paths, func(r gjson.Result) bool {
		switch r.Type {
		case gjson.Number:
			out = r.Num
			return true
		case gjson.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
			if err != nil {
				return false
			}
			out = f
			return true
		}
		return false
	})
	return out, ok
}

// FloatPtr is Float returning nil when absent.
func FloatPtr(v gjson.Result, paths ...string) *float64 {
	if f, ok := Float(v, paths...); ok {
		return &f
	}
	return nil
}

// Int64 returns the first integral value at any of paths; fractional
// numbers are truncated.
func Int64(v gjson.Result, paths ...string) (int64, bool) {
	f, ok := Float(v, paths...)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Int is Int64 narrowed to int.
func Int(v gjson.Result, paths ...string) (int, bool) {
	n, ok := Int64(v, paths...)
	return int(n), ok
}

// IntPtr is Int returning nil when absent.
func IntPtr(v gjson.Result, paths ...string) *int {
	if n, ok := Int(v, paths...); ok {
		return &n
	}
	return nil
}

// Bool returns the first boolean-like value at any of paths. Strings such as
// "true", "enabled" or "on" and non-zero numbers are accepted.
func Bool(v gjson.Result, paths ...string) (bool, bool) {
	var out bool
	_, ok := first(v, paths, func(r gjson.Result) bool {
		switch r.Type {
		case gjson.True, gjson.False:
			out = r.Bool()
			return true
		case gjson.Number:
			out = r.Num != 0
			return true
		case gjson.String:
			switch strings.ToLower(strings.TrimSpace(r.Str)) {
			case "true", "yes", "on", "enabled", "enable", "1":
				out = true
				return true
			case "false", "no", "off", "disabled", "disable", "0":
				out = false
				return true
			}
		}
		return false
	})
	return out, ok
}

// BoolPtr is Bool returning nil when absent.
func BoolPtr(v gjson.Result, paths ...string) *bool {
	if b, ok := Bool(v, paths...); ok {
		return &b
	}
	return nil
}

// Time returns the first timestamp at any of paths. Numbers (and numeric
// strings) are Unix epochs; values above 1e12 are taken as milliseconds.
// Other strings go through dateparse.
func Time(v gjson.Result, paths ...string) (time.Time, bool) {
	var out time.Time
	_, ok := first(v, paths, func(r gjson.Result) bool {
		switch r.Type {
		case gjson.Number:
			out = epoch(r.Num)
			return true
		case gjson.String:
			text := strings.TrimSpace(r.Str)
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				out = epoch(f)
				return true
			}
			t, err := dateparse.ParseAny(text)
			if err != nil {
				return false
			}
			out = t.UTC()
			return true
		}
		return false
	})
	return out, ok
}

func epoch(f float64) time.Time {
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

// Object returns the first object found at any of paths.
func Object(v gjson.Result, paths ...string) (gjson.Result, bool) {
	return first(v, paths, func(r gjson.Result) bool { return r.IsObject() })
}

// List accepts the list shapes the vendor returns: a bare array,
// {"count": n, "data": [...]}, {"data": {"data": [...]}} and objects that
// carry the array under one of the extra keys. Anything else yields nil.
func List(v gjson.Result, keys ...string) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	if !v.IsObject() {
		return nil
	}
	if data := v.Get("data"); data.IsArray() {
		return data.Array()
	} else if data.IsObject() {
		if nested := List(data, keys...); nested != nil {
			return nested
		}
	}
	for _, key := range keys {
		if r := v.Get(Escape(key)); r.IsArray() {
			return r.Array()
		}
	}
	return nil
}

// RawList renders items back into a JSON array.
func RawList(items []gjson.Result) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		if item.Raw == "" {
			b.WriteString("null")
			continue
		}
		b.WriteString(item.Raw)
	}
	b.WriteByte(']')
	return b.String()
}

// Set stores raw JSON under a literal key of doc. An empty doc is treated as
// an empty object.
func Set(doc, key, raw string) (string, error) {
	if strings.TrimSpace(doc) == "" {
		doc = "{}"
	}
	if raw == "" {
		raw = "null"
	}
	return sjson.SetRaw(doc, Escape(key), raw)
}

// DeepMerge merges incoming onto base: for every key of incoming, nested
// objects present on both sides merge recursively, anything else is
// overwritten by the incoming value. Keys only present in base are kept.
func DeepMerge(base, incoming gjson.Result) gjson.Result {
	return gjson.Parse(mergeRaw(base, incoming))
}

func mergeRaw(base, incoming gjson.Result) string {
	if !base.IsObject() || !incoming.IsObject() {
		if incoming.Exists() {
			return incoming.Raw
		}
		return base.Raw
	}

	out := base.Raw
	incoming.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "" {
			return true
		}
		path := Escape(name)
		raw := value.Raw
		if existing := base.Get(path); existing.IsObject() && value.IsObject() {
			raw = mergeRaw(existing, value)
		}
		if next, err := sjson.SetRaw(out, path, raw); err == nil {
			out = next
		}
		return true
	})
	return out
}
