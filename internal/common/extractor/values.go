package extractor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// node is a decoded JavaScript object.
type node map[string]any

func asNode(v any) (node, bool) {
	switch m := v.(type) {
	case map[string]any:
		return node(m), true
	case node:
		return m, true
	}
	return nil, false
}

// child returns the object stored under key, if any.
func (n node) child(key string) (node, bool) {
	if n == nil {
		return nil, false
	}
	return asNode(n[key])
}

// path walks nested objects.
func (n node) path(keys ...string) (node, bool) {
	cur := n
	for _, k := range keys {
		next, ok := cur.child(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// lookup returns the raw value under key and whether the key exists.
func (n node) lookup(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n[key]
	return v, ok
}

func (n node) list(key string) []any {
	l, _ := n[key].([]any)
	return l
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// The opt* helpers turn a looked-up value into an attribute.
// A missing key is Absent, a key holding null or an unusable value is Null.

func optString(v any, ok bool) domain.Opt[string] {
	switch {
	case !ok:
		return domain.Opt[string]{}
	case v == nil:
		return domain.None[string]()
	}
	if s, isStr := v.(string); isStr {
		return domain.Some(s)
	}
	return domain.Some(fmt.Sprint(v))
}

func optFloat(v any, ok bool) domain.Opt[float64] {
	if !ok {
		return domain.Opt[float64]{}
	}
	if f, isNum := toFloat(v); isNum {
		return domain.Some(f)
	}
	return domain.None[float64]()
}

func optInt(v any, ok bool) domain.Opt[int] {
	if !ok {
		return domain.Opt[int]{}
	}
	if i, isNum := toInt(v); isNum {
		return domain.Some(int(i))
	}
	return domain.None[int]()
}

func optInt64(v any, ok bool) domain.Opt[int64] {
	if !ok {
		return domain.Opt[int64]{}
	}
	if i, isNum := toInt(v); isNum {
		return domain.Some(i)
	}
	return domain.None[int64]()
}

func optBool(v any, ok bool) domain.Opt[bool] {
	if !ok {
		return domain.Opt[bool]{}
	}
	if b, isBool := v.(bool); isBool {
		return domain.Some(b)
	}
	return domain.None[bool]()
}

func optAny(v any, ok bool) domain.Opt[any] {
	switch {
	case !ok:
		return domain.Opt[any]{}
	case v == nil:
		return domain.None[any]()
	}
	return domain.Some(v)
}

var (
	moneyPattern = regexp.MustCompile(`\$([\d,]+(?:\.\d+)?)([KkMm]?)`)
	intPattern   = regexp.MustCompile(`\d[\d,]*`)
)

// parseMoney reads the first dollar amount in s, expanding K and M suffixes.
func parseMoney(s string) (float64, bool) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(m[2]) {
	case "K":
		f *= 1000
	case "M":
		f *= 1000000
	}
	return f, true
}

// parseFirstInt reads the first integer in s, ignoring thousands separators.
func parseFirstInt(s string) (int, bool) {
	m := intPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	i, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	return i, err == nil
}
