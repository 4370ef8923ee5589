package collection

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Undefined is what an absent attribute stringifies to.
const Undefined = "undefined"

// Stringify renders a raw JSON value the way loosely typed clients print it:
// strings verbatim, numbers in shortest form, arrays joined by commas and
// objects as "[object Object]".
func Stringify(raw json.RawMessage, present bool) string {
	if !present {
		return Undefined
	}
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return Undefined
	}
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return string(t)
		}
		return s
	case '{':
		return "[object Object]"
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(t, &items); err != nil {
			return string(t)
		}
		parts := make([]string, len(items))
		for i, it := range items {
			// null and undefined elements print as empty strings
			if s := string(bytes.TrimSpace(it)); s == "null" {
				continue
			}
			parts[i] = Stringify(it, true)
		}
		return strings.Join(parts, ",")
	case 't', 'f', 'n':
		return string(t)
	}
	return stringifyNumber(string(t))
}

// stringifyNumber prints plain decimals for 1e-6 <= |x| < 1e21 and the
// shortest exponent form ("1e+21", "1.5e-7") outside that range.
func stringifyNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FieldEquals is the matcher shared by Filter and PredicateDelete: the
// stringified attribute compared case-insensitively with value.
func FieldEquals(r Record, field, value string) bool {
	v, ok := r.Field(field)
	return strings.EqualFold(Stringify(v, ok), value)
}

// Predicate is a parsed "field=value" delete token.
type Predicate struct {
	Field string
	Value string
}

// ParsePredicate splits token once on '='. ok is false when the token has no
// '=' or an empty field name.
func ParsePredicate(token string) (Predicate, bool) {
	field, value, found := strings.Cut(token, "=")
	if !found || field == "" {
		return Predicate{Field: field}, false
	}
	return Predicate{Field: field, Value: value}, true
}
