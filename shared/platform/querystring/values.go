package querystring

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ---------------- Parser compartido de valores ----------------

// ParseValue interpreta un token del cable: "null" es nil, los tokens
// numéricos son int64 o float64, un token entre comillas es la cadena sin
// comillas y cualquier otra cosa es la cadena tal cual.
func ParseValue(token string) any {
	if token == "null" {
		return nil
	}
	if isQuoted(token) {
		return unquote(token)
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return token
}

// formatScalar produce el token de un valor fuera de una lista. Las cadenas
// solo se entrecomillan si ParseValue no las devolvería intactas.
func formatScalar(v any) string {
	if s, ok := v.(string); ok {
		if parsed, isString := ParseValue(s).(string); isString && parsed == s {
			return s
		}
		return quote(s)
	}
	return formatValue(v)
}

// formatListItem entrecomilla siempre las cadenas.
func formatListItem(v any) string {
	if s, ok := v.(string); ok {
		return quote(s)
	}
	return formatValue(v)
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(v)
}

// ---------------- Comillas ----------------

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// unquote quita las comillas externas y resuelve los escapes con '\'.
func unquote(s string) string {
	inner := s[1 : len(s)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	escaped := false
	for _, r := range inner {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// splitList separa los elementos de "a,"b,c",3" respetando comillas.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var (
		items    []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuotes && r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			items = append(items, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	return append(items, current.String())
}
