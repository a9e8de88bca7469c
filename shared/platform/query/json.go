package query

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UnmarshalRecords decodifica un array JSON de objetos. Los números enteros
// se devuelven como int64 y el resto como float64.
func UnmarshalRecords(data []byte) ([]Record, error) {
	var raw []map[string]any
	if err := newDecoder(data).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]Record, len(raw))
	for i, r := range raw {
		out[i] = NormalizeJSON(r).(map[string]any)
	}
	return out, nil
}

// UnmarshalRecord decodifica un único objeto JSON.
func UnmarshalRecord(data []byte) (Record, error) {
	var raw map[string]any
	if err := newDecoder(data).Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return NormalizeJSON(raw).(map[string]any), nil
}

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// NormalizeJSON convierte recursivamente los json.Number de un valor
// decodificado con UseNumber.
func NormalizeJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case map[string]any:
		for k, item := range t {
			t[k] = NormalizeJSON(item)
		}
		return t
	case Record:
		for k, item := range t {
			t[k] = NormalizeJSON(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = NormalizeJSON(item)
		}
		return t
	}
	return v
}
