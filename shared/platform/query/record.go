package query

// Record es la fila/documento que manejan todos los motores.
// Un campo ausente se lee como nil.
type Record map[string]any

// Get devuelve el valor del campo o nil si no existe.
func (r Record) Get(field string) any {
	return r[field]
}

// Clone devuelve una copia superficial del registro.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge devuelve un registro nuevo con values aplicados sobre r.
func (r Record) Merge(values Record) Record {
	out := make(Record, len(r)+len(values))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range values {
		out[k] = v
	}
	return out
}

// CloneAll copia superficialmente cada registro.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
