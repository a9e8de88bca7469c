package domain

import "github.com/davicafu/hexaquery/shared/platform/query"

// Meta son los metadatos de paginación de un RecordList.
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// RecordList es el resultado de una operación multi-registro.
type RecordList struct {
	Records []query.Record `json:"records"`
	Meta    Meta           `json:"meta"`
}

// NewRecordList calcula los metadatos: limit vale length si la consulta no lo
// fija y offset vale 0.
func NewRecordList(records []query.Record, total int, q query.Query) RecordList {
	if records == nil {
		records = []query.Record{}
	}
	limit, ok := q.Limit()
	if !ok {
		limit = len(records)
	}
	offset, _ := q.Offset()

	return RecordList{
		Records: records,
		Meta: Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
			Length: len(records),
		},
	}
}

// Len devuelve el número de registros.
func (l RecordList) Len() int { return len(l.Records) }
