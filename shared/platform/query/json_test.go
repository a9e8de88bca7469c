package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalRecords_KeepsIntegers(t *testing.T) {
	records, err := UnmarshalRecords([]byte(`[{"a":1,"b":1.5,"c":"x","d":null,"e":[2,{"f":3}]}]`))
	require.NoError(t, err)

	assert.Equal(t, []Record{{
		"a": int64(1),
		"b": 1.5,
		"c": "x",
		"d": nil,
		"e": []any{int64(2), map[string]any{"f": int64(3)}},
	}}, records)
}

func TestUnmarshalRecord(t *testing.T) {
	r, err := UnmarshalRecord([]byte(`{"big":12345678901234,"neg":-2}`))
	require.NoError(t, err)
	assert.Equal(t, Record{"big": int64(12345678901234), "neg": int64(-2)}, r)

	empty, err := UnmarshalRecord([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = UnmarshalRecord([]byte(`[1]`))
	assert.Error(t, err)
}
