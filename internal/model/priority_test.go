package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		want  Priority
	}{
		{"info", Info},
		{"INFO", Info},
		{"iNfO", Info},
		{"debug", Debug},
		{"DEBUG", Debug},
		{"Debug", Debug},
		{"error", Error},
		{"ERROR", Error},
		{"eRRor", Error},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriority_Unknown(t *testing.T) {
	for _, input := range []string{"", "warn", "infos", " info", "fatal"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePriority(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnknownPriority)
			assert.Contains(t, err.Error(), `"`+input+`"`)
		})
	}
}

func TestPriority_StringParseRoundTrip(t *testing.T) {
	for _, p := range Priorities() {
		got, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)

		got, err = ParsePriority(p.Tag())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestPriorities_Order(t *testing.T) {
	assert.Equal(t, []Priority{Info, Debug, Error}, Priorities())
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  SortOrder
	}{
		{"asc", Ascending},
		{"ASC", Ascending},
		{"Asc", Ascending},
		{"desc", Descending},
		{"DESC", Descending},
		{"dEsC", Descending},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortOrder(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ParseSortOrder(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParseSortOrder_Unknown(t *testing.T) {
	for _, input := range []string{"", "ascending", "descending", "up", "a"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSortOrder(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnknownSortOrder)
		})
	}
}

func TestLogEntry_JSONFieldNames(t *testing.T) {
	e := NewLogEntry(Error, RawEntry{
		Timestamp: 42,
		Counter:   7,
		File:      "src/main.rs",
		Line:      12,
		Message:   "boom",
	})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"timestamp":42,"priority":"Error","file":"src/main.rs","line":12,"message":"boom","counter":7}`,
		string(data))

	var decoded LogEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e, decoded)
}

func TestPriority_MarshalInvalid(t *testing.T) {
	_, err := Priority(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownPriority)
	assert.False(t, Priority(9).Valid())
}
