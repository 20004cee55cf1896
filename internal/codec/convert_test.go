package codec

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

func TestToRemoteScalars(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	tests := []struct {
		name string
		kind schema.Kind
		in   any
		want record.Value
	}{
		{"int", schema.KindInt, 42, record.Int(42)},
		{"int32", schema.KindInt, int32(-7), record.Int(-7)},
		{"uint8", schema.KindInt, uint8(200), record.Int(200)},
		{"string", schema.KindString, "hi", record.String("hi")},
		{"bool", schema.KindBool, true, record.Bool(true)},
		{"float widens", schema.KindFloat, float32(1.5), record.Double(1.5)},
		{"double", schema.KindDouble, 0.25, record.Double(0.25)},
		{"double from float32", schema.KindDouble, float32(2), record.Double(2)},
		{"bytes", schema.KindBytes, []byte("ab"), record.Bytes("ab")},
		{"timestamp to utc", schema.KindTimestamp, ts, record.Timestamp(ts.UTC())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toRemote(tt.kind, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToRemoteRejects(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		in   any
	}{
		{"string for int", schema.KindInt, "1"},
		{"float for int", schema.KindInt, 1.0},
		{"uint64 overflow", schema.KindInt, uint64(math.MaxUint64)},
		{"int for string", schema.KindString, 1},
		{"string for bool", schema.KindBool, "true"},
		{"int for double", schema.KindDouble, 1},
		{"nan", schema.KindDouble, math.NaN()},
		{"inf", schema.KindFloat, float32(math.Inf(1))},
		{"string for bytes", schema.KindBytes, "ab"},
		{"string for timestamp", schema.KindTimestamp, "2024-01-01"},
		{"non scalar kind", schema.KindObject, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toRemote(tt.kind, tt.in)
			assert.Error(t, err)
		})
	}
}

func TestToRemoteBytesAreCopied(t *testing.T) {
	b := []byte("ab")
	v, err := toRemote(schema.KindBytes, b)
	require.NoError(t, err)
	b[0] = 'z'
	assert.Equal(t, record.Bytes("ab"), v)
}

func TestToRemoteList(t *testing.T) {
	list, nonEmpty, err := toRemoteList(schema.KindString, []string{"b", "a", "b"})
	require.NoError(t, err)
	assert.True(t, nonEmpty)
	assert.Equal(t, record.KindString, list.Elem)
	assert.Equal(t, []any{"b", "a", "b"}, list.Materialize(), "order and duplicates preserved")

	list, nonEmpty, err = toRemoteList(schema.KindFloat, []float32{1, 2})
	require.NoError(t, err)
	assert.True(t, nonEmpty)
	assert.Equal(t, record.KindDouble, list.Elem)

	_, nonEmpty, err = toRemoteList(schema.KindInt, []int{})
	require.NoError(t, err)
	assert.False(t, nonEmpty)

	_, _, err = toRemoteList(schema.KindInt, []any{1, "two"})
	assert.Error(t, err)

	_, _, err = toRemoteList(schema.KindInt, []any{1, nil})
	assert.Error(t, err)

	_, _, err = toRemoteList(schema.KindInt, 5)
	assert.Error(t, err)
}

func TestToLocal(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		kind schema.Kind
		in   record.Value
		want any
	}{
		{"int", schema.KindInt, record.Int(3), int64(3)},
		{"string", schema.KindString, record.String("s"), "s"},
		{"bool", schema.KindBool, record.Bool(false), false},
		{"float narrows", schema.KindFloat, record.Double(1.5), float32(1.5)},
		{"int as float", schema.KindFloat, record.Int(2), float32(2)},
		{"double", schema.KindDouble, record.Double(0.5), 0.5},
		{"int as double", schema.KindDouble, record.Int(4), 4.0},
		{"bytes", schema.KindBytes, record.Bytes("x"), []byte("x")},
		{"timestamp", schema.KindTimestamp, record.Timestamp(ts), ts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toLocal(tt.kind, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := toLocal(schema.KindInt, record.Double(1))
	assert.Error(t, err)
	_, err = toLocal(schema.KindString, record.Null{})
	assert.Error(t, err)
}

func TestToLocalList(t *testing.T) {
	list, err := record.NewList(record.KindInt, record.Int(1), record.Int(2))
	require.NoError(t, err)

	got, err := toLocalList(schema.KindInt, list)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)

	got, err = toLocalList(schema.KindDouble, list)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)

	_, err = toLocalList(schema.KindString, list)
	assert.Error(t, err)

	_, err = toLocalList(schema.KindInt, record.Int(1))
	assert.Error(t, err)
}

func TestIsNil(t *testing.T) {
	var p *int
	var s []string
	var m map[string]any

	assert.True(t, isNil(nil))
	assert.True(t, isNil(p))
	assert.True(t, isNil(s))
	assert.True(t, isNil(m))
	assert.False(t, isNil(0))
	assert.False(t, isNil(""))
	assert.False(t, isNil([]string{}))
}
