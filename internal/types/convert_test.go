package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int64
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "int", input: int(100), expected: 100},
		{name: "int32", input: int32(200), expected: 200},
		{name: "int16", input: int16(300), expected: 300},
		{name: "int8", input: int8(127), expected: 127},
		{name: "uint", input: uint(500), expected: 500},
		{name: "uint64", input: uint64(1000), expected: 1000},
		{name: "uint32", input: uint32(2000), expected: 2000},
		{name: "uint16", input: uint16(3000), expected: 3000},
		{name: "uint8", input: uint8(255), expected: 255},
		{name: "float64 with decimals truncates", input: float64(42.9), expected: 42},
		{name: "float32 with decimals truncates", input: float32(99.7), expected: 99},
		{name: "negative", input: int64(-7), expected: -7},
		{name: "json number", input: json.Number("12"), expected: 12},
		{name: "json number float", input: json.Number("12.5"), expected: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToInt64(tt.input))
		})
	}
}

func TestToInt64_UnsupportedTypes(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{name: "nil", input: nil},
		{name: "string", input: "42"},
		{name: "bool", input: true},
		{name: "slice", input: []int{1, 2, 3}},
		{name: "map", input: map[string]int{"key": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, int64(0), ToInt64(tt.input), "Unsupported types should return 0")
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "string", input: "STORE-001", expected: "STORE-001"},
		{name: "bytes", input: []byte("abc"), expected: "abc"},
		{name: "integral float", input: float64(42), expected: "42"},
		{name: "fractional float", input: 3.25, expected: "3.25"},
		{name: "int", input: 7, expected: "7"},
		{name: "bool", input: true, expected: "true"},
		{name: "json number", input: json.Number("15"), expected: "15"},
		{name: "slice", input: []string{"a", "b"}, expected: "[a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToString(tt.input))
		})
	}
}
