package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int
	}{
		{"int", Record{"n": 42}, 42},
		{"int64", Record{"n": int64(42)}, 42},
		{"float64", Record{"n": float64(42)}, 42},
		{"numeric string", Record{"n": "42"}, 42},
		{"garbage string", Record{"n": "forty-two"}, 0},
		{"absent", Record{}, 0},
		{"nil value", Record{"n": nil}, 0},
		{"wrong type", Record{"n": []int{1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Int("n"))
		})
	}
}

func TestString(t *testing.T) {
	r := Record{"s": "hello", "n": 42}
	assert.Equal(t, "hello", r.String("s"))
	assert.Equal(t, "", r.String("n"))
	assert.Equal(t, "", r.String("missing"))
}

func TestBool(t *testing.T) {
	r := Record{"b": true, "s": "true"}
	assert.True(t, r.Bool("b"))
	assert.False(t, r.Bool("s"))
	assert.False(t, r.Bool("missing"))
}

func TestClone(t *testing.T) {
	orig := Record{"a": 1, "b": "two"}
	cp := orig.Clone()

	cp["a"] = 99
	assert.Equal(t, 1, orig.Int("a"))
	assert.Equal(t, 99, cp.Int("a"))
}
