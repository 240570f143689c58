package generic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/funvibe/concepts/internal/concepts"
)

type celsius float64

func TestIsSigned(t *testing.T) {
	assert.True(t, IsSigned[int]())
	assert.True(t, IsSigned[int8]())
	assert.False(t, IsSigned[uint]())
	assert.False(t, IsSigned[uint8]())
	assert.False(t, IsSigned[uintptr]())
}

func TestOrdered(t *testing.T) {
	tests := []struct {
		name        string
		v, lo, hi   int
		max, min, c int
	}{
		{name: "inside", v: 5, lo: 0, hi: 10, c: 5},
		{name: "below", v: -3, lo: 0, hi: 10, c: 0},
		{name: "above", v: 42, lo: 0, hi: 10, c: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.c, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
	assert.Equal(t, "pear", Max("apple", "pear"))
	assert.Equal(t, celsius(-1), Min(celsius(-1), celsius(3)))
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, 6, Sum(1, 2, 3))
	assert.Equal(t, celsius(1.5), Sum(celsius(1), celsius(0.5)))
	assert.Equal(t, complex64(complex(1, 2)), Sum(complex64(1), complex64(2i)))
	assert.Equal(t, 0.0, Sum[float64]())

	assert.Equal(t, uint8(0x04), Mask(uint8(0x0f), uint8(0x34)))
	assert.Equal(t, 0, Mask[int]())
}

func TestRotate(t *testing.T) {
	tests := []struct {
		in   []int
		mid  int
		want []int
		idx  int
	}{
		{in: []int{1, 2, 3, 4, 5}, mid: 2, want: []int{3, 4, 5, 1, 2}, idx: 3},
		{in: []int{1, 2, 3}, mid: 0, want: []int{1, 2, 3}, idx: 0},
		{in: []int{1, 2, 3}, mid: 3, want: []int{1, 2, 3}, idx: 0},
		{in: []int{}, mid: 1, want: []int{}, idx: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in, tt.mid), func(t *testing.T) {
			idx := Rotate(tt.in, tt.mid)
			assert.Equal(t, tt.want, tt.in)
			assert.Equal(t, tt.idx, idx)
		})
	}

	a, b := "x", "y"
	IterSwap(&a, &b)
	assert.Equal(t, []string{"y", "x"}, []string{a, b})
	assert.Equal(t, 2, Count([]string{"a", "b", "a"}, "a"))
}

func TestCounterpartsNameConcepts(t *testing.T) {
	lib := concepts.Standard()
	for name := range Counterparts {
		_, ok := lib.Lookup(name)
		assert.True(t, ok, name)
	}
}
