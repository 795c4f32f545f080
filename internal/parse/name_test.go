package parse

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIndex(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		expected int
		ok       bool
	}{
		{name: "Workstation key", key: "pc3", expected: 3, ok: true},
		{name: "Multi digit", key: "pc12", expected: 12, ok: true},
		{name: "Generated table key", key: "table1712345678901", expected: 1712345678901, ok: true},
		{name: "No digits", key: "pc", ok: false},
		{name: "Digits not trailing", key: "3pc", ok: false},
		{name: "Empty", key: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := KeyIndex(tc.key)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, n)
			}
		})
	}
}

func TestLeadingInt(t *testing.T) {
	testCases := []struct {
		raw      string
		expected int
		ok       bool
	}{
		{raw: "7", expected: 7, ok: true},
		{raw: "12a", expected: 12, ok: true},
		{raw: " 24", expected: 24, ok: true},
		{raw: "a12", ok: false},
		{raw: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			n, ok := LeadingInt(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, n)
			}
		})
	}
}

func TestNaturalCompare(t *testing.T) {
	assert.Equal(t, -1, NaturalCompare("Row 2A", "Row 10A"))
	assert.Equal(t, 1, NaturalCompare("R-10", "R-9"))
	assert.Equal(t, 0, NaturalCompare("row 1a", "Row 1A"))
	assert.Equal(t, -1, NaturalCompare("Row", "Row 1"))
	assert.Equal(t, 0, NaturalCompare("R-01", "R-1"))
	assert.Equal(t, -1, NaturalCompare("A", "b"))
}

func TestNaturalLess_Sort(t *testing.T) {
	names := []string{"Row 10A", "Row 2A", "row 1A", "Row 8A", "Extra"}
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
	assert.Equal(t, []string{"Extra", "row 1A", "Row 2A", "Row 8A", "Row 10A"}, names)
}
