package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestWeightPercent(t *testing.T) {
	cases := []struct {
		weight uint64
		want   string
	}{
		{0, "0"},
		{1, "0.01"},
		{10, "0.1"},
		{100, "1"},
		{120, "1.2"},
		{123, "1.23"},
		{5000, "50"},
		{9999, "99.99"},
		{10000, "100"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WeightPercent(tc.weight), "WeightPercent(%d)", tc.weight)
	}
}

func TestWeightPercentNoTrailingZeros(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.Uint64Range(0, 2*WeightMultiplier).Draw(t, "weight")
		s := WeightPercent(w)
		if strings.Contains(s, ".") {
			assert.False(t, strings.HasSuffix(s, "0"), "trailing zero in %q", s)
			assert.False(t, strings.HasSuffix(s, "."), "trailing dot in %q", s)
		}
	})
}
