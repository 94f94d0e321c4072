package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPrettyBytes(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "0B"},
		{1, "1B"},
		{512, "512B"},
		{999, "999B"},
		{1000, "1kB"},
		{1999, "1kB"},
		{2000, "2kB"},
		{2048, "2kB"},
		{999999, "999kB"},
		{1000000, "1MB"},
		{34000000, "34MB"},
		{999999999, "999MB"},
		{1000000000, "1GB"},
		{7500000000, "7GB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PrettyBytes(tc.n), "PrettyBytes(%d)", tc.n)
	}
}

func TestPrettyBytesMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64().Draw(t, "a")
		b := rapid.Uint64().Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		sa, sb := PrettyBytes(a), PrettyBytes(b)
		if numericValue(sa) > numericValue(sb) {
			t.Fatalf("PrettyBytes not monotone: %d -> %q, %d -> %q", a, sa, b, sb)
		}
	})
}

// numericValue maps a rendered size back to a comparable byte count.
func numericValue(s string) uint64 {
	var n uint64
	var i int
	for i = 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + uint64(s[i]-'0')
	}
	switch s[i:] {
	case "kB":
		return n * kilo
	case "MB":
		return n * mega
	case "GB":
		return n * giga
	default:
		return n
	}
}
