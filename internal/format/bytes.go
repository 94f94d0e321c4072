package format

import "strconv"

// Byte-size formatting shared by every output format. Sizes are rendered in
// decimal multiples (1000x), not binary ones, so 2048 bytes prints as "2kB".

const (
	kilo = 1000
	mega = 1000 * 1000
	giga = 1000 * 1000 * 1000
)

// PrettyBytes renders n as a compact human-readable size: "512B", "2kB",
// "34MB", "7GB". Division is integral, which keeps the function monotone
// non-decreasing in n.
func PrettyBytes(n uint64) string {
	switch {
	case n < kilo:
		return strconv.FormatUint(n, 10) + "B"
	case n < mega:
		return strconv.FormatUint(n/kilo, 10) + "kB"
	case n < giga:
		return strconv.FormatUint(n/mega, 10) + "MB"
	default:
		return strconv.FormatUint(n/giga, 10) + "GB"
	}
}
