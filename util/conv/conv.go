package conv

import "strconv"

func IntDefault(str string, d int) int {
	if v, err := strconv.Atoi(str); err != nil {
		return d
	} else {
		return v
	}
}

// Uint64 parses a non-negative decimal count.
func Uint64(str string) (uint64, bool) {
	v, err := strconv.ParseUint(str, 10, 64)
	return v, err == nil
}

// CeilDiv returns the number of size-sized blocks needed to hold n items.
func CeilDiv(n, size uint64) uint64 {
	if size == 0 {
		return 0
	}
	return (n + size - 1) / size
}
