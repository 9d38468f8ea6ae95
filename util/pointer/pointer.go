package pointer

import "strconv"

func Uint64(v uint64) *uint64 {
	return &v
}

// Uint64Or returns *p, or d when p is nil.
func Uint64Or(p *uint64, d uint64) uint64 {
	if p == nil {
		return d
	}
	return *p
}

// Uint64String renders an optional count, "NONE" when absent.
func Uint64String(p *uint64) string {
	if p == nil {
		return "NONE"
	}
	return strconv.FormatUint(*p, 10)
}

// CloneUint64 returns a copy of p that does not alias it.
func CloneUint64(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	return Uint64(*p)
}
