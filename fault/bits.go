package fault

import "math"

// toBits and fromBits isolate the float64<->uint64 bit-cast the rest of the
// package works in terms of: a reinterpret cast, not a numeric conversion.
func toBits(v float64) uint64 {
	return math.Float64bits(v)
}

func fromBits(b uint64) float64 {
	return math.Float64frombits(b)
}
