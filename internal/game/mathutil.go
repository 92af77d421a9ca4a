package game

import "taxitraffic/internal/traffic"

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func rangeF(r *traffic.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
