package experiment

import "math"

// zCritical is the two-tailed 95% confidence threshold.
const zCritical = 1.96

// zScore computes the two-proportion pooled z statistic for conversion
// counts. It returns 0 when either sample is empty or the pooled
// standard error vanishes (both rates identical at 0 or 1).
func zScore(convA, impA, convB, impB int64) float64 {
	if impA == 0 || impB == 0 {
		return 0
	}

	pA := float64(convA) / float64(impA)
	pB := float64(convB) / float64(impB)
	pooled := float64(convA+convB) / float64(impA+impB)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(impA) + 1/float64(impB)))
	if se == 0 {
		return 0
	}
	return (pA - pB) / se
}
