// Package results formats computed intrinsics for display and classifies the
// reprojection error into a quality tier.
package results

import (
	"fmt"
	"strings"
)

// Tier is the quality classification of a calibration run.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
)

// Classify maps a reprojection error to a quality tier. Lower is better:
// below 0.5 pixels is excellent, below 1.0 good, anything else fair.
func Classify(reprojectionError float64) Tier {
	switch {
	case reprojectionError < 0.5:
		return TierExcellent
	case reprojectionError < 1.0:
		return TierGood
	default:
		return TierFair
	}
}

// FormatMatrix renders a camera matrix row-major with two decimal places per
// cell, one row per line.
func FormatMatrix(m [][]float64) string {
	var b strings.Builder
	for i, row := range m {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[ ")
		for j, v := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%9.2f", v)
		}
		b.WriteString(" ]")
	}
	return b.String()
}

// FormatDistCoeffs renders distortion coefficients with four decimal places,
// bracket-joined on a single line.
func FormatDistCoeffs(coeffs []float64) string {
	parts := make([]string, len(coeffs))
	for i, v := range coeffs {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
