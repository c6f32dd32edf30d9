package pattern

import (
	"math"
	"strconv"
)

// The target must stay printable on a single fixed page (portrait A4).
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0

	MinInnerCorners = 3
	MinSquareSizeMM = 5.0
	MaxSquareSizeMM = 50.0
)

// MaxWidth returns the largest inner corner count that fits the page width
// for the given square size. Never below MinInnerCorners.
func MaxWidth(squareSizeMM float64) int {
	return maxCorners(PageWidthMM, squareSizeMM)
}

// MaxHeight returns the largest inner corner count that fits the page height
// for the given square size. Never below MinInnerCorners.
func MaxHeight(squareSizeMM float64) int {
	return maxCorners(PageHeightMM, squareSizeMM)
}

func maxCorners(pageMM, squareSizeMM float64) int {
	// A board with n inner corners spans n+1 squares.
	n := int(math.Floor(pageMM/ClampSquareSize(squareSizeMM))) - 1
	if n < MinInnerCorners {
		return MinInnerCorners
	}
	return n
}

// ClampDimension clamps an inner corner count into [MinInnerCorners, max].
func ClampDimension(value, max int) int {
	if value < MinInnerCorners {
		return MinInnerCorners
	}
	if value > max {
		return max
	}
	return value
}

// ClampSquareSize clamps a square size into [MinSquareSizeMM, MaxSquareSizeMM].
// NaN resolves to the minimum.
func ClampSquareSize(value float64) float64 {
	if math.IsNaN(value) || value < MinSquareSizeMM {
		return MinSquareSizeMM
	}
	if value > MaxSquareSizeMM {
		return MaxSquareSizeMM
	}
	return value
}

// ParseDimension parses raw user input for an inner corner count and clamps
// it into range. Non-numeric input resolves to the minimum.
func ParseDimension(raw string, max int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return MinInnerCorners
	}
	return ClampDimension(v, max)
}

// ParseSquareSize parses raw user input for a square size in millimeters and
// clamps it into range. Non-numeric input resolves to the minimum.
func ParseSquareSize(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return MinSquareSizeMM
	}
	return ClampSquareSize(v)
}

// Clamp re-clamps a config against its own square size and returns the
// adjusted config. Values already within the recomputed bounds are kept
// as-is; only out-of-range values move. Shrinking the square size therefore
// shrinks stored corner counts that no longer fit the page.
func Clamp(cfg Config) Config {
	switch c := cfg.(type) {
	case Chessboard:
		c.SquareSize = ClampSquareSize(c.SquareSize)
		c.InnerCornersWidth = ClampDimension(c.InnerCornersWidth, MaxWidth(c.SquareSize))
		c.InnerCornersHeight = ClampDimension(c.InnerCornersHeight, MaxHeight(c.SquareSize))
		return c
	case Charuco:
		c.SquareSize = ClampSquareSize(c.SquareSize)
		c.InnerCornersWidth = ClampDimension(c.InnerCornersWidth, MaxWidth(c.SquareSize))
		c.InnerCornersHeight = ClampDimension(c.InnerCornersHeight, MaxHeight(c.SquareSize))
		if !ValidDictionary(c.Dictionary) {
			c.Dictionary = DefaultDictionary
		}
		return c
	default:
		return cfg
	}
}
