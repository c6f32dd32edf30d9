package pattern

import (
	"fmt"
)

// Type defines the supported calibration target kinds.
type Type string

const (
	TypeChessboard Type = "chessboard"
	TypeCharuco    Type = "charuco"
)

// Dictionary is a fiducial marker dictionary used by ChArUco targets.
type Dictionary string

const (
	Dict4x4_50   Dictionary = "4x4_50"
	Dict5x5_100  Dictionary = "5x5_100"
	Dict6x6_250  Dictionary = "6x6_250"
	Dict7x7_1000 Dictionary = "7x7_1000"
)

// DefaultDictionary is used when a ChArUco config is built without an
// explicit dictionary choice.
const DefaultDictionary = Dict4x4_50

var dictionaries = []Dictionary{
	Dict4x4_50,
	Dict5x5_100,
	Dict6x6_250,
	Dict7x7_1000,
}

// Dictionaries returns the supported marker dictionaries in display order.
func Dictionaries() []Dictionary {
	out := make([]Dictionary, len(dictionaries))
	copy(out, dictionaries)
	return out
}

// ValidDictionary reports whether d is one of the supported dictionaries.
func ValidDictionary(d Dictionary) bool {
	for _, known := range dictionaries {
		if d == known {
			return true
		}
	}
	return false
}

// Config is one calibration target configuration. It is a tagged variant:
// the concrete type is either Chessboard or Charuco, so charuco-only fields
// (marker size, dictionary) simply do not exist on chessboard configs.
//
// Configs are value objects. Mutating a field means building a new Config;
// the session controller replaces its config wholesale on every edit.
type Config interface {
	Type() Type
	InnerCorners() (width, height int)
	SquareSizeMM() float64

	// Validate checks the invariants that make the config usable for a
	// calibration run: corner counts within printable bounds for the square
	// size, square size within range, and for charuco a known dictionary
	// and a marker that fits inside its square.
	Validate() error
}

// Chessboard is a plain chessboard calibration target.
type Chessboard struct {
	InnerCornersWidth  int
	InnerCornersHeight int
	SquareSize         float64
}

func (c Chessboard) Type() Type               { return TypeChessboard }
func (c Chessboard) InnerCorners() (int, int) { return c.InnerCornersWidth, c.InnerCornersHeight }
func (c Chessboard) SquareSizeMM() float64    { return c.SquareSize }

func (c Chessboard) Validate() error {
	return validateDimensions(c.InnerCornersWidth, c.InnerCornersHeight, c.SquareSize)
}

// Charuco is a chessboard augmented with fiducial markers, robust to partial
// occlusion during capture.
type Charuco struct {
	InnerCornersWidth  int
	InnerCornersHeight int
	SquareSize         float64
	MarkerSize         float64
	Dictionary         Dictionary
}

func (c Charuco) Type() Type               { return TypeCharuco }
func (c Charuco) InnerCorners() (int, int) { return c.InnerCornersWidth, c.InnerCornersHeight }
func (c Charuco) SquareSizeMM() float64    { return c.SquareSize }

func (c Charuco) Validate() error {
	if err := validateDimensions(c.InnerCornersWidth, c.InnerCornersHeight, c.SquareSize); err != nil {
		return err
	}
	if !ValidDictionary(c.Dictionary) {
		return fmt.Errorf("unknown marker dictionary %q", c.Dictionary)
	}
	if c.MarkerSize <= 0 {
		return fmt.Errorf("marker size must be positive, got %gmm", c.MarkerSize)
	}
	if c.MarkerSize >= c.SquareSize {
		return fmt.Errorf("marker size (%gmm) must be smaller than square size (%gmm)", c.MarkerSize, c.SquareSize)
	}
	return nil
}

func validateDimensions(w, h int, square float64) error {
	if square < MinSquareSizeMM || square > MaxSquareSizeMM {
		return fmt.Errorf("square size must be between %gmm and %gmm, got %gmm", float64(MinSquareSizeMM), float64(MaxSquareSizeMM), square)
	}
	if w < MinInnerCorners || w > MaxWidth(square) {
		return fmt.Errorf("inner corner width must be between %d and %d for %gmm squares, got %d", MinInnerCorners, MaxWidth(square), square, w)
	}
	if h < MinInnerCorners || h > MaxHeight(square) {
		return fmt.Errorf("inner corner height must be between %d and %d for %gmm squares, got %d", MinInnerCorners, MaxHeight(square), square, h)
	}
	return nil
}

// Default is the configuration used when no settings record exists: a 9x6
// chessboard with 20mm squares, the common printed target.
func Default() Config {
	return Chessboard{
		InnerCornersWidth:  9,
		InnerCornersHeight: 6,
		SquareSize:         20,
	}
}
