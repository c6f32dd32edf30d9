package pattern

import (
	"strings"
	"testing"
)

func TestChessboardValidate(t *testing.T) {
	if err := (Chessboard{InnerCornersWidth: 9, InnerCornersHeight: 6, SquareSize: 20}).Validate(); err != nil {
		t.Fatalf("valid chessboard rejected: %v", err)
	}
	if err := (Chessboard{InnerCornersWidth: 2, InnerCornersHeight: 6, SquareSize: 20}).Validate(); err == nil {
		t.Fatal("width below minimum accepted")
	}
	if err := (Chessboard{InnerCornersWidth: 9, InnerCornersHeight: 6, SquareSize: 60}).Validate(); err == nil {
		t.Fatal("oversized square accepted")
	}
	// 10 exceeds MaxWidth(20) = 9
	if err := (Chessboard{InnerCornersWidth: 10, InnerCornersHeight: 6, SquareSize: 20}).Validate(); err == nil {
		t.Fatal("unprintable width accepted")
	}
}

func TestCharucoValidate(t *testing.T) {
	ok := Charuco{InnerCornersWidth: 9, InnerCornersHeight: 6, SquareSize: 20, MarkerSize: 15, Dictionary: Dict4x4_50}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid charuco rejected: %v", err)
	}

	bad := ok
	bad.Dictionary = "3x3_9000"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown dictionary accepted")
	}

	bad = ok
	bad.MarkerSize = 20
	err := bad.Validate()
	if err == nil {
		t.Fatal("marker equal to square accepted")
	}
	if !strings.Contains(err.Error(), "marker size") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClampRepairsCharucoDictionary(t *testing.T) {
	cfg := Clamp(Charuco{InnerCornersWidth: 5, InnerCornersHeight: 5, SquareSize: 20, MarkerSize: 15, Dictionary: "bogus"})
	ch, isCharuco := cfg.(Charuco)
	if !isCharuco {
		t.Fatalf("Clamp changed variant to %T", cfg)
	}
	if ch.Dictionary != DefaultDictionary {
		t.Fatalf("expected default dictionary, got %q", ch.Dictionary)
	}
}
