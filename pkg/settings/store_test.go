package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "pattern.json"))
}

func TestRoundTrip(t *testing.T) {
	cases := []pattern.Config{
		pattern.Chessboard{InnerCornersWidth: 9, InnerCornersHeight: 6, SquareSize: 20},
		pattern.Charuco{InnerCornersWidth: 5, InnerCornersHeight: 7, SquareSize: 25, MarkerSize: 18, Dictionary: pattern.Dict5x5_100},
	}
	for _, cfg := range cases {
		s := tempStore(t)
		if s.Load() != nil {
			t.Fatal("empty store must load nil")
		}
		s.Save(cfg)
		got := s.Load()
		if !reflect.DeepEqual(got, cfg) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, cfg)
		}
	}
}

func TestLoadTreatsCorruptionAsAbsence(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(); got != nil {
		t.Fatalf("corrupt record loaded as %#v", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	contents := []string{
		// wrong version
		`{"version":2,"patternType":"chessboard","innerCornersWidth":9,"innerCornersHeight":6,"squareSizeMm":20}`,
		// missing fields
		`{"version":1,"patternType":"chessboard"}`,
		// unprintable dimensions for the square size
		`{"version":1,"patternType":"chessboard","innerCornersWidth":30,"innerCornersHeight":6,"squareSizeMm":20}`,
		// charuco without a dictionary
		`{"version":1,"patternType":"charuco","innerCornersWidth":5,"innerCornersHeight":5,"squareSizeMm":20,"markerSizeMm":15}`,
		// unknown pattern type
		`{"version":1,"patternType":"circles","innerCornersWidth":5,"innerCornersHeight":5,"squareSizeMm":20}`,
	}
	for _, content := range contents {
		s := tempStore(t)
		if err := os.WriteFile(s.path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if got := s.Load(); got != nil {
			t.Fatalf("invalid record %s loaded as %#v", content, got)
		}
	}
}

func TestSaveReplacesPreviousRecord(t *testing.T) {
	s := tempStore(t)
	s.Save(pattern.Chessboard{InnerCornersWidth: 9, InnerCornersHeight: 6, SquareSize: 20})
	s.Save(pattern.Chessboard{InnerCornersWidth: 5, InnerCornersHeight: 8, SquareSize: 25})
	got, ok := s.Load().(pattern.Chessboard)
	if !ok || got.InnerCornersWidth != 5 || got.SquareSize != 25 {
		t.Fatalf("expected the newer record, got %#v", got)
	}
}
