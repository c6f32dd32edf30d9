package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
)

// recordVersion guards the on-disk layout. Records with another version are
// treated as absent, never migrated in place.
const recordVersion = 1

// record is the raw persisted form. Pointer fields distinguish "absent" from
// zero values so a partially written record is rejected instead of silently
// defaulted field by field.
type record struct {
	Version            *int     `json:"version"`
	PatternType        *string  `json:"patternType"`
	InnerCornersWidth  *int     `json:"innerCornersWidth"`
	InnerCornersHeight *int     `json:"innerCornersHeight"`
	SquareSizeMM       *float64 `json:"squareSizeMm"`
	MarkerSizeMM       *float64 `json:"markerSizeMm,omitempty"`
	MarkerDictionary   *string  `json:"markerDictionary,omitempty"`
}

// Store remembers the last-used pattern configuration across console runs.
// Reads and writes never fail the workflow: a broken record loads as nil and
// a failed write is only logged.
type Store struct {
	mu   sync.RWMutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted configuration. Any read, parse or validation
// failure is treated as absence and returns nil.
func (s *Store) Load() pattern.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Debug("failed to read settings")
		}
		return nil
	}

	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		logrus.WithError(err).Debug("failed to parse settings")
		return nil
	}
	cfg, err := r.toConfig()
	if err != nil {
		logrus.WithError(err).Debug("discarding invalid settings record")
		return nil
	}
	return cfg
}

// Save writes the full configuration as one atomic record. Failures are
// logged and swallowed; persistence never blocks the calibration workflow.
func (s *Store) Save(cfg pattern.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := fromConfig(cfg)
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		logrus.WithError(err).Error("failed to marshal settings")
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		logrus.WithError(err).Error("failed to create settings directory")
		return
	}

	// Write-then-rename so readers never observe a half-written record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		logrus.WithError(err).Error("failed to write settings")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logrus.WithError(err).Error("failed to replace settings")
	}
}

func fromConfig(cfg pattern.Config) record {
	version := recordVersion
	patternType := string(cfg.Type())
	w, h := cfg.InnerCorners()
	square := cfg.SquareSizeMM()
	r := record{
		Version:            &version,
		PatternType:        &patternType,
		InnerCornersWidth:  &w,
		InnerCornersHeight: &h,
		SquareSizeMM:       &square,
	}
	if ch, ok := cfg.(pattern.Charuco); ok {
		marker := ch.MarkerSize
		dict := string(ch.Dictionary)
		r.MarkerSizeMM = &marker
		r.MarkerDictionary = &dict
	}
	return r
}

func (r record) toConfig() (pattern.Config, error) {
	if r.Version == nil || *r.Version != recordVersion {
		return nil, pkgerrors.Errorf("unsupported settings version")
	}
	if r.PatternType == nil || r.InnerCornersWidth == nil || r.InnerCornersHeight == nil || r.SquareSizeMM == nil {
		return nil, pkgerrors.New("incomplete settings record")
	}

	var cfg pattern.Config
	switch pattern.Type(*r.PatternType) {
	case pattern.TypeChessboard:
		cfg = pattern.Chessboard{
			InnerCornersWidth:  *r.InnerCornersWidth,
			InnerCornersHeight: *r.InnerCornersHeight,
			SquareSize:         *r.SquareSizeMM,
		}
	case pattern.TypeCharuco:
		if r.MarkerDictionary == nil {
			return nil, pkgerrors.New("charuco record missing marker dictionary")
		}
		marker := 0.75 * *r.SquareSizeMM
		if r.MarkerSizeMM != nil {
			marker = *r.MarkerSizeMM
		}
		cfg = pattern.Charuco{
			InnerCornersWidth:  *r.InnerCornersWidth,
			InnerCornersHeight: *r.InnerCornersHeight,
			SquareSize:         *r.SquareSizeMM,
			MarkerSize:         marker,
			Dictionary:         pattern.Dictionary(*r.MarkerDictionary),
		}
	default:
		return nil, pkgerrors.Errorf("unknown pattern type %q", *r.PatternType)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
