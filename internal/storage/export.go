package storage

import (
	"github.com/san-kum/spherro/internal/metrics"
)

// ExportData is a self-contained JSON dump of a stored run.
type ExportData struct {
	Meta    RunMetadata      `json:"meta"`
	Frames  []Frame          `json:"frames"`
	Samples []metrics.Sample `json:"samples"`
}

func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	return writeJSON(path, ExportData{Meta: *meta, Frames: frames, Samples: samples})
}
