package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/biljard/internal/sim"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Frames []sim.Frame `json:"frames"`
	Events []sim.Event `json:"events"`
}

// Export gathers everything stored for a run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	events, err := s.LoadEvents(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Run: *meta, Frames: frames, Events: events}, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, data); err != nil {
		return err
	}
	return file.Close()
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
