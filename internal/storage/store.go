package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/config"
	"github.com/san-kum/biljard/internal/physics"
	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	eventsFile   = "events.csv"
	sceneFile    = "scene.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scene        string             `json:"scene"`
	Timestamp    time.Time          `json:"timestamp"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Settings     physics.Settings   `json:"settings"`
	Balls        int                `json:"balls"`
	Remaining    int                `json:"remaining"`
	Steps        int                `json:"steps"`
	Events       int                `json:"events"`
	EnergyChange float64            `json:"energy_change"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a finished run and returns its ID.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.Unix())
	for i := 2; s.exists(runID); i++ {
		runID = fmt.Sprintf("%s_%d_%d", cfg.Name, now.Unix(), i)
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scene:        cfg.Name,
		Timestamp:    now,
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		Settings:     cfg.Settings(),
		Steps:        result.StepsTaken,
		Events:       len(result.Events),
		EnergyChange: result.EnergyChange,
		Metrics:      result.Metrics,
	}
	if n := len(result.Frames); n > 0 {
		meta.Balls = len(result.Frames[0].Balls)
		meta.Remaining = len(result.Frames[n-1].Balls)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	if err := writeEvents(filepath.Join(runDir, eventsFile), result.Events); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, sceneFile), cfg); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) exists(runID string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, runID))
	return err == nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadScene returns the scene file the run was started from.
func (s *Store) LoadScene(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, sceneFile))
}

// LoadFrames reads the recorded frames back. Events are not attached; use
// LoadEvents.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i, record := range records {
		if len(record) < 8 {
			return nil, fmt.Errorf("%s line %d: expected 8 fields, got %d", framesFile, i+2, len(record))
		}
		vals, err := parseFloats(record[0], record[2], record[3], record[4], record[5], record[6], record[7])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, i+2, err)
		}
		id, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, i+2, err)
		}

		t := vals[0]
		if len(frames) == 0 || frames[len(frames)-1].Time != t {
			frames = append(frames, sim.Frame{Time: t})
		}
		if id < 0 {
			// Placeholder row for a frame with no balls left.
			continue
		}
		f := &frames[len(frames)-1]
		f.Balls = append(f.Balls, body.Ball{
			ID:     id,
			Pos:    r2.Vec{X: vals[1], Y: vals[2]},
			Vel:    r2.Vec{X: vals[3], Y: vals[4]},
			Radius: vals[5],
			Mass:   vals[6],
		})
	}

	return frames, nil
}

func (s *Store) LoadEvents(runID string) ([]sim.Event, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, eventsFile))
	if err != nil {
		return nil, err
	}

	events := make([]sim.Event, 0, len(records))
	for i, record := range records {
		if len(record) < 5 {
			return nil, fmt.Errorf("%s line %d: expected 5 fields, got %d", eventsFile, i+2, len(record))
		}
		kind, err := sim.ParseEventKind(record[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", eventsFile, i+2, err)
		}
		vals, err := parseFloats(record[0], record[4])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", eventsFile, i+2, err)
		}
		ball, err1 := strconv.Atoi(record[2])
		other, err2 := strconv.Atoi(record[3])
		if err := errors.Join(err1, err2); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", eventsFile, i+2, err)
		}
		events = append(events, sim.Event{Kind: kind, Time: vals[0], Ball: ball, Other: other, Speed: vals[1]})
	}

	return events, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeFrames(path string, frames []sim.Frame) error {
	rows := [][]string{{"time", "id", "x", "y", "vx", "vy", "radius", "mass"}}
	for _, f := range frames {
		t := formatFloat(f.Time)
		if len(f.Balls) == 0 {
			rows = append(rows, []string{t, "-1", "0", "0", "0", "0", "0", "0"})
			continue
		}
		for _, b := range f.Balls {
			rows = append(rows, []string{
				t,
				strconv.Itoa(b.ID),
				formatFloat(b.Pos.X), formatFloat(b.Pos.Y),
				formatFloat(b.Vel.X), formatFloat(b.Vel.Y),
				formatFloat(b.Radius), formatFloat(b.Mass),
			})
		}
	}
	return writeCSV(path, rows)
}

func writeEvents(path string, events []sim.Event) error {
	rows := [][]string{{"time", "kind", "ball", "other", "speed"}}
	for _, ev := range events {
		rows = append(rows, []string{
			formatFloat(ev.Time),
			ev.Kind.String(),
			strconv.Itoa(ev.Ball),
			strconv.Itoa(ev.Other),
			formatFloat(ev.Speed),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// readCSV returns the records after the header row.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// formatFloat keeps full precision so a reloaded run matches the original.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloats(fields ...string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
