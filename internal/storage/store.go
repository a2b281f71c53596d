package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sph"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	metricsFile  = "metrics.csv"
)

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
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Particles int                `json:"particles"`
	Unstable  bool               `json:"unstable"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Frame is a snapshot of every particle in the flat sph.Stride layout.
type Frame struct {
	Step int
	Time float64
	Data []float64
}

// Run is everything recorded for one simulation.
type Run struct {
	Meta    RunMetadata
	Frames  []Frame
	Samples []metrics.Sample
}

func (s *Store) Save(run *Run) (string, error) {
	runID := run.Meta.ID
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", run.Meta.Scene, time.Now().UnixNano())
		run.Meta.ID = runID
	}
	if run.Meta.Timestamp.IsZero() {
		run.Meta.Timestamp = time.Now()
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), run.Meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), run.Frames); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, metricsFile), run.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeFrames stores one row per particle per frame.
func writeFrames(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"step", "time", "particle", "x", "y", "vx", "vy", "r", "g", "b"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, fr := range frames {
		if len(fr.Data)%sph.Stride != 0 {
			return fmt.Errorf("frame %d: %d values is not a multiple of %d", fr.Step, len(fr.Data), sph.Stride)
		}
		for i := 0; i < len(fr.Data); i += sph.Stride {
			row := []string{strconv.Itoa(fr.Step), formatFloat(fr.Time), strconv.Itoa(i / sph.Stride)}
			for _, v := range fr.Data[i : i+sph.Stride] {
				row = append(row, formatFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func writeSamples(path string, samples []metrics.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "particles", "kinetic_energy", "mean_density", "max_speed", "stable"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.Time),
			strconv.Itoa(s.Particles),
			formatFloat(s.KineticEnergy),
			formatFloat(s.MeanDensity),
			formatFloat(s.MaxSpeed),
			strconv.FormatBool(s.Stable),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// LoadFrames regroups frames.csv rows into frames in file order.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, 0)
	for _, record := range records {
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("frames: bad step %q: %w", record[0], err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("frames: bad time %q: %w", record[1], err)
		}

		if len(frames) == 0 || frames[len(frames)-1].Step != step {
			frames = append(frames, Frame{Step: step, Time: t})
		}
		fr := &frames[len(frames)-1]
		for _, field := range record[3:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("frames: step %d: %w", step, err)
			}
			fr.Data = append(fr.Data, v)
		}
	}
	return frames, nil
}

func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		return nil, err
	}

	samples := make([]metrics.Sample, 0, len(records))
	for _, record := range records {
		var sm metrics.Sample
		var perr error
		parse := func(field string) float64 {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}

		sm.Time = parse(record[0])
		sm.KineticEnergy = parse(record[2])
		sm.MeanDensity = parse(record[3])
		sm.MaxSpeed = parse(record[4])
		if sm.Particles, err = strconv.Atoi(record[1]); err != nil {
			perr = err
		}
		if sm.Stable, err = strconv.ParseBool(record[5]); err != nil {
			perr = err
		}
		if perr != nil {
			return nil, fmt.Errorf("metrics: %w", perr)
		}
		samples = append(samples, sm)
	}
	return samples, nil
}
