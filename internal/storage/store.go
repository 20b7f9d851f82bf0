// Package storage persists recorded control runs. Each run lives in its own
// directory holding metadata.json and ticks.csv.
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

	"github.com/benbjohnson/clock"

	"github.com/san-kum/auvctl/internal/pilot"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
)

type Store struct {
	baseDir string
	clock   clock.Clock
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, clock: clock.New()}
}

func (s *Store) SetClock(c clock.Clock) { s.clock = c }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Profile    string             `json:"profile"`
	Backend    string             `json:"backend"`
	Timestamp  time.Time          `json:"timestamp"`
	Ticks      int                `json:"ticks"`
	Duration   float64            `json:"duration"`
	FinalState string             `json:"final_state"`
	Gains      pilot.Gains        `json:"gains"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Columns of ticks.csv after time and state.
var Columns = []string{
	"yaw", "roll", "depth", "speed",
	"sp_yaw", "sp_roll", "sp_speed", "sp_depth",
	"heading_error",
	"out_yaw", "out_roll", "out_speed", "out_depth",
	"yaw_left", "yaw_right", "roll_left", "roll_right",
}

func row(s pilot.Snapshot) []string {
	vals := []float64{
		s.Orientation.Yaw, s.Orientation.Roll, s.Orientation.Depth, s.Orientation.Speed,
		s.Setpoints.Yaw, s.Setpoints.Roll, s.Setpoints.Speed, s.Setpoints.Depth,
		s.HeadingError,
		s.Output.Yaw, s.Output.Roll, s.Output.Speed, s.Output.Depth,
		s.Thrust.YawLeft, s.Thrust.YawRight, s.Thrust.RollLeft, s.Thrust.RollRight,
	}
	out := make([]string, 0, len(vals)+2)
	out = append(out, strconv.FormatFloat(s.Time, 'f', 6, 64), s.State.String())
	for _, v := range vals {
		out = append(out, strconv.FormatFloat(v, 'f', 6, 64))
	}
	return out
}

// Recorder streams ticks of one run to disk. It is a pilot.Observer.
type Recorder struct {
	store *Store
	dir   string
	meta  RunMetadata
	file  *os.File
	w     *csv.Writer
	err   error
}

// Record creates a new run directory and starts its tick log.
func (s *Store) Record(profile, backend string, gains pilot.Gains) (*Recorder, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	id, dir, err := s.newRunDir(fmt.Sprintf("%s_%d", profile, now.Unix()))
	if err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, ticksFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time", "state"}, Columns...)); err != nil {
		f.Close()
		return nil, err
	}

	return &Recorder{
		store: s,
		dir:   dir,
		file:  f,
		w:     w,
		meta: RunMetadata{
			ID:        id,
			Profile:   profile,
			Backend:   backend,
			Timestamp: now,
			Gains:     gains,
		},
	}, nil
}

func (s *Store) newRunDir(base string) (string, string, error) {
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnTick(s pilot.Snapshot) {
	if r.err != nil {
		return
	}
	r.err = r.w.Write(row(s))
	r.meta.Ticks = s.Tick
	r.meta.Duration = s.Time
	r.meta.FinalState = s.State.String()
}

// Close flushes the tick log and writes the run metadata. runErr, if any,
// is stored as the reason the run ended.
func (r *Recorder) Close(metrics map[string]float64, runErr error) error {
	r.w.Flush()
	err := r.err
	if err == nil {
		err = r.w.Error()
	}
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write ticks: %w", err)
	}

	r.meta.Metrics = metrics
	if runErr != nil {
		r.meta.Error = runErr.Error()
	}

	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}

// List returns the metadata of every complete run, oldest first.
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
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Series is a loaded tick log in columnar form.
type Series struct {
	Times   []float64            `json:"times"`
	States  []string             `json:"states"`
	Columns map[string][]float64 `json:"columns"`
}

func (s *Series) Column(name string) []float64 { return s.Columns[name] }

func (s *Series) Len() int { return len(s.Times) }

func (s *Store) LoadTicks(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{Columns: make(map[string][]float64)}
	if len(records) < 2 {
		return series, nil
	}
	header := records[0]

	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		series.Times = append(series.Times, t)
		series.States = append(series.States, record[1])

		for j := 2; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				val = 0
			}
			series.Columns[header[j]] = append(series.Columns[header[j]], val)
		}
	}

	return series, nil
}
