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

	"github.com/google/uuid"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

const (
	metadataFile = "metadata.json"
	scenarioFile = "scenario.yaml"
	traceFile    = "trace.csv"
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

func (s *Store) Dir() string { return s.baseDir }

// ImpellerSummary is the per-impeller part of a run's metadata.
type ImpellerSummary struct {
	Name      string             `json:"name"`
	Driver    string             `json:"driver"`
	SettledAt impel.Time         `json:"settled_at"`
	Metrics   map[string]float64 `json:"metrics"`
}

type RunMetadata struct {
	ID        string            `json:"id"`
	Scenario  string            `json:"scenario"`
	Timestamp time.Time         `json:"timestamp"`
	FrameMs   impel.Time        `json:"frame_ms"`
	ElapsedMs impel.Time        `json:"elapsed_ms"`
	Frames    int               `json:"frames"`
	Settled   bool              `json:"all_settled"`
	Impellers []ImpellerSummary `json:"impellers"`
}

// Save writes the scenario, its metadata and the full trace under a new
// run directory and returns the run ID.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  cfg.Name,
		Timestamp: time.Now(),
		FrameMs:   result.FrameMs,
		ElapsedMs: result.Elapsed,
		Frames:    result.Frames,
		Settled:   result.AllSettled(),
		Impellers: make([]ImpellerSummary, 0, len(result.Traces)),
	}
	for _, tr := range result.Traces {
		meta.Impellers = append(meta.Impellers, ImpellerSummary{
			Name:      tr.Name,
			Driver:    tr.Driver,
			SettledAt: tr.SettledAt,
			Metrics:   tr.Metrics,
		})
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return "", fmt.Errorf("write scenario: %w", err)
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result.Traces); err != nil {
		return "", fmt.Errorf("write trace: %w", err)
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

func writeTrace(path string, traces []*sim.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"impeller", "time", "value", "velocity", "target", "diff"}); err != nil {
		return err
	}

	for _, tr := range traces {
		for i := range tr.Times {
			row := []string{
				tr.Name,
				strconv.Itoa(int(tr.Times[i])),
				formatFloat(tr.Values[i]),
				formatFloat(tr.Velocities[i]),
				formatFloat(tr.Targets[i]),
				formatFloat(tr.Diffs[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, newest first. Directories
// without readable metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
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
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadScenario returns the configuration a run was made with.
func (s *Store) LoadScenario(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

// LoadResult rebuilds a run's result from its metadata and trace.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	traces, err := s.LoadTraces(runID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*sim.Trace, len(traces))
	for _, tr := range traces {
		byName[tr.Name] = tr
	}

	result := &sim.Result{
		Scenario: meta.Scenario,
		FrameMs:  meta.FrameMs,
		Elapsed:  meta.ElapsedMs,
		Frames:   meta.Frames,
		Traces:   make([]*sim.Trace, 0, len(meta.Impellers)),
	}
	for _, imp := range meta.Impellers {
		tr, ok := byName[imp.Name]
		if !ok {
			tr = &sim.Trace{Name: imp.Name}
		}
		tr.Driver = imp.Driver
		tr.SettledAt = imp.SettledAt
		tr.Metrics = imp.Metrics
		result.Traces = append(result.Traces, tr)
	}
	return result, nil
}

// LoadTraces reads the trace CSV of a run, one Trace per impeller in the
// order they were written.
func (s *Store) LoadTraces(runID string) ([]*sim.Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trace of %s: %w", runID, err)
	}

	traces := make([]*sim.Trace, 0)
	index := make(map[string]*sim.Trace)

	for line, record := range records {
		if line == 0 {
			continue
		}

		tr, ok := index[record[0]]
		if !ok {
			tr = &sim.Trace{Name: record[0], SettledAt: -1}
			index[record[0]] = tr
			traces = append(traces, tr)
		}

		t, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line+1, err)
		}
		var vals [4]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("trace line %d: %w", line+1, err)
			}
		}

		tr.Times = append(tr.Times, impel.Time(t))
		tr.Values = append(tr.Values, vals[0])
		tr.Velocities = append(tr.Velocities, vals[1])
		tr.Targets = append(tr.Targets, vals[2])
		tr.Diffs = append(tr.Diffs, vals[3])
	}

	return traces, nil
}

// Delete removes a stored run.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(dir)
}
