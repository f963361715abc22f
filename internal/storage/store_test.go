package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Scenario: "test",
		FrameMs:  10,
		Elapsed:  20,
		Frames:   2,
		Traces: []*sim.Trace{
			{
				Name:       "a",
				Driver:     "angle",
				Times:      []impel.Time{0, 10, 20},
				Values:     []float64{0, 0.21, 0.3999999999999999},
				Velocities: []float64{0.021, 0.021, 0.019},
				Targets:    []float64{1, 1, 1},
				Diffs:      []float64{1, 0.79, 0.6000000000000001},
				Metrics:    map[string]float64{"settle_ms": -1},
				SettledAt:  -1,
			},
			{
				Name:       "b",
				Driver:     "angle",
				Times:      []impel.Time{0, 10, 20},
				Values:     []float64{1, 1, 1},
				Velocities: []float64{0, 0, 0},
				Targets:    []float64{1, 1, 1},
				Diffs:      []float64{0, 0, 0},
				Metrics:    map[string]float64{"settle_ms": 0},
				SettledAt:  0,
			},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Name = "test"

	runID, err := st.Save(cfg, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "test" {
		t.Errorf("expected scenario 'test', got '%s'", meta.Scenario)
	}
	if meta.Frames != 2 || meta.ElapsedMs != 20 {
		t.Errorf("unexpected frames/elapsed %d/%d", meta.Frames, meta.ElapsedMs)
	}
	if meta.Settled {
		t.Error("expected run to be reported unsettled")
	}
	if len(meta.Impellers) != 2 || meta.Impellers[1].SettledAt != 0 {
		t.Errorf("unexpected impeller summaries %+v", meta.Impellers)
	}

	traces, err := st.LoadTraces(runID)
	if err != nil {
		t.Fatalf("load traces failed: %v", err)
	}
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}
	want := sampleResult().Traces[0]
	got := traces[0]
	for i := range want.Times {
		if got.Times[i] != want.Times[i] || got.Values[i] != want.Values[i] || got.Diffs[i] != want.Diffs[i] {
			t.Errorf("sample %d: got (%d, %v, %v), want (%d, %v, %v)",
				i, got.Times[i], got.Values[i], got.Diffs[i], want.Times[i], want.Values[i], want.Diffs[i])
		}
	}

	scenario, err := st.LoadScenario(runID)
	if err != nil {
		t.Fatalf("load scenario failed: %v", err)
	}
	if scenario.Name != "test" || len(scenario.Impellers) != 1 {
		t.Errorf("unexpected scenario %+v", scenario)
	}
}

func TestStoreLoadResult(t *testing.T) {
	st := New(t.TempDir())

	cfg := config.DefaultConfig()
	result, err := sim.NewRunner(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	runID, err := st.Save(cfg, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if len(loaded.Traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(loaded.Traces))
	}

	orig, back := result.Traces[0], loaded.Traces[0]
	if back.SettledAt != orig.SettledAt {
		t.Errorf("settled at %d, want %d", back.SettledAt, orig.SettledAt)
	}
	if len(back.Values) != len(orig.Values) {
		t.Fatalf("expected %d samples, got %d", len(orig.Values), len(back.Values))
	}
	for i := range orig.Values {
		if back.Values[i] != orig.Values[i] {
			t.Fatalf("value %d: got %v, want %v", i, back.Values[i], orig.Values[i])
		}
	}
	if back.Metrics["crossings"] != orig.Metrics["crossings"] {
		t.Errorf("crossings %v, want %v", back.Metrics["crossings"], orig.Metrics["crossings"])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	for i := 0; i < 3; i++ {
		if _, err := st.Save(cfg, sampleResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.After(runs[i-1].Timestamp) {
			t.Error("expected runs sorted newest first")
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("load: expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadTraces("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("load traces: expected ErrRunNotFound, got %v", err)
	}
	if err := st.Delete("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("delete: expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.Save(config.DefaultConfig(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := st.Delete(runID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.Load(runID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected deleted run to be gone, got %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, "run1", sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if data.ID != "run1" || data.Scenario != "test" {
		t.Errorf("unexpected header %+v", data)
	}
	if len(data.Traces) != 2 || len(data.Traces[0].Values) != 3 {
		t.Errorf("unexpected traces %+v", data.Traces)
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, "", sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"scenario": "test"`)) {
		t.Errorf("export missing scenario: %s", data)
	}
}
