package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

type ExportData struct {
	ID        string       `json:"id,omitempty"`
	Scenario  string       `json:"scenario"`
	FrameMs   impel.Time   `json:"frame_ms"`
	ElapsedMs impel.Time   `json:"elapsed_ms"`
	Frames    int          `json:"frames"`
	Settled   bool         `json:"all_settled"`
	Traces    []*sim.Trace `json:"traces"`
}

func NewExport(runID string, result *sim.Result) ExportData {
	return ExportData{
		ID:        runID,
		Scenario:  result.Scenario,
		FrameMs:   result.FrameMs,
		ElapsedMs: result.Elapsed,
		Frames:    result.Frames,
		Settled:   result.AllSettled(),
		Traces:    result.Traces,
	}
}

// WriteJSON encodes a run as indented JSON.
func WriteJSON(w io.Writer, runID string, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExport(runID, result))
}

// ExportJSON writes a run to path, or to stdout when path is "-".
func ExportJSON(path, runID string, result *sim.Result) error {
	if path == "-" {
		return WriteJSON(os.Stdout, runID, result)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, runID, result)
}
