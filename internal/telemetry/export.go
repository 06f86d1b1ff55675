package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// WindowSample is one closed telemetry window. Durations are milliseconds.
type WindowSample struct {
	Window          int     `csv:"window"`
	EndMs           float64 `csv:"end_ms"`
	Steps           uint64  `csv:"steps"`
	Frames          uint64  `csv:"frames"`
	Skipped         uint64  `csv:"skipped"`
	Starved         uint64  `csv:"starved"`
	Dropped         uint64  `csv:"dropped"`
	StepIntervalAvg float64 `csv:"step_interval_avg_ms"`
	StepIntervalStd float64 `csv:"step_interval_std_ms"`
	FrameTimeAvg    float64 `csv:"frame_time_avg_ms"`
	FrameTimeP95    float64 `csv:"frame_time_p95_ms"`
}

// WriteCSV writes the closed window samples with a header row.
func (c *Collector) WriteCSV(w io.Writer) error {
	samples := c.Samples()
	if len(samples) == 0 {
		return nil
	}
	if err := gocsv.Marshal(samples, w); err != nil {
		return fmt.Errorf("telemetry: writing samples: %w", err)
	}
	return nil
}

// ExportCSV writes the samples to path, creating parent directories.
func (c *Collector) ExportCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("telemetry: creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: creating %s: %w", path, err)
	}
	if err := c.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
