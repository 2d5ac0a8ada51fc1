package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"microclimate_station/internal/models"
)

// telemetryHeader is written exactly once, when the file is created.
var telemetryHeader = []string{
	"timestamp", "temperature", "humidity", "co2",
	"heater", "cooler", "humidifier", "fan",
}

// TelemetryCSV persists log records as CSV rows, one per record, in the
// order they are appended. Appends are synchronous; any write error is
// surfaced to the caller.
type TelemetryCSV struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

var _ TelemetryRepo = (*TelemetryCSV)(nil)

// NewTelemetryCSV creates (or truncates) the file at path and writes the
// header row.
func NewTelemetryCSV(path string) (*TelemetryCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create telemetry log %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(telemetryHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write telemetry header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flush telemetry header: %w", err)
	}
	return &TelemetryCSV{path: path, f: f, w: w}, nil
}

// Append writes one row and flushes it to the file.
func (t *TelemetryCSV) Append(ctx context.Context, rec models.LogRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := []string{
		rec.Reading.Timestamp.UTC().Format(time.RFC3339Nano),
		formatFloat(rec.Reading.Temperature),
		formatFloat(rec.Reading.Humidity),
		formatFloat(rec.Reading.CO2),
		boolTo01(rec.Actuators.HeaterOn),
		boolTo01(rec.Actuators.CoolerOn),
		boolTo01(rec.Actuators.HumidifierOn),
		boolTo01(rec.Actuators.FanOn),
	}
	if err := t.w.Write(row); err != nil {
		return fmt.Errorf("write telemetry row: %w", err)
	}
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return fmt.Errorf("flush telemetry row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (t *TelemetryCSV) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		_ = t.f.Close()
		return err
	}
	return t.f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolTo01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
