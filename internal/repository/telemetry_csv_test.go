package repository

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"microclimate_station/internal/models"
)

func newTempTelemetry(t *testing.T) (*TelemetryCSV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	repo, err := NewTelemetryCSV(path)
	if err != nil {
		t.Fatalf("NewTelemetryCSV: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func readAllRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestTelemetryCSV_HeaderWrittenOnce(t *testing.T) {
	_, path := newTempTelemetry(t)

	rows := readAllRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("fresh file should hold only the header, got %d rows", len(rows))
	}
	want := []string{"timestamp", "temperature", "humidity", "co2", "heater", "cooler", "humidifier", "fan"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("header = %v, want %v", rows[0], want)
	}
}

func TestTelemetryCSV_AppendRowsInOrder(t *testing.T) {
	repo, path := newTempTelemetry(t)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	recs := []models.LogRecord{
		{
			Reading:   models.Reading{Temperature: 19.52, Humidity: 45.1, CO2: 651, Timestamp: ts},
			Actuators: models.ActuatorState{HeaterOn: true},
		},
		{
			Reading:   models.Reading{Temperature: 20.0, Humidity: 44.9, CO2: 648, Timestamp: ts.Add(time.Second)},
			Actuators: models.ActuatorState{HeaterOn: true, FanOn: true},
		},
	}
	for _, rec := range recs {
		if err := repo.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows := readAllRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(rows))
	}

	first := rows[1]
	if first[0] != "2026-03-01T10:00:00.5Z" {
		t.Errorf("timestamp column = %q, want RFC3339Nano UTC", first[0])
	}
	if first[1] != "19.52" || first[2] != "45.1" || first[3] != "651" {
		t.Errorf("sensor columns = %v", first[1:4])
	}
	if !reflect.DeepEqual(first[4:], []string{"1", "0", "0", "0"}) {
		t.Errorf("actuator columns = %v, want 1/0 flags", first[4:])
	}

	second := rows[2]
	if second[1] != "20" {
		t.Errorf("floats use the shortest form, got %q", second[1])
	}
	if second[4] != "1" || second[7] != "1" {
		t.Errorf("second row actuators = %v", second[4:])
	}
}

func TestTelemetryCSV_NonUTCTimestampNormalized(t *testing.T) {
	repo, path := newTempTelemetry(t)

	loc := time.FixedZone("UTC+2", 2*60*60)
	rec := models.LogRecord{
		Reading: models.Reading{Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, loc)},
	}
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := readAllRows(t, path)
	if rows[1][0] != "2026-03-01T10:00:00Z" {
		t.Fatalf("timestamp not normalized to UTC: %q", rows[1][0])
	}
}

func TestTelemetryCSV_CreateTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	if err := os.WriteFile(path, []byte("stale,content\n1,2\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	repo, err := NewTelemetryCSV(path)
	if err != nil {
		t.Fatalf("NewTelemetryCSV: %v", err)
	}
	defer repo.Close()

	rows := readAllRows(t, path)
	if len(rows) != 1 || rows[0][0] != "timestamp" {
		t.Fatalf("existing file not truncated: %v", rows)
	}
}

func TestTelemetryCSV_CreateFailsOnBadPath(t *testing.T) {
	if _, err := NewTelemetryCSV(filepath.Join(t.TempDir(), "no-such-dir", "t.csv")); err == nil {
		t.Fatalf("want error for unwritable path")
	}
}
