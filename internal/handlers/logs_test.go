package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"microclimate_station/internal/models"
	"microclimate_station/internal/service"
)

func TestGetLogs_NoFilters(t *testing.T) {
	events := []models.StationEvent{
		{EventID: "1", Type: "SETPOINT_CHANGE", Description: "a"},
		{EventID: "2", Type: "ACTUATOR_CHANGE", Description: "b"},
	}
	ev := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, EventLog: ev})

	w := doRequest(r, http.MethodGet, "/api/v1/logs/", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Count  int                   `json:"count"`
		Events []models.StationEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Events) != 2 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if !ev.lastFrom.IsZero() || !ev.lastTo.IsZero() || ev.lastType != "" {
		t.Fatalf("no filters expected, got from=%v to=%v type=%q", ev.lastFrom, ev.lastTo, ev.lastType)
	}
}

func TestGetLogs_FiltersForwarded(t *testing.T) {
	ev := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, EventLog: ev})

	w := doRequest(r, http.MethodGet,
		"/api/v1/logs/?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z&type=setpoint_change", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}

	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	if !ev.lastFrom.Equal(wantFrom) || !ev.lastTo.Equal(wantTo) {
		t.Fatalf("range not forwarded: from=%v to=%v", ev.lastFrom, ev.lastTo)
	}
	if ev.lastType != "SETPOINT_CHANGE" {
		t.Fatalf("type not normalized: %q", ev.lastType)
	}
}

func TestGetLogs_DateOnlyToIsEndOfDay(t *testing.T) {
	ev := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, EventLog: ev})

	w := doRequest(r, http.MethodGet, "/api/v1/logs/?to=2026-08-01", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}

	// Date-only "to" covers the full day.
	nextMidnight := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	if !ev.lastTo.Before(nextMidnight) || ev.lastTo.Before(nextMidnight.Add(-time.Second)) {
		t.Fatalf("to not extended to end of day: %v", ev.lastTo)
	}
}

func TestGetLogs_BadTimes(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad from", "/api/v1/logs/?from=not-a-time"},
		{"bad to", "/api/v1/logs/?to=32-13-2026"},
		{"inverted range", "/api/v1/logs/?from=2026-08-02&to=2026-08-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &mockEventLog{}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, EventLog: ev})

			w := doRequest(r, http.MethodGet, tt.target, nil, "valid")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400", w.Code)
			}
		})
	}
}

func TestGetLogs_RequiresAuth(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, EventLog: &mockEventLog{}})

	w := doRequest(r, http.MethodGet, "/api/v1/logs/", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}
}
