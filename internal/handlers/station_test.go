package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"microclimate_station/internal/models"
	"microclimate_station/internal/service"
)

func stationStatusFixture() models.StationStatus {
	return models.StationStatus{
		Setpoints: map[models.Channel]float64{
			models.ChannelTemperature: 22.0,
			models.ChannelHumidity:    50.0,
			models.ChannelCO2:         800.0,
		},
		Hysteresis: map[models.Channel]float64{
			models.ChannelTemperature: 0.7,
			models.ChannelHumidity:    3.0,
			models.ChannelCO2:         50.0,
		},
		Actuators: models.ActuatorState{HeaterOn: true, FanOn: true},
	}
}

func doRequest(r http.Handler, method, target string, body []byte, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != statusOK {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetStatus(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{status: stationStatusFixture()}
	s := &service.Service{Authorization: auth, Monitoring: mon}
	r := newTestRouter(s)

	// No token: rejected before the service is touched.
	w := doRequest(r, http.MethodGet, "/api/v1/station/status", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/station/status", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.StationStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.Setpoints[models.ChannelTemperature] != 22.0 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if !st.Actuators.HeaterOn || !st.Actuators.FanOn {
		t.Fatalf("actuators lost in transit: %+v", st.Actuators)
	}
}

func TestGetActuators(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{status: stationStatusFixture()}
	r := newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	w := doRequest(r, http.MethodGet, "/api/v1/station/actuators", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("actuators status=%d, body=%s", w.Code, w.Body.String())
	}
	var act models.ActuatorState
	if err := json.Unmarshal(w.Body.Bytes(), &act); err != nil {
		t.Fatalf("unmarshal actuators: %v", err)
	}
	if !act.HeaterOn || act.CoolerOn {
		t.Fatalf("unexpected actuators: %+v", act)
	}
}

func TestSetSetpoint(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	station := &mockStation{}
	r := newTestRouter(&service.Service{Authorization: auth, Station: station})

	// Valid request reaches the service with the parsed values.
	w := doRequest(r, http.MethodPut, "/api/v1/station/setpoint",
		[]byte(`{"channel":"temperature","value":24.5}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("setpoint status=%d, body=%s", w.Code, w.Body.String())
	}
	if station.setCalls != 1 || station.lastChannel != "temperature" || station.lastValue != 24.5 {
		t.Fatalf("service call wrong: %+v", station)
	}
	var resp struct {
		Status  string  `json:"status"`
		Channel string  `json:"channel"`
		Value   float64 `json:"value"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusSetpointSet || resp.Value != 24.5 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestSetSetpoint_BadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing channel", `{"value":24.5}`},
		{"missing value", `{"channel":"temperature"}`},
		{"not json", `plain text`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			station := &mockStation{}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Station: station})

			w := doRequest(r, http.MethodPut, "/api/v1/station/setpoint", []byte(tt.body), "valid")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400", w.Code)
			}
			if station.setCalls != 0 {
				t.Fatalf("bad payload must not reach the service")
			}
		})
	}
}

func TestSetSetpoint_UnknownChannel(t *testing.T) {
	station := &mockStation{setErr: service.ErrUnknownChannel}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Station: station})

	w := doRequest(r, http.MethodPut, "/api/v1/station/setpoint",
		[]byte(`{"channel":"pressure","value":1.0}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown channel should map to 400, got %d", w.Code)
	}
}

func TestSetSetpoint_ZeroValueAccepted(t *testing.T) {
	station := &mockStation{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Station: station})

	// value is a pointer in the payload so an explicit 0 binds fine.
	w := doRequest(r, http.MethodPut, "/api/v1/station/setpoint",
		[]byte(`{"channel":"co2","value":0}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("explicit zero rejected: status=%d, body=%s", w.Code, w.Body.String())
	}
	if station.lastValue != 0 {
		t.Fatalf("zero value lost: %+v", station)
	}
}
