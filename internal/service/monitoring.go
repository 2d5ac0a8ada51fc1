package service

import (
	"context"

	"microclimate_station/internal/models"
)

// MonitoringService combines the controller snapshot with the last
// produced reading for the CLI, HTTP and WebSocket surfaces.
type MonitoringService struct {
	ctrl   *HysteresisController
	latest *latestReading
}

func NewMonitoringService(ctrl *HysteresisController, latest *latestReading) *MonitoringService {
	return &MonitoringService{ctrl: ctrl, latest: latest}
}

// Status returns a read-only snapshot. LastReading is nil until the
// sense task has produced at least one sample; that is not an error.
func (s *MonitoringService) Status(ctx context.Context) (models.StationStatus, error) {
	st := s.ctrl.Status()
	if r, ok := s.latest.Get(); ok {
		st.LastReading = &r
	}
	return st, nil
}
