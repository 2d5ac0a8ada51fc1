package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microclimate_station/internal/models"
	"microclimate_station/internal/repository"

	"github.com/google/uuid"
)

// StationService owns the write path into the controller: validated
// setpoint changes, recorded in the event history.
type StationService struct {
	ctrl      *HysteresisController
	eventRepo repository.EventRepo
}

func NewStationService(ctrl *HysteresisController, eventRepo repository.EventRepo) *StationService {
	return &StationService{ctrl: ctrl, eventRepo: eventRepo}
}

// SetSetpoint normalizes the channel name, applies the new target and
// appends a SETPOINT_CHANGE event. An unknown channel fails without
// touching the controller and is never fatal to the pipeline.
func (s *StationService) SetSetpoint(ctx context.Context, channel string, value float64) error {
	ch := models.Channel(strings.ToLower(strings.TrimSpace(channel)))

	prev, err := s.ctrl.Setpoint(ch)
	if err != nil {
		return err
	}
	if err := s.ctrl.SetSetpoint(ch, value); err != nil {
		return err
	}

	return s.eventRepo.Append(ctx, models.StationEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        "SETPOINT_CHANGE",
		Description: fmt.Sprintf("Setpoint %s changed to %g", ch, value),
		Metadata: map[string]any{
			"channel":  string(ch),
			"previous": prev,
			"value":    value,
		},
	})
}
