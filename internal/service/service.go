package service

import (
	"context"
	"errors"
	"time"

	"microclimate_station/internal/logger"
	"microclimate_station/internal/models"
	"microclimate_station/internal/mqtt"
	"microclimate_station/internal/repository"
)

// ErrUnknownChannel rejects setpoint operations against anything other
// than the three fixed channels.
var ErrUnknownChannel = errors.New("unknown channel")

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Station exposes the setpoint control surface used by the CLI and HTTP.
type Station interface {
	SetSetpoint(ctx context.Context, channel string, value float64) error
}

// Monitoring exposes read-only station state: setpoints, bands,
// actuators and the last reading produced.
type Monitoring interface {
	Status(ctx context.Context) (models.StationStatus, error)
}

// EventLog exposes the append-only station history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.StationEvent, error)
}

// Simulation runs the sense/control/log pipeline until ctx is canceled.
// The returned error is non-nil only when the log task died on an I/O
// failure; cancellation itself is a clean exit.
type Simulation interface {
	Run(ctx context.Context) error
}

// LogFilter bounds the event history query. Zero times mean unbounded.
type LogFilter struct {
	From time.Time // inclusive
	To   time.Time // inclusive
	Type string    // "", "SETPOINT_CHANGE", "ACTUATOR_CHANGE", "ERROR"
}

// Service aggregates all sub-services behind one wiring point.
type Service struct {
	Station
	Monitoring
	EventLog
	Simulation
	Authorization
}

// NewService builds the station: one process model, one controller
// (shared, single mutator), the pipeline around them, and the ancillary
// services. publisher may be nil when MQTT output is disabled.
func NewService(repos *repository.Repository, telemetry repository.TelemetryRepo,
	publisher *mqtt.Publisher, signingKey string, log *logger.Logger) *Service {

	model := NewProcessModel()
	ctrl := NewHysteresisController(DefaultSetpoints(), DefaultHysteresis())
	latest := newLatestReading()

	return &Service{
		Station:       NewStationService(ctrl, repos.EventRepo),
		Monitoring:    NewMonitoringService(ctrl, latest),
		EventLog:      NewEventLogService(repos.EventRepo),
		Simulation:    NewPipeline(model, ctrl, telemetry, repos.EventRepo, publisher, latest, log, DefaultPipelineConfig()),
		Authorization: NewAuthService(repos.Auth, signingKey),
	}
}
