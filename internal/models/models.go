package models

import "time"

// Channel identifies one of the three controlled climate channels.
// The set is fixed at construction time; there is no way to add more.
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelHumidity    Channel = "humidity"
	ChannelCO2         Channel = "co2"
)

// Channels lists the fixed channel set in a stable order.
func Channels() []Channel {
	return []Channel{ChannelTemperature, ChannelHumidity, ChannelCO2}
}

// Reading is a single sensor sample. Immutable once produced: the sense
// task creates it, stamps it, and hands it downstream read-only.
type Reading struct {
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // % RH, 0..100
	CO2         float64   `json:"co2"`         // ppm
	Timestamp   time.Time `json:"timestamp"`
}

// ActuatorState is the output of the controller. HeaterOn and CoolerOn
// are never both true after an update.
type ActuatorState struct {
	HeaterOn     bool `json:"heater_on"`
	CoolerOn     bool `json:"cooler_on"`
	HumidifierOn bool `json:"humidifier_on"`
	FanOn        bool `json:"fan_on"`
}

// LogRecord pairs a reading with the actuator snapshot taken right after
// the control update for that reading. Never mutated once enqueued.
type LogRecord struct {
	Reading   Reading       `json:"reading"`
	Actuators ActuatorState `json:"actuators"`
}

// StationStatus is a read-only snapshot of the controller plus the most
// recent reading, if any has been produced yet.
type StationStatus struct {
	Setpoints   map[Channel]float64 `json:"setpoints"`
	Hysteresis  map[Channel]float64 `json:"hysteresis"`
	Actuators   ActuatorState       `json:"actuators"`
	LastReading *Reading            `json:"last_reading,omitempty"`
}

// StationEvent is a single history entry: setpoint changes and actuator
// transitions end up here.
type StationEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // SETPOINT_CHANGE | ACTUATOR_CHANGE | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// User is an operator account for the HTTP API.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
