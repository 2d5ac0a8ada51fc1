// Package mqtt publishes flushed telemetry records to an MQTT broker,
// with an abstraction over the client for testing and a fixed-capacity
// buffer that holds records while the broker is unreachable.
package mqtt

import (
	"encoding/json"
	"sync"
	"time"

	"microclimate_station/internal/logger"
	"microclimate_station/internal/models"
)

// Topic is the MQTT topic telemetry records are published to.
const Topic = "microclimate/station/telemetry"

const defaultBufferCapacity = 256

// Client is the minimal broker surface the publisher needs.
type Client interface {
	IsConnected() bool
	// Publish sends one payload. Returns an error on broker failure;
	// it must not block indefinitely.
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Payload is the published message body.
type Payload struct {
	Timestamp   string `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Heater      bool    `json:"heater"`
	Cooler      bool    `json:"cooler"`
	Humidifier  bool    `json:"humidifier"`
	Fan         bool    `json:"fan"`
}

// FormatPayload creates the JSON payload for a telemetry record.
func FormatPayload(rec models.LogRecord) ([]byte, error) {
	return json.Marshal(Payload{
		Timestamp:   rec.Reading.Timestamp.UTC().Format(time.RFC3339),
		Temperature: rec.Reading.Temperature,
		Humidity:    rec.Reading.Humidity,
		CO2:         rec.Reading.CO2,
		Heater:      rec.Actuators.HeaterOn,
		Cooler:      rec.Actuators.CoolerOn,
		Humidifier:  rec.Actuators.HumidifierOn,
		Fan:         rec.Actuators.FanOn,
	})
}

// Publisher pushes telemetry records to the broker. While disconnected
// it parks payloads in a ring buffer (oldest dropped on overflow) and
// drains them in FIFO order once the connection is back.
//
// Publish never returns an error: telemetry export is best-effort and
// must not take the log task down.
type Publisher struct {
	mu     sync.Mutex
	client Client
	topic  string
	buf    *ringBuffer
	log    *logger.Logger
}

// NewPublisher wraps a connected (or auto-reconnecting) client.
func NewPublisher(client Client, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  Topic,
		buf:    newRingBuffer(defaultBufferCapacity),
		log:    log,
	}
}

// Publish sends one record, draining any buffered backlog first.
func (p *Publisher) Publish(rec models.LogRecord) {
	payload, err := FormatPayload(rec)
	if err != nil {
		p.log.Warnw("mqtt payload marshal failed", "err", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnected() {
		if dropped := p.buf.push(payload); dropped {
			p.log.Warnw("mqtt buffer full, dropped oldest record")
		}
		return
	}

	for _, old := range p.buf.drainAll() {
		p.send(old)
	}
	p.send(payload)
}

func (p *Publisher) send(payload []byte) {
	// QoS 0, not retained: the CSV log is the durable record
	if err := p.client.Publish(p.topic, 0, false, payload); err != nil {
		p.log.Warnw("mqtt publish failed", "err", err)
	}
}

// Buffered returns how many payloads are waiting for a reconnect.
func (p *Publisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}
