package service

import (
	"fmt"
	"sync"

	"microclimate_station/internal/models"
)

// Default control targets and hysteresis half-widths per channel.
func DefaultSetpoints() map[models.Channel]float64 {
	return map[models.Channel]float64{
		models.ChannelTemperature: 22.0,
		models.ChannelHumidity:    50.0,
		models.ChannelCO2:         800.0,
	}
}

func DefaultHysteresis() map[models.Channel]float64 {
	return map[models.Channel]float64{
		models.ChannelTemperature: 0.7,
		models.ChannelHumidity:    3.0,
		models.ChannelCO2:         50.0,
	}
}

// HysteresisController maps a reading to actuator commands, one rule per
// channel, evaluated independently on every update:
//
//   - temperature: two-sided, non-sticky. Below the deadband the heater
//     runs, above it the cooler runs, inside it both are forced off.
//   - humidity: one-sided, sticky. The humidifier turns on below the
//     deadband, off above it, and keeps its last state inside it.
//   - co2: one-sided, sticky, inverted. The fan turns on above the
//     deadband, off below it, and keeps its last state inside it.
//
// The temperature rule deliberately clears both outputs inside the band
// while the other two channels hold state there.
//
// The control task is the single writer of the actuator state; readers
// (sense, log, observer, HTTP) get consistent snapshots under the lock.
type HysteresisController struct {
	mu         sync.RWMutex
	setpoints  map[models.Channel]float64
	hysteresis map[models.Channel]float64
	actuators  models.ActuatorState
}

// NewHysteresisController copies the given maps; the channel key set is
// fixed from then on.
func NewHysteresisController(setpoints, hysteresis map[models.Channel]float64) *HysteresisController {
	c := &HysteresisController{
		setpoints:  make(map[models.Channel]float64, len(setpoints)),
		hysteresis: make(map[models.Channel]float64, len(hysteresis)),
	}
	for ch, v := range setpoints {
		c.setpoints[ch] = v
	}
	for ch, v := range hysteresis {
		c.hysteresis[ch] = v
	}
	return c
}

// Update applies all three channel rules against the reading and mutates
// the actuator state. Idempotent for a fixed reading and prior state.
func (c *HysteresisController) Update(r models.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sp, h := c.setpoints[models.ChannelTemperature], c.hysteresis[models.ChannelTemperature]
	switch {
	case r.Temperature < sp-h:
		c.actuators.HeaterOn = true
		c.actuators.CoolerOn = false
	case r.Temperature > sp+h:
		c.actuators.CoolerOn = true
		c.actuators.HeaterOn = false
	default:
		c.actuators.HeaterOn = false
		c.actuators.CoolerOn = false
	}

	sp, h = c.setpoints[models.ChannelHumidity], c.hysteresis[models.ChannelHumidity]
	if r.Humidity < sp-h {
		c.actuators.HumidifierOn = true
	} else if r.Humidity > sp+h {
		c.actuators.HumidifierOn = false
	}

	sp, h = c.setpoints[models.ChannelCO2], c.hysteresis[models.ChannelCO2]
	if r.CO2 > sp+h {
		c.actuators.FanOn = true
	} else if r.CO2 < sp-h {
		c.actuators.FanOn = false
	}
}

// SetSetpoint replaces the target for a known channel. Unknown channels
// are rejected; the key set never grows.
func (c *HysteresisController) SetSetpoint(ch models.Channel, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.setpoints[ch]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	c.setpoints[ch] = value
	return nil
}

// Setpoint returns the current target for a channel.
func (c *HysteresisController) Setpoint(ch models.Channel) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.setpoints[ch]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	return v, nil
}

// Actuators returns a consistent snapshot of the actuator state.
func (c *HysteresisController) Actuators() models.ActuatorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actuators
}

// Status returns a read-only snapshot of setpoints, hysteresis bands and
// actuator state. The maps are copies.
func (c *HysteresisController) Status() models.StationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := models.StationStatus{
		Setpoints:  make(map[models.Channel]float64, len(c.setpoints)),
		Hysteresis: make(map[models.Channel]float64, len(c.hysteresis)),
		Actuators:  c.actuators,
	}
	for ch, v := range c.setpoints {
		st.Setpoints[ch] = v
	}
	for ch, v := range c.hysteresis {
		st.Hysteresis[ch] = v
	}
	return st
}
