package service

import (
	"math"
	"math/rand/v2"

	"microclimate_station/internal/models"
)

// ----------- Physical coefficients -----------
const (
	InitialTempC       = 19.5
	InitialHumidityPct = 45.0
	InitialCO2PPM      = 650.0

	OutsideTempC        = 5.0   // fixed ambient outside temperature °C
	AmbientExchangeRate = 0.01  // fraction of (outside - temp) per second
	HeaterPowerC        = 0.8   // °C per second when heater on
	CoolerPowerC        = 1.0   // °C per second when cooler on
	HumidityBaselinePct = 40.0  // humidity relaxes toward this
	HumidityRelaxRate   = 0.005 // fraction per second
	HumidifierPowerPct  = 2.0   // % per second when humidifier on
	RespirationPPM      = 2.0   // ppm added per second
	OutdoorCO2PPM       = 400.0 // fan exchanges toward this
	FanExchangeRate     = 0.3   // fraction of (outdoor - co2) per second
)

// Process jitter half-widths (uniform, scaled by dt) and measurement
// noise sigmas (gaussian, per sample).
const (
	tempJitterC        = 0.05
	humidityJitterPct  = 0.1
	co2JitterPPM       = 1.0
	tempNoiseSigma     = 0.05
	humidityNoiseSigma = 0.2
	co2NoiseSigma      = 2.0
)

// ProcessModel simulates the climate of the enclosure given the current
// actuator state. Deterministic dynamics plus small uniform jitter; the
// measurement path adds independent gaussian noise on top.
//
// Not safe for concurrent use: the sense task is the only caller.
type ProcessModel struct {
	temp     float64
	humidity float64
	co2      float64
	rng      *rand.Rand
}

// NewProcessModel returns a model at the default initial conditions.
func NewProcessModel() *ProcessModel {
	return &ProcessModel{
		temp:     InitialTempC,
		humidity: InitialHumidityPct,
		co2:      InitialCO2PPM,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Advance moves the simulation forward by dt seconds under the given
// actuator state. dt must be positive; this is a caller contract and is
// not validated here.
//
// Heater and cooler are applied independently: mutual exclusion is the
// controller's invariant, not the plant's.
func (m *ProcessModel) Advance(act models.ActuatorState, dt float64) {
	m.temp += (OutsideTempC - m.temp) * AmbientExchangeRate * dt

	if act.HeaterOn {
		m.temp += HeaterPowerC * dt
	}
	if act.CoolerOn {
		m.temp -= CoolerPowerC * dt
	}

	m.humidity += (HumidityBaselinePct - m.humidity) * HumidityRelaxRate * dt
	if act.HumidifierOn {
		m.humidity += HumidifierPowerPct * dt
	}
	m.humidity = clamp(m.humidity, 0, 100)

	m.co2 += RespirationPPM * dt
	if act.FanOn {
		m.co2 += (OutdoorCO2PPM - m.co2) * FanExchangeRate * dt
	}

	m.temp += m.uniform(tempJitterC) * dt
	m.humidity += m.uniform(humidityJitterPct) * dt
	m.co2 += m.uniform(co2JitterPPM) * dt
	m.humidity = clamp(m.humidity, 0, 100)
}

// Sample builds a reading from the current state plus measurement noise.
// Side-effect free; may be called any number of times between Advance
// calls. The caller stamps the timestamp.
func (m *ProcessModel) Sample() models.Reading {
	return models.Reading{
		Temperature: roundTo(m.temp+m.rng.NormFloat64()*tempNoiseSigma, 2),
		Humidity:    roundTo(m.humidity+m.rng.NormFloat64()*humidityNoiseSigma, 2),
		CO2:         roundTo(m.co2+m.rng.NormFloat64()*co2NoiseSigma, 1),
	}
}

// uniform returns a value in [-halfWidth, halfWidth).
func (m *ProcessModel) uniform(halfWidth float64) float64 {
	return (m.rng.Float64()*2 - 1) * halfWidth
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
