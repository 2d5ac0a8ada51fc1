package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"microclimate_station/internal/logger"
	"microclimate_station/internal/models"
	"microclimate_station/internal/mqtt"
	"microclimate_station/internal/repository"

	"github.com/google/uuid"
)

// PipelineConfig carries the periods and queue capacities of the four
// pipeline tasks.
type PipelineConfig struct {
	SensePeriod   time.Duration // advance+sample cadence
	ControlPeriod time.Duration // max wait for a reading before idling
	LogPeriod     time.Duration // min time between telemetry flushes
	LogPoll       time.Duration // log task queue poll window
	StatusPeriod  time.Duration // observer print cadence
	IdleWait      time.Duration // control task backoff after a timeout

	ReadingQueueCap int
	LogQueueCap     int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SensePeriod:     1 * time.Second,
		ControlPeriod:   1 * time.Second,
		LogPeriod:       5 * time.Second,
		LogPoll:         1 * time.Second,
		StatusPeriod:    5 * time.Second,
		IdleWait:        10 * time.Millisecond,
		ReadingQueueCap: 10,
		LogQueueCap:     100,
	}
}

// Pipeline wires the process model, the controller and the telemetry
// sink into four cooperating tasks connected by two bounded queues:
//
//	sense -> readings -> control -> records -> log
//
// Readings travel in sampling order and the bounded queues give natural
// backpressure: a full readings queue suspends the sense task instead of
// dropping data. The observer never touches the queues; it reads the
// last-value cache the sense task maintains.
type Pipeline struct {
	model     *ProcessModel
	ctrl      *HysteresisController
	telemetry repository.TelemetryRepo
	events    repository.EventRepo
	publisher *mqtt.Publisher
	latest    *latestReading
	log       *logger.Logger
	cfg       PipelineConfig
}

func NewPipeline(model *ProcessModel, ctrl *HysteresisController,
	telemetry repository.TelemetryRepo, events repository.EventRepo,
	publisher *mqtt.Publisher, latest *latestReading,
	log *logger.Logger, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		model:     model,
		ctrl:      ctrl,
		telemetry: telemetry,
		events:    events,
		publisher: publisher,
		latest:    latest,
		log:       log,
		cfg:       cfg,
	}
}

// Run starts the four tasks and blocks until all of them have exited.
// Cancel ctx to stop; the log task keeps draining already-queued records
// after cancellation. A bounded total run time is the caller's job
// (wrap ctx with a deadline).
func (p *Pipeline) Run(ctx context.Context) error {
	readings := make(chan models.Reading, p.cfg.ReadingQueueCap)
	records := make(chan models.LogRecord, p.cfg.LogQueueCap)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(4)
	go func() {
		defer wg.Done()
		p.senseLoop(ctx, readings)
	}()
	go func() {
		defer wg.Done()
		p.controlLoop(ctx, readings, records)
	}()
	go func() {
		defer wg.Done()
		if err := p.logLoop(ctx, records); err != nil {
			// Fatal for the log task only; the rest of the pipeline
			// keeps running until cancellation.
			p.log.Errorw("log task stopped", "err", err)
			select {
			case errCh <- err:
			default:
			}
		}
	}()
	go func() {
		defer wg.Done()
		p.observeLoop(ctx)
	}()

	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// senseLoop advances the plant by one sampling period, samples it,
// stamps the reading and pushes it downstream. The push blocks on a full
// queue, throttling the sensor rate.
func (p *Pipeline) senseLoop(ctx context.Context, out chan<- models.Reading) {
	dt := p.cfg.SensePeriod.Seconds()
	for ctx.Err() == nil {
		p.model.Advance(p.ctrl.Actuators(), dt)
		r := p.model.Sample()
		r.Timestamp = time.Now().UTC()
		p.latest.Set(r)

		select {
		case out <- r:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(p.cfg.SensePeriod):
		case <-ctx.Done():
			return
		}
	}
}

// controlLoop pops readings in FIFO order, runs the controller and
// forwards the (reading, actuator snapshot) pair. A timeout is not an
// error: it idles briefly and retries. On cancellation it exits without
// draining; records already forwarded are the log task's responsibility.
func (p *Pipeline) controlLoop(ctx context.Context, in <-chan models.Reading, out chan<- models.LogRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-in:
			prev := p.ctrl.Actuators()
			p.ctrl.Update(r)
			act := p.ctrl.Actuators()
			if act != prev {
				p.recordActuatorChange(ctx, prev, act, r)
			}
			select {
			case out <- models.LogRecord{Reading: r, Actuators: act}:
			case <-ctx.Done():
				return
			}
		case <-time.After(p.cfg.ControlPeriod):
			time.Sleep(p.cfg.IdleWait)
		}
	}
}

// logLoop batches records and flushes them in arrival order once the
// batch is non-empty and a full logging period has elapsed, as a single
// guard. It keeps looping while the queue still holds items even after
// cancellation, and flushes whatever remains on the way out, so no
// buffered record is lost to shutdown timing. An append failure is fatal
// for this task alone.
func (p *Pipeline) logLoop(ctx context.Context, in <-chan models.LogRecord) error {
	batch := make([]models.LogRecord, 0, 16)
	lastFlush := time.Now()

	flush := func() error {
		for _, rec := range batch {
			if err := p.telemetry.Append(ctx, rec); err != nil {
				return fmt.Errorf("append telemetry: %w", err)
			}
			if p.publisher != nil {
				p.publisher.Publish(rec)
			}
		}
		batch = batch[:0]
		lastFlush = time.Now()
		return nil
	}

	for {
		if ctx.Err() != nil && len(in) == 0 {
			break
		}
		select {
		case rec := <-in:
			batch = append(batch, rec)
		case <-time.After(p.cfg.LogPoll):
		}
		if len(batch) > 0 && time.Since(lastFlush) >= p.cfg.LogPeriod {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if len(batch) > 0 {
		return flush()
	}
	return nil
}

// observeLoop prints a periodic human-readable snapshot of the last
// reading and the actuator state. Absence of data is not an error; it
// just stays quiet until the first sample exists.
func (p *Pipeline) observeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.StatusPeriod):
			r, ok := p.latest.Get()
			if !ok {
				continue
			}
			act := p.ctrl.Actuators()
			p.log.Infow("station snapshot",
				"time", r.Timestamp.Format(time.RFC3339),
				"temp_c", r.Temperature,
				"humidity_pct", r.Humidity,
				"co2_ppm", r.CO2,
				"heater", act.HeaterOn,
				"cooler", act.CoolerOn,
				"humidifier", act.HumidifierOn,
				"fan", act.FanOn,
			)
		}
	}
}

// recordActuatorChange appends an ACTUATOR_CHANGE event. History is
// best-effort from the pipeline's point of view: a failed append is
// logged and the control loop keeps running.
func (p *Pipeline) recordActuatorChange(ctx context.Context, prev, cur models.ActuatorState, r models.Reading) {
	if p.events == nil {
		return
	}
	err := p.events.Append(ctx, models.StationEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        "ACTUATOR_CHANGE",
		Description: "Actuator state changed",
		Metadata: map[string]any{
			"from":        prev,
			"to":          cur,
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
			"co2":         r.CO2,
		},
	})
	if err != nil {
		p.log.Warnw("append actuator event failed", "err", err)
	}
}
