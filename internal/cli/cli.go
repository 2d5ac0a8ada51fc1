// Package cli implements the interactive line command interface of the
// station: status, set <channel> <value>, actuators, help, exit.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"microclimate_station/internal/models"
	"microclimate_station/internal/service"
)

// CLI reads commands line by line and talks to the station services.
// Invalid input produces a one-line message and the loop keeps going;
// only `exit` (or EOF) ends it.
type CLI struct {
	station    service.Station
	monitoring service.Monitoring
	in         io.Reader
	out        io.Writer
}

func New(station service.Station, monitoring service.Monitoring, in io.Reader, out io.Writer) *CLI {
	return &CLI{station: station, monitoring: monitoring, in: in, out: out}
}

// Run processes commands until exit, EOF or ctx cancellation. `exit`
// calls cancel to stop the whole pipeline.
func (c *CLI) Run(ctx context.Context, cancel context.CancelFunc) {
	fmt.Fprintln(c.out, "Station CLI ready. Type 'help' for commands.")
	scanner := bufio.NewScanner(c.in)
	for ctx.Err() == nil && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !c.dispatch(ctx, line, cancel) {
			return
		}
	}
}

// dispatch handles one command line. Returns false when the loop should
// stop.
func (c *CLI) dispatch(ctx context.Context, line string, cancel context.CancelFunc) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case "help":
		fmt.Fprintln(c.out, "Commands: status, set <channel> <value>, actuators, help, exit")
		fmt.Fprintln(c.out, "Channels for set: temperature, humidity, co2")
	case "status":
		c.printStatus(ctx)
	case "actuators":
		c.printActuators(ctx)
	case "set":
		c.handleSet(ctx, parts)
	case "exit":
		fmt.Fprintln(c.out, "Shutting down...")
		cancel()
		return false
	default:
		fmt.Fprintln(c.out, "Unknown command. Type 'help' for the list.")
	}
	return true
}

func (c *CLI) handleSet(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		fmt.Fprintln(c.out, "Usage: set <channel> <value>")
		return
	}
	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		fmt.Fprintf(c.out, "Error: invalid value %q\n", parts[2])
		return
	}
	if err := c.station.SetSetpoint(ctx, parts[1], value); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Setpoint %s = %g\n", strings.ToLower(parts[1]), value)
}

func (c *CLI) printStatus(ctx context.Context) {
	st, err := c.monitoring.Status(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Setpoints: %s\n", formatChannelMap(st.Setpoints))
	fmt.Fprintf(c.out, "Hysteresis: %s\n", formatChannelMap(st.Hysteresis))
	fmt.Fprintf(c.out, "Actuators: %s\n", formatActuators(st.Actuators))
	if st.LastReading != nil {
		r := st.LastReading
		fmt.Fprintf(c.out, "Last reading: T=%.2f°C H=%.2f%% CO2=%.1fppm at %s\n",
			r.Temperature, r.Humidity, r.CO2, r.Timestamp.Format("15:04:05"))
	}
}

func (c *CLI) printActuators(ctx context.Context) {
	st, err := c.monitoring.Status(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, formatActuators(st.Actuators))
}

// formatChannelMap prints channels in their fixed order.
func formatChannelMap(m map[models.Channel]float64) string {
	var b strings.Builder
	for i, ch := range models.Channels() {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%g", ch, m[ch])
	}
	return b.String()
}

func formatActuators(a models.ActuatorState) string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("heater=%s cooler=%s humidifier=%s fan=%s",
		onOff(a.HeaterOn), onOff(a.CoolerOn), onOff(a.HumidifierOn), onOff(a.FanOn))
}
