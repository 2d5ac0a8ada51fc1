package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microclimate_station/internal/cli"
	"microclimate_station/internal/handlers"
	"microclimate_station/internal/logger"
	"microclimate_station/internal/mqtt"
	"microclimate_station/internal/repository"
	"microclimate_station/internal/repository/db"
	"microclimate_station/internal/server"
	"microclimate_station/internal/service"

	"github.com/spf13/viper"

	_ "microclimate_station/docs"
)

const shutdownTimeout = 10 * time.Second

// @title          Microclimate Station API
// @version        1.0
// @description    Closed-loop environmental control station: simulated plant, hysteresis controller, telemetry log.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB for event history and operator accounts
	database, err := db.InitDB(viper.GetString("db.path"))
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// telemetry sink: CSV file with a header row at creation
	telemetry, err := repository.NewTelemetryCSV(viper.GetString("log.path"))
	if err != nil {
		log.Fatalw("failed to create telemetry log", "err", err)
	}
	defer func() {
		if cerr := telemetry.Close(); cerr != nil {
			log.Errorw("failed to close telemetry log", "err", cerr)
		}
	}()

	// optional MQTT export of flushed records
	publisher := setupMQTT(log)

	// wire dependencies
	repos := repository.NewRepository(database)
	services := service.NewService(repos, telemetry, publisher, viper.GetString("auth.signing_key"), log)
	apiHandler := handlers.NewHandler(services, log)

	// pipeline context; a configured run duration arms auto-cancel
	ctx, cancel := pipelineContext()
	defer cancel()

	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := services.Simulation.Run(ctx); err != nil {
			log.Errorw("pipeline stopped with error", "err", err)
		}
	}()

	// interactive command interface on stdin; `exit` cancels the pipeline
	go cli.New(services.Station, services.Monitoring, os.Stdin, os.Stdout).Run(ctx, cancel)

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(ctx, cancel, pipelineDone, srv, log)
}

func loadConfig() error {
	viper.SetDefault("port", "8080")
	viper.SetDefault("db.path", "station.db")
	viper.SetDefault("log.path", "microclimate_log.csv")
	viper.SetDefault("run_seconds", 0) // 0 = run until canceled
	viper.SetDefault("auth.signing_key", "change-me-in-config")
	viper.SetDefault("mqtt.enabled", false)

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine: defaults + env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// pipelineContext returns the root context for the pipeline, bounded by
// run_seconds when configured.
func pipelineContext() (context.Context, context.CancelFunc) {
	if secs := viper.GetInt("run_seconds"); secs > 0 {
		return context.WithTimeout(context.Background(), time.Duration(secs)*time.Second)
	}
	return context.WithCancel(context.Background())
}

// setupMQTT connects the telemetry publisher when enabled. A broker
// failure at startup degrades to CSV-only logging instead of aborting.
func setupMQTT(log *logger.Logger) *mqtt.Publisher {
	if !viper.GetBool("mqtt.enabled") {
		return nil
	}
	client, err := mqtt.NewPahoClient(viper.GetString("mqtt.broker"), viper.GetString("mqtt.client_id"))
	if err != nil {
		log.Warnw("mqtt unavailable, telemetry export disabled", "err", err)
		return nil
	}
	return mqtt.NewPublisher(client, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Errorw("http server stopped", "err", err)
		}
	}()
}

// waitForShutdown blocks until a termination signal arrives or the
// pipeline context ends (run duration elapsed or CLI exit), then cancels
// the pipeline, waits for the log task to drain, and stops the server.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc,
	pipelineDone <-chan struct{}, srv *server.Server, log *logger.Logger) {

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Infow("shutting down...")
	cancel()

	// the log task flushes buffered records before exiting
	<-pipelineDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
