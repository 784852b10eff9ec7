package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iot-fleet-hub/internal/config"
	"iot-fleet-hub/internal/domain/tasklog"
	"iot-fleet-hub/internal/exchange"
	"iot-fleet-hub/internal/infrastructure/database/postgres"
	"iot-fleet-hub/internal/logger"
	"iot-fleet-hub/internal/routes"
	pkgmqtt "iot-fleet-hub/pkg/mqtt"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}
	if cfg.MQTT.Broker == "" {
		logger.Fatal("MQTT broker is missing. Please set MQTT_BROKER environment variable.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	mqttClient := pkgmqtt.NewClient(&pkgmqtt.Config{
		Broker:            cfg.MQTT.Broker,
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		CleanSession:      true,
		KeepAlive:         cfg.MQTT.KeepAlive,
		ConnectTimeout:    cfg.MQTT.ConnectTimeout,
		ReconnectAttempts: cfg.MQTT.ReconnectAttempts,
		ReconnectDelay:    cfg.MQTT.ReconnectDelay,
	},
		pkgmqtt.WithLogf(func(format string, args ...interface{}) {
			logger.Logger.Sugar().Infof(format, args...)
		}),
		pkgmqtt.WithFatalHandler(func(err error) {
			// A dead listener makes every station look offline; fail loudly so
			// the operator's process supervisor restarts or alerts.
			logger.Fatal("MQTT reconnect budget exhausted, exiting", zap.Error(err))
		}),
	)

	if err := mqttClient.Connect(); err != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}

	stationRepo := postgres.NewStationRepository(db)
	readingRepo := postgres.NewReadingRepository(db)
	taskLogRepo := postgres.NewTaskLogRepository(db)

	exchangeRouter := exchange.NewRouter(mqttClient, cfg.MQTT.TopicPrefix, taskLogRepo)
	exchangeRouter.Register(exchange.ActionHeartbeat, cfg.MQTT.HeartbeatQoS, tasklog.TaskHeartbeat,
		exchange.NewHeartbeatHandler(stationRepo))
	exchangeRouter.Register(exchange.ActionConfig, cfg.MQTT.ExchangeQoS, tasklog.TaskConfiguration,
		exchange.NewConfigHandler(stationRepo))
	exchangeRouter.Register(exchange.ActionData, cfg.MQTT.ExchangeQoS, tasklog.TaskDataUpload,
		exchange.NewDataUploadHandler(stationRepo, readingRepo))

	if err := exchangeRouter.Start(); err != nil {
		logger.Fatal("Failed to start exchange router", zap.Error(err))
	}

	router := routes.SetupRoutes(cfg, db)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	exchangeRouter.Stop()
	mqttClient.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
