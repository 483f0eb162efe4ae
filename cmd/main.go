package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmate/internal/api"
	"taskmate/internal/config"
	"taskmate/internal/db"
	"taskmate/internal/escalation"
	"taskmate/internal/logging"
	"taskmate/internal/providers"
	"taskmate/internal/scheduler"
	"taskmate/internal/utils"
	"taskmate/internal/ws"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed:", err)
	}
	defer logger.Close()

	// Connect to DB
	var dbConn *db.DB
	err = utils.Retry(logger, 5, 3*time.Second, func() error {
		var err error
		dbConn, err = db.New(cfg.DB.DSN)
		return err
	})
	if err != nil {
		logger.Errorf("DB connect failed: %v", err)
		log.Fatal("DB connect failed:", err)
	}
	defer dbConn.Close()

	if err := dbConn.Migrate(context.Background()); err != nil {
		logger.Errorf("Migration failed: %v", err)
		log.Fatal("Migration failed:", err)
	}

	// Notification gateway; a service without a usable gateway must not
	// start ticking.
	dispatcher, err := providers.New(cfg, logger)
	if err != nil {
		logger.Errorf("Gateway init failed: %v", err)
		log.Fatal("Gateway init failed:", err)
	}

	hub := ws.NewHub(logger)

	engine := escalation.New(dbConn, dbConn, dispatcher, logger, escalation.Options{
		StageDwell:  cfg.Scheduler.StageDwell,
		SendTimeout: cfg.Scheduler.SendTimeout,
		MaxWorkers:  cfg.Scheduler.MaxWorkers,
		Events:      hub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic activities
	sched := scheduler.New(logger)
	if err := sched.Every(cfg.Scheduler.AlertTick, "alert tick", func() {
		engine.RunAlertTick(ctx)
	}); err != nil {
		log.Fatal("Scheduler setup failed:", err)
	}
	if err := sched.Every(cfg.Scheduler.EndOfDayTick, "end-of-day tick", func() {
		engine.RunEndOfDayTick(ctx)
	}); err != nil {
		log.Fatal("Scheduler setup failed:", err)
	}
	sched.Start()

	// Start API server
	router := api.NewRouter(dbConn, logger, cfg, hub)
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	sched.Stop()
	logger.Infof("Service stopped")
}
