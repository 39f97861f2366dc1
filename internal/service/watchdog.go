package service

import (
	"context"
	"time"

	"example.com/coldchain/internal/repository"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Watchdog periodically flags active sensors that have stopped reporting.
// A sensor whose newest measurement is older than the silent threshold gets
// a "sensor.silent" audit entry and a warning log, once per silence; the
// flag clears when the sensor reports again.
type Watchdog struct {
	db              *repository.Repositories
	log             *logrus.Logger
	interval        time.Duration
	silentThreshold time.Duration
	scheduler       gocron.Scheduler

	flagged map[string]bool
}

// WatchdogConfig holds the configuration for the watchdog
type WatchdogConfig struct {
	Repositories    *repository.Repositories
	Logger          *logrus.Logger
	Interval        time.Duration
	SilentThreshold time.Duration
}

// NewWatchdog creates a watchdog with its scheduler not yet started
func NewWatchdog(cfg WatchdogConfig) (*Watchdog, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SilentThreshold <= 0 {
		cfg.SilentThreshold = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Watchdog{
		db:              cfg.Repositories,
		log:             cfg.Logger,
		interval:        cfg.Interval,
		silentThreshold: cfg.SilentThreshold,
		scheduler:       scheduler,
		flagged:         make(map[string]bool),
	}, nil
}

// Start schedules the periodic sweep and runs it until Stop is called
func (w *Watchdog) Start(ctx context.Context) error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.sweep(ctx); err != nil {
				w.log.WithError(err).Error("Watchdog sweep failed")
			}
		}),
	)
	if err != nil {
		return err
	}

	w.scheduler.Start()
	w.log.WithFields(logrus.Fields{
		"interval":         w.interval.String(),
		"silent_threshold": w.silentThreshold.String(),
	}).Info("Sensor watchdog started")
	return nil
}

// Stop shuts the scheduler down and waits for a running sweep to finish
func (w *Watchdog) Stop() error {
	return w.scheduler.Shutdown()
}

// sweep inspects every active sensor's newest measurement
func (w *Watchdog) sweep(ctx context.Context) error {
	active := true
	sensors, err := w.db.Sensors.List(ctx, repository.SensorFilter{IsActive: &active})
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-w.silentThreshold)
	for _, sensor := range sensors {
		latest, err := w.db.Measurements.List(ctx, repository.MeasurementFilter{
			SensorID: sensor.ID.String(),
			Limit:    1,
		})
		if err != nil {
			return err
		}

		lastSeen := sensor.CreatedAt
		if len(latest) > 0 {
			lastSeen = latest[0].RecordedAt
		}

		id := sensor.ID.String()
		if lastSeen.After(cutoff) {
			delete(w.flagged, id)
			continue
		}
		if w.flagged[id] {
			continue
		}
		w.flagged[id] = true

		w.log.WithFields(logrus.Fields{
			"sensor_id": id,
			"sensor":    sensor.Name,
			"last_seen": lastSeen.Format(time.RFC3339),
		}).Warn("Sensor has gone silent")

		err = recordAudit(ctx, w.db.AuditLogs, "sensor.silent", nil, "Sensor", id, map[string]interface{}{
			"last_seen": lastSeen.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
