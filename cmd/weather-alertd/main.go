package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/checker"
	"github.com/ngmaloney/weather-alert/internal/config"
	"github.com/ngmaloney/weather-alert/internal/database"
	"github.com/ngmaloney/weather-alert/internal/history"
	"github.com/ngmaloney/weather-alert/internal/locations"
	"github.com/ngmaloney/weather-alert/internal/notify"
	"github.com/ngmaloney/weather-alert/internal/observability"
	"github.com/ngmaloney/weather-alert/internal/preferences"
	"github.com/ngmaloney/weather-alert/internal/ratelimit"
	"github.com/ngmaloney/weather-alert/internal/server"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

func main() {
	once := flag.Bool("once", false, "Run a single check and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := observability.NewLogger(observability.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, log, *once); err != nil {
		log.WithError(err).Error("weather-alertd failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger, once bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	alertHistory, err := history.NewStore(db, history.AlertTable, clock)
	if err != nil {
		return err
	}
	notificationHistory, err := history.NewStore(db, history.NotificationTable, clock)
	if err != nil {
		return err
	}

	notifiers := notify.Multi{
		notify.NewLogNotifier(log),
		notify.NewWriterNotifier(os.Stdout),
	}
	if cfg.KafkaEnabled() {
		kafka := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		defer func() {
			if err := kafka.Close(); err != nil {
				log.WithError(err).Error("kafka writer close error")
			}
		}()
		notifiers = append(notifiers, kafka)
		log.WithField("topic", cfg.KafkaNotifyTopic).Info("kafka notifications enabled")
	}

	c := checker.New(checker.Config{
		Locations:     locations.NewRepository(db),
		Preferences:   preferences.NewRepository(db),
		AlertHistory:  alertHistory,
		Notifications: notificationHistory,
		Events: tomorrow.NewClient(tomorrow.Options{
			BaseURL:  cfg.APIBaseURL,
			APIKey:   cfg.APIKey,
			RetryMax: cfg.HTTPRetryMax,
			Logger:   log,
		}),
		Limiter:  ratelimit.NewWithStore(ratelimit.NewSQLStore(db), clock),
		Notifier: notifiers,
		Metrics:  metrics,
		Logger:   log,
		Clock:    clock,
		RadiusKm: cfg.RadiusKm,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		res := c.Run(ctx, 0)
		fmt.Printf("%s: %d new alerts, %d notified\n", res.Outcome, len(res.NewAlerts), res.Notified)
		return res.Err
	}

	state := checker.NewStateStore(database.NewKV(db))
	sched := checker.NewScheduler(c, state, clock, log)
	srv := server.New(cfg.HTTPAddr, db, sched, nil, log)

	serve(ctx, sched, srv, cfg.ShutdownTimeout, log)
	return nil
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type scheduler interface {
	Start(ctx context.Context) error
}

// serve runs the scheduler and the status server until ctx is cancelled.
// It returns once the scheduler has stopped, so callers may close the
// database afterwards.
func serve(ctx context.Context, sched scheduler, srv httpServer, timeout time.Duration, log logrus.FieldLogger) {
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server error")
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("scheduler error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}

	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		log.Warn("scheduler still running at shutdown timeout")
		<-schedDone
	}

	log.Info("shutdown complete")
}
