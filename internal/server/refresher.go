package server

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kartoza/citylens/internal/analysis"
	"github.com/kartoza/citylens/internal/assistant"
	"github.com/kartoza/citylens/internal/history"
	"github.com/kartoza/citylens/internal/weather"
)

// refresher pulls the live feeds into the history store on a schedule
// and sweeps idle chat sessions along the way. A feed that is down is
// skipped until the next run; simulated values are never persisted.
type refresher struct {
	schedule string
	weather  *weather.Client
	history  *history.Store
	sessions *assistant.SessionStore
	logger   *zap.Logger
	cron     *cron.Cron
}

func newRefresher(schedule string, wc *weather.Client, store *history.Store, sessions *assistant.SessionStore, logger *zap.Logger) *refresher {
	if schedule == "" {
		schedule = "0 * * * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &refresher{
		schedule: schedule,
		weather:  wc,
		history:  store,
		sessions: sessions,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start runs one refresh immediately, then on the configured schedule
func (r *refresher) Start() {
	if _, err := r.cron.AddFunc(r.schedule, r.refresh); err != nil {
		r.logger.Error("refresh schedule rejected",
			zap.String("schedule", r.schedule), zap.Error(err))
		return
	}
	go r.refresh()
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish
func (r *refresher) Stop() {
	<-r.cron.Stop().Done()
}

// refresh fetches both feeds concurrently and records whatever arrived.
// Range checks happen in the store; rejected readings are dropped there.
func (r *refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var cur *weather.Current
	var air *weather.AirQuality
	var eg errgroup.Group
	eg.Go(func() error {
		c, err := r.weather.Current(ctx)
		if err == nil {
			cur = c
		}
		return err
	})
	eg.Go(func() error {
		a, err := r.weather.AirQuality(ctx)
		if err == nil {
			air = a
		}
		return err
	})
	if err := eg.Wait(); err != nil {
		r.logger.Warn("refresh incomplete, keeping what arrived", zap.Error(err))
	}

	hour := time.Now().UTC().Truncate(time.Hour)
	var observations []history.Observation
	if cur != nil {
		observations = append(observations, history.Observation{
			Metric:     "temperature",
			Station:    history.CityStation,
			Value:      cur.Temperature,
			Source:     cur.Source,
			ObservedAt: hour,
		})
	}
	if air != nil {
		observations = append(observations, history.Observation{
			Metric:     "aqi",
			Station:    history.CityStation,
			Value:      float64(analysis.AQIFromPM25(air.PM25)),
			Source:     air.Source,
			ObservedAt: hour,
		})
	}

	if len(observations) > 0 {
		stored, err := r.history.Record(observations)
		if err != nil {
			r.logger.Error("recording observations failed", zap.Error(err))
		} else {
			r.logger.Info("observations refreshed",
				zap.Int("stored", stored), zap.Time("hour", hour))
		}
	}

	if removed := r.sessions.Sweep(); removed > 0 {
		r.logger.Debug("idle chat sessions swept", zap.Int("removed", removed))
	}
}
