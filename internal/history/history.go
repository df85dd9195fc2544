// Package history persists metric observations in SQLite. Readings are
// range-checked on the way in: suspicious values are stored with a
// warning, invalid ones are dropped.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/analysis"
	"github.com/kartoza/citylens/internal/simulate"
)

// Observation is one stored metric reading
type Observation struct {
	ID         int64     `json:"id"`
	Metric     string    `json:"metric"`
	Station    string    `json:"station"`
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// DailyValue is a per-day aggregate of one metric
type DailyValue struct {
	Day   string  `json:"day"`
	Value float64 `json:"value"`
}

// CityStation is the station name used for city-wide readings
const CityStation = "city"

// Store wraps the observations database
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the observation database at path
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening observation db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging observation db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		metric TEXT NOT NULL,
		station TEXT NOT NULL,
		value REAL NOT NULL,
		source TEXT NOT NULL,
		observed_at TIMESTAMP NOT NULL,
		UNIQUE(metric, station, observed_at)
	);
	CREATE INDEX IF NOT EXISTS idx_observations_metric_time
		ON observations(metric, observed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating observation schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Record validates and stores a batch of observations, returning how
// many were written. Rejected readings are logged and skipped;
// duplicate (metric, station, observed_at) rows are updated in place.
func (s *Store) Record(observations []Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO observations (metric, station, value, source, observed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(metric, station, observed_at)
		DO UPDATE SET value = excluded.value, source = excluded.source
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, obs := range observations {
		if finding := analysis.ValidateReading(obs.Metric, obs.Value); finding != nil {
			if finding.Severity == analysis.SeverityReject {
				s.logger.Warn("dropping invalid reading",
					zap.String("metric", obs.Metric),
					zap.String("station", obs.Station),
					zap.String("reason", finding.Message))
				continue
			}
			s.logger.Warn("storing suspicious reading",
				zap.String("metric", obs.Metric),
				zap.String("station", obs.Station),
				zap.String("reason", finding.Message))
		}
		if _, err := stmt.Exec(obs.Metric, obs.Station, obs.Value, obs.Source, obs.ObservedAt.UTC()); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting observation: %w", err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing observations: %w", err)
	}
	return stored, nil
}

// Latest returns the most recent observation for a metric at a station,
// or nil when none exists
func (s *Store) Latest(metric, station string) (*Observation, error) {
	row := s.db.QueryRow(`
		SELECT id, metric, station, value, source, observed_at
		FROM observations
		WHERE metric = ? AND station = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`, metric, station)

	var obs Observation
	err := row.Scan(&obs.ID, &obs.Metric, &obs.Station, &obs.Value, &obs.Source, &obs.ObservedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest observation: %w", err)
	}
	return &obs, nil
}

// Range returns the observations for a metric at a station between two
// times, oldest first
func (s *Store) Range(metric, station string, from, to time.Time) ([]Observation, error) {
	rows, err := s.db.Query(`
		SELECT id, metric, station, value, source, observed_at
		FROM observations
		WHERE metric = ? AND station = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`, metric, station, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying observation range: %w", err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var obs Observation
		if err := rows.Scan(&obs.ID, &obs.Metric, &obs.Station, &obs.Value, &obs.Source, &obs.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// DailyAverages returns the per-day mean of a metric at a station for
// the trailing days, oldest day first
func (s *Store) DailyAverages(metric, station string, days int) ([]DailyValue, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.Query(`
		SELECT date(observed_at) AS day, AVG(value)
		FROM observations
		WHERE metric = ? AND station = ? AND observed_at >= ?
		GROUP BY day
		ORDER BY day ASC
	`, metric, station, since)
	if err != nil {
		return nil, fmt.Errorf("querying daily averages: %w", err)
	}
	defer rows.Close()

	var values []DailyValue
	for rows.Next() {
		var dv DailyValue
		if err := rows.Scan(&dv.Day, &dv.Value); err != nil {
			return nil, fmt.Errorf("scanning daily average: %w", err)
		}
		values = append(values, dv)
	}
	return values, rows.Err()
}

// Count returns the total number of stored observations
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return n, nil
}

// Backfill seeds the given number of simulated city-wide daily readings
// when the store is empty, so trend charts have data on first launch
func (s *Store) Backfill(gen *simulate.Generator, days int) error {
	count, err := s.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	series := gen.HistoricalSeries(days)
	observations := make([]Observation, 0, len(series)*4)
	for _, rec := range series {
		day := rec.Date.Truncate(24 * time.Hour)
		observations = append(observations,
			Observation{Metric: "temperature", Station: CityStation, Value: rec.Temperature, Source: "simulated", ObservedAt: day},
			Observation{Metric: "aqi", Station: CityStation, Value: rec.AQI, Source: "simulated", ObservedAt: day},
			Observation{Metric: "water_quality", Station: CityStation, Value: rec.WaterQuality, Source: "simulated", ObservedAt: day},
			Observation{Metric: "green_cover", Station: CityStation, Value: rec.GreenCover, Source: "simulated", ObservedAt: day},
		)
	}

	stored, err := s.Record(observations)
	if err != nil {
		return fmt.Errorf("backfilling observations: %w", err)
	}
	s.logger.Info("backfilled observation history",
		zap.Int("days", days),
		zap.Int("stored", stored))
	return nil
}
