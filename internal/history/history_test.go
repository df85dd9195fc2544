package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/simulate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "observations.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndLatest(t *testing.T) {
	store := newTestStore(t)

	earlier := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	stored, err := store.Record([]Observation{
		{Metric: "temperature", Station: CityStation, Value: 30.5, Source: "open-meteo", ObservedAt: earlier},
		{Metric: "temperature", Station: CityStation, Value: 31.2, Source: "open-meteo", ObservedAt: later},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	latest, err := store.Latest("temperature", CityStation)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 31.2, latest.Value)
	assert.Equal(t, "open-meteo", latest.Source)
	assert.WithinDuration(t, later, latest.ObservedAt, time.Second)
}

func TestLatestMissing(t *testing.T) {
	store := newTestStore(t)
	latest, err := store.Latest("aqi", "nowhere")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRecordUpsert(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.Record([]Observation{
		{Metric: "aqi", Station: CityStation, Value: 150, Source: "simulated", ObservedAt: at},
	})
	require.NoError(t, err)

	_, err = store.Record([]Observation{
		{Metric: "aqi", Station: CityStation, Value: 162, Source: "open-meteo", ObservedAt: at},
	})
	require.NoError(t, err)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	latest, err := store.Latest("aqi", CityStation)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 162.0, latest.Value)
	assert.Equal(t, "open-meteo", latest.Source)
}

func TestRecordValidation(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	stored, err := store.Record([]Observation{
		{Metric: "aqi", Station: CityStation, Value: -10, Source: "simulated", ObservedAt: at},
		{Metric: "temperature", Station: CityStation, Value: 12.0, Source: "simulated", ObservedAt: at},
		{Metric: "aqi", Station: "Hebbal", Value: 132, Source: "simulated", ObservedAt: at},
	})
	require.NoError(t, err)

	// the invalid AQI is dropped, the cold temperature stored with a warning
	assert.Equal(t, 2, stored)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	dropped, err := store.Latest("aqi", CityStation)
	require.NoError(t, err)
	assert.Nil(t, dropped)
}

func TestRange(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var batch []Observation
	for i := 0; i < 5; i++ {
		batch = append(batch, Observation{
			Metric:     "water_quality",
			Station:    "Bellandur Lake",
			Value:      3.0 + float64(i)*0.1,
			Source:     "simulated",
			ObservedAt: base.AddDate(0, 0, i),
		})
	}
	_, err := store.Record(batch)
	require.NoError(t, err)

	got, err := store.Range("water_quality", "Bellandur Lake", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3.1, got[0].Value)
	assert.Equal(t, 3.3, got[2].Value)
	assert.True(t, got[0].ObservedAt.Before(got[1].ObservedAt))
}

func TestDailyAverages(t *testing.T) {
	store := newTestStore(t)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	_, err := store.Record([]Observation{
		{Metric: "temperature", Station: CityStation, Value: 28, Source: "open-meteo", ObservedAt: today.Add(9 * time.Hour)},
		{Metric: "temperature", Station: CityStation, Value: 34, Source: "open-meteo", ObservedAt: today.Add(15 * time.Hour)},
		{Metric: "temperature", Station: CityStation, Value: 30, Source: "open-meteo", ObservedAt: today.AddDate(0, 0, -1).Add(12 * time.Hour)},
	})
	require.NoError(t, err)

	values, err := store.DailyAverages("temperature", CityStation, 7)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, 30.0, values[0].Value)
	assert.Equal(t, 31.0, values[1].Value)
	assert.Less(t, values[0].Day, values[1].Day)
}

func TestBackfill(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Backfill(simulate.New(42), 30))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(120), count)

	// a second backfill on a non-empty store is a no-op
	require.NoError(t, store.Backfill(simulate.New(7), 365))
	count, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(120), count)

	latest, err := store.Latest("green_cover", CityStation)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "simulated", latest.Source)
}
