package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAQIFromPM25(t *testing.T) {
	tests := []struct {
		name string
		conc float64
		want int
	}{
		{"zero", 0, 0},
		{"clean air", 6.0, 25},
		{"band boundary", 12.0, 50},
		{"moderate", 35.4, 100},
		{"sensitive groups", 45.0, 124},
		{"unhealthy", 100.0, 174},
		{"very unhealthy", 200.0, 250},
		{"beyond scale", 400.0, 301},
		{"negative clamps", -5.0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AQIFromPM25(tc.conc))
		})
	}
}

func TestAQICategory(t *testing.T) {
	assert.Equal(t, "Good", AQICategory(42))
	assert.Equal(t, "Moderate", AQICategory(100))
	assert.Equal(t, "Unhealthy for Sensitive Groups", AQICategory(134))
	assert.Equal(t, "Unhealthy", AQICategory(178))
	assert.Equal(t, "Very Unhealthy", AQICategory(250))
	assert.Equal(t, "Hazardous", AQICategory(340))
}

func TestPM25Category(t *testing.T) {
	assert.Equal(t, "Good", PM25Category(20))
	assert.Equal(t, "Moderate", PM25Category(40))
	assert.Equal(t, "Poor", PM25Category(80))
}

func TestUVCategory(t *testing.T) {
	assert.Equal(t, "Low", UVCategory(1.5))
	assert.Equal(t, "Moderate", UVCategory(4))
	assert.Equal(t, "High", UVCategory(6.8))
	assert.Equal(t, "Very High", UVCategory(9.2))
	assert.Equal(t, "Extreme", UVCategory(11.5))
}

func TestHeatIndex(t *testing.T) {
	// below the regression threshold the index is the temperature
	assert.Equal(t, 22.5, HeatIndex(22.5, 90))

	hot := HeatIndex(34, 70)
	assert.Greater(t, hot, 34.0)
	assert.Less(t, hot, 55.0)

	// more humidity should feel hotter at the same temperature
	assert.Greater(t, HeatIndex(34, 80), HeatIndex(34, 50))
}

func TestTrendSlope(t *testing.T) {
	assert.Zero(t, TrendSlope(nil))
	assert.Zero(t, TrendSlope([]float64{5}))
	assert.InDelta(t, 1.0, TrendSlope([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.InDelta(t, -0.5, TrendSlope([]float64{4, 3.5, 3, 2.5}), 1e-9)
	assert.InDelta(t, 0, TrendSlope([]float64{3, 3, 3}), 1e-9)
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, "Improving", ClassifyTrend(0.3))
	assert.Equal(t, "Deteriorating", ClassifyTrend(-0.2))
	assert.Equal(t, "Stable", ClassifyTrend(0.05))
	assert.Equal(t, "Stable", ClassifyTrend(-0.1))
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 5.5, Percentile(values, 50), 1e-9)
	assert.InDelta(t, 7.75, Percentile(values, 75), 1e-9)
	assert.InDelta(t, 1.0, Percentile(values, 0), 1e-9)
	assert.InDelta(t, 10.0, Percentile(values, 100), 1e-9)
	assert.Zero(t, Percentile(nil, 50))

	// input order must not matter and the slice must stay untouched
	shuffled := []float64{9, 1, 5, 3, 7}
	assert.InDelta(t, 5.0, Percentile(shuffled, 50), 1e-9)
	assert.Equal(t, []float64{9, 1, 5, 3, 7}, shuffled)
}

func TestHotspots(t *testing.T) {
	samples := []Sample{
		{Latitude: 12.90, Longitude: 77.50, Value: 30},
		{Latitude: 12.91, Longitude: 77.51, Value: 31},
		{Latitude: 12.92, Longitude: 77.52, Value: 32},
		{Latitude: 12.93, Longitude: 77.53, Value: 33},
		{Latitude: 12.94, Longitude: 77.54, Value: 34},
		{Latitude: 12.95, Longitude: 77.55, Value: 35},
		{Latitude: 12.96, Longitude: 77.56, Value: 36},
		{Latitude: 12.97, Longitude: 77.57, Value: 37},
		{Latitude: 12.98, Longitude: 77.58, Value: 42},
		{Latitude: 12.99, Longitude: 77.59, Value: 44},
	}
	spots := Hotspots(samples)
	require.NotEmpty(t, spots)

	// sorted hottest first, hottest flagged High
	assert.Equal(t, 44.0, spots[0].Value)
	assert.Equal(t, "High", spots[0].Severity)

	threshold := Percentile([]float64{30, 31, 32, 33, 34, 35, 36, 37, 42, 44}, 75)
	for _, s := range spots {
		assert.Greater(t, s.Value, threshold)
	}

	assert.Nil(t, Hotspots(nil))
}

func TestHeatVulnerability(t *testing.T) {
	inputs := []VulnerabilityInput{
		{Zone: "Core", Temperature: 36, Population: 50000, GreenCover: 5},
		{Zone: "Park belt", Temperature: 29, Population: 12000, GreenCover: 40},
		{Zone: "Industrial", Temperature: 35, Population: 30000, GreenCover: 8},
	}
	scores := HeatVulnerability(inputs)
	require.Len(t, scores, 3)

	// hottest, densest, least green zone scores highest
	assert.Equal(t, "Core", scores[0].Zone)
	assert.Equal(t, "Park belt", scores[2].Zone)
	assert.InDelta(t, 1.0, scores[0].Score, 1e-6)
	assert.InDelta(t, 0.0, scores[2].Score, 1e-6)
	assert.Equal(t, "High", scores[0].Level)
	assert.Equal(t, "Low", scores[2].Level)

	assert.Nil(t, HeatVulnerability(nil))
}

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		value    float64
		severity Severity
		ok       bool
	}{
		{"normal temperature", "temperature", 31.2, 0, true},
		{"cold snap warns", "temperature", 11.0, SeverityWarn, false},
		{"heat wave warns", "temperature", 51.0, SeverityWarn, false},
		{"valid aqi", "aqi", 180, 0, true},
		{"negative aqi rejected", "aqi", -2, SeverityReject, false},
		{"absurd aqi rejected", "aqi", 612, SeverityReject, false},
		{"valid health score", "health_score", 6.5, 0, true},
		{"health score rejected", "health_score", 11, SeverityReject, false},
		{"water quality rejected", "water_quality", -0.5, SeverityReject, false},
		{"unknown metric passes", "humidity", 300, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			finding := ValidateReading(tc.metric, tc.value)
			if tc.ok {
				assert.Nil(t, finding)
				return
			}
			require.NotNil(t, finding)
			assert.Equal(t, tc.severity, finding.Severity)
			assert.NotEmpty(t, finding.Error())
		})
	}
}
