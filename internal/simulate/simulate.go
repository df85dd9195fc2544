// Package simulate generates the synthetic readings the dashboard uses
// wherever a live feed is unavailable: the heat grid, historical series
// and current-condition fallbacks.
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/kartoza/citylens/internal/city"
)

// GridPoint is one simulated temperature sample on the city grid
type GridPoint struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	AreaType    string  `json:"area_type"`
	Temperature float64 `json:"temperature"`
}

// DailyRecord is one day of the synthetic historical series
type DailyRecord struct {
	Date         time.Time `json:"date"`
	Temperature  float64   `json:"temperature"`
	AQI          float64   `json:"aqi"`
	WaterQuality float64   `json:"water_quality"`
	GreenCover   float64   `json:"green_cover"`
}

// Conditions is a simulated current-weather snapshot used as feed fallback
type Conditions struct {
	Temperature   float64
	Humidity      float64
	Apparent      float64
	WindSpeed     float64
	WindDirection float64
	WeatherCode   int
}

// Pollutants is a simulated current air-quality snapshot
type Pollutants struct {
	PM25 float64
	PM10 float64
	CO   float64
	NO2  float64
	SO2  float64
	O3   float64
}

type areaProfile struct {
	name                  string
	latMin, latMax        float64
	lonMin, lonMax        float64
	offsetMean, offsetStd float64
}

// Area profiles follow the city's rough land-use geography; offsets are
// relative to the 32 degree urban baseline.
var areaProfiles = []areaProfile{
	{"urban_core", 12.95, 13.00, 77.55, 77.65, 3.5, 1.0},
	{"residential", 12.90, 12.95, 77.60, 77.70, 1.5, 0.8},
	{"industrial", 12.85, 12.95, 77.65, 77.75, 4.0, 1.2},
	{"green", 12.95, 13.05, 77.50, 77.60, -1.5, 0.5},
	{"suburban", 12.80, 12.90, 77.45, 77.55, 0.0, 1.0},
}

const (
	baseTemperature = 32.0
	minGridTemp     = 25.0
	maxGridTemp     = 45.0
	pointsPerArea   = 20
)

// Generator produces simulated readings from a seeded source
type Generator struct {
	rng *rand.Rand
}

// New creates a generator with the given seed; equal seeds give equal output
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a time-seeded generator
func NewDefault() *Generator {
	return New(time.Now().UnixNano())
}

// TemperatureGrid samples grid points for every area type with
// area-specific temperature offsets, clamped to a plausible band
func (g *Generator) TemperatureGrid() []GridPoint {
	points := make([]GridPoint, 0, len(areaProfiles)*pointsPerArea)
	for _, area := range areaProfiles {
		for i := 0; i < pointsPerArea; i++ {
			lat := area.latMin + g.rng.Float64()*(area.latMax-area.latMin)
			lon := area.lonMin + g.rng.Float64()*(area.lonMax-area.lonMin)
			temp := baseTemperature + g.rng.NormFloat64()*area.offsetStd + area.offsetMean
			points = append(points, GridPoint{
				Latitude:    lat,
				Longitude:   lon,
				AreaType:    area.name,
				Temperature: clamp(temp, minGridTemp, maxGridTemp),
			})
		}
	}
	return points
}

// HistoricalSeries generates a daily environmental series ending today.
// Temperature and AQI follow opposed seasonal cycles, water quality dips
// through the monsoon window and green cover declines slowly.
func (g *Generator) HistoricalSeries(days int) []DailyRecord {
	if days <= 0 {
		return nil
	}
	records := make([]DailyRecord, days)
	start := time.Now().AddDate(0, 0, -(days - 1))
	for d := 0; d < days; d++ {
		phase := 2 * math.Pi * float64(d) / 365

		temp := 30 + 5*math.Sin(phase) + g.rng.NormFloat64()*2

		aqi := 120 + 40*math.Sin(phase+math.Pi) + g.rng.NormFloat64()*20
		aqi = clamp(aqi, 50, 300)

		water := 6 + monsoonEffect(d) + g.rng.NormFloat64()*0.5
		water = clamp(water, 2, 10)

		green := 20 - 0.01*float64(d) + g.rng.NormFloat64()*0.1

		records[d] = DailyRecord{
			Date:         start.AddDate(0, 0, d),
			Temperature:  temp,
			AQI:          aqi,
			WaterQuality: water,
			GreenCover:   green,
		}
	}
	return records
}

// monsoonEffect lowers water quality during the monsoon day window
func monsoonEffect(day int) float64 {
	yearDay := day % 365
	if yearDay > 150 && yearDay < 250 {
		return -1
	}
	return 0
}

// CurrentConditions returns a plausible weather snapshot around the
// urban baseline, used when the live feed is down
func (g *Generator) CurrentConditions() Conditions {
	return Conditions{
		Temperature:   baseTemperature + g.rng.NormFloat64()*1.5,
		Humidity:      40 + g.rng.Float64()*40,
		Apparent:      baseTemperature + 2 + g.rng.NormFloat64()*1.5,
		WindSpeed:     5 + g.rng.Float64()*15,
		WindDirection: g.rng.Float64() * 360,
		WeatherCode:   2,
	}
}

// CurrentPollutants returns a pollutant snapshot centered on the mean of
// the station table with modest noise
func (g *Generator) CurrentPollutants() Pollutants {
	var pm25, pm10, no2 float64
	stations := city.Stations()
	for _, s := range stations {
		pm25 += s.PM25
		pm10 += s.PM10
		no2 += s.NO2
	}
	n := float64(len(stations))
	pm25 /= n
	pm10 /= n
	no2 /= n

	jitter := func(v float64) float64 {
		return math.Max(0, v+g.rng.NormFloat64()*v*0.1)
	}
	return Pollutants{
		PM25: jitter(pm25),
		PM10: jitter(pm10),
		CO:   jitter(450),
		NO2:  jitter(no2),
		SO2:  jitter(18),
		O3:   jitter(55),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
