// Package weather is the Open-Meteo feed client. Every fetch goes
// through the shared retry policy; the current-condition lookups fall
// back to simulated readings so the dashboard keeps rendering when the
// feed is down. The Source field on each reading records which path
// produced it.
package weather

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/analysis"
	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/fetch"
	"github.com/kartoza/citylens/internal/simulate"
)

// Reading sources
const (
	SourceLive      = "open-meteo"
	SourceSimulated = "simulated"
)

// Current is a current-weather snapshot
type Current struct {
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	Apparent      float64 `json:"apparent_temperature"`
	WeatherCode   int     `json:"weather_code"`
	Description   string  `json:"description"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindDirection float64 `json:"wind_direction_10m"`
	Timestamp     string  `json:"timestamp"`
	Source        string  `json:"source"`
}

// AirQuality is a current pollutant snapshot
type AirQuality struct {
	PM10            float64 `json:"pm10"`
	PM25            float64 `json:"pm2_5"`
	CarbonMonoxide  float64 `json:"carbon_monoxide"`
	NitrogenDioxide float64 `json:"nitrogen_dioxide"`
	SulphurDioxide  float64 `json:"sulphur_dioxide"`
	Ozone           float64 `json:"ozone"`
	Timestamp       string  `json:"timestamp"`
	Source          string  `json:"source"`
}

// Daily holds the parallel arrays of a daily forecast
type Daily struct {
	Dates         []string  `json:"time"`
	TempMax       []float64 `json:"temperature_2m_max"`
	TempMin       []float64 `json:"temperature_2m_min"`
	Precipitation []float64 `json:"precipitation_sum"`
	WindMax       []float64 `json:"wind_speed_10m_max"`
	WeatherCodes  []int     `json:"weather_code"`
}

// Forecast is a multi-day outlook
type Forecast struct {
	Daily  Daily  `json:"daily_forecast"`
	Days   int    `json:"forecast_days"`
	Source string `json:"source"`
}

// UVReport is today's peak UV index with its exposure band
type UVReport struct {
	Index     float64   `json:"uv_index"`
	RiskLevel string    `json:"risk_level"`
	Timestamp time.Time `json:"timestamp"`
}

// Client fetches conditions for the configured city
type Client struct {
	baseURL    string
	airBaseURL string
	lat        float64
	lon        float64
	timezone   string
	fetcher    *fetch.Client
	sim        *simulate.Generator
	logger     *zap.Logger
}

// NewClient builds a feed client for the configured city. sim supplies
// the fallback readings and must not be nil.
func NewClient(cfg *config.Config, fetcher *fetch.Client, sim *simulate.Generator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.Feed.BaseURL, "/"),
		airBaseURL: strings.TrimSuffix(cfg.Feed.AirBaseURL, "/"),
		lat:        cfg.City.Latitude,
		lon:        cfg.City.Longitude,
		timezone:   cfg.City.Timezone,
		fetcher:    fetcher,
		sim:        sim,
		logger:     logger,
	}
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.lon, 'f', -1, 64))
	params.Set("timezone", c.timezone)
	return params
}

// Current fetches the live current-weather snapshot
func (c *Client) Current(ctx context.Context) (*Current, error) {
	params := c.baseParams()
	params.Set("current", strings.Join([]string{
		"temperature_2m",
		"relative_humidity_2m",
		"apparent_temperature",
		"weather_code",
		"wind_speed_10m",
		"wind_direction_10m",
	}, ","))

	var envelope struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Apparent      float64 `json:"apparent_temperature"`
			WeatherCode   int     `json:"weather_code"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
		} `json:"current"`
	}
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/forecast", params, &envelope); err != nil {
		return nil, err
	}

	cur := envelope.Current
	return &Current{
		Temperature:   cur.Temperature,
		Humidity:      cur.Humidity,
		Apparent:      cur.Apparent,
		WeatherCode:   cur.WeatherCode,
		Description:   Describe(cur.WeatherCode),
		WindSpeed:     cur.WindSpeed,
		WindDirection: cur.WindDirection,
		Timestamp:     cur.Time,
		Source:        SourceLive,
	}, nil
}

// CurrentOrSimulated returns the live snapshot, or a simulated one when
// the feed fails
func (c *Client) CurrentOrSimulated(ctx context.Context) *Current {
	cur, err := c.Current(ctx)
	if err != nil {
		c.logger.Warn("weather feed unavailable, serving simulated reading", zap.Error(err))
		return c.simulatedCurrent()
	}
	return cur
}

func (c *Client) simulatedCurrent() *Current {
	cond := c.sim.CurrentConditions()
	return &Current{
		Temperature:   cond.Temperature,
		Humidity:      cond.Humidity,
		Apparent:      cond.Apparent,
		WeatherCode:   cond.WeatherCode,
		Description:   Describe(cond.WeatherCode),
		WindSpeed:     cond.WindSpeed,
		WindDirection: cond.WindDirection,
		Timestamp:     time.Now().Format(time.RFC3339),
		Source:        SourceSimulated,
	}
}

// AirQuality fetches the live pollutant snapshot
func (c *Client) AirQuality(ctx context.Context) (*AirQuality, error) {
	params := c.baseParams()
	params.Set("current", "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone")

	var envelope struct {
		Current struct {
			Time            string  `json:"time"`
			PM10            float64 `json:"pm10"`
			PM25            float64 `json:"pm2_5"`
			CarbonMonoxide  float64 `json:"carbon_monoxide"`
			NitrogenDioxide float64 `json:"nitrogen_dioxide"`
			SulphurDioxide  float64 `json:"sulphur_dioxide"`
			Ozone           float64 `json:"ozone"`
		} `json:"current"`
	}
	if err := c.fetcher.GetJSON(ctx, c.airBaseURL+"/air-quality", params, &envelope); err != nil {
		return nil, err
	}

	cur := envelope.Current
	return &AirQuality{
		PM10:            cur.PM10,
		PM25:            cur.PM25,
		CarbonMonoxide:  cur.CarbonMonoxide,
		NitrogenDioxide: cur.NitrogenDioxide,
		SulphurDioxide:  cur.SulphurDioxide,
		Ozone:           cur.Ozone,
		Timestamp:       cur.Time,
		Source:          SourceLive,
	}, nil
}

// AirQualityOrSimulated returns the live pollutant snapshot, or a
// simulated one when the feed fails
func (c *Client) AirQualityOrSimulated(ctx context.Context) *AirQuality {
	aq, err := c.AirQuality(ctx)
	if err != nil {
		c.logger.Warn("air quality feed unavailable, serving simulated reading", zap.Error(err))
		return c.simulatedAirQuality()
	}
	return aq
}

func (c *Client) simulatedAirQuality() *AirQuality {
	p := c.sim.CurrentPollutants()
	return &AirQuality{
		PM10:            p.PM10,
		PM25:            p.PM25,
		CarbonMonoxide:  p.CO,
		NitrogenDioxide: p.NO2,
		SulphurDioxide:  p.SO2,
		Ozone:           p.O3,
		Timestamp:       time.Now().Format(time.RFC3339),
		Source:          SourceSimulated,
	}
}

// ForecastDays fetches a daily forecast for the next days
func (c *Client) ForecastDays(ctx context.Context, days int) (*Forecast, error) {
	if days <= 0 {
		days = 7
	}
	params := c.baseParams()
	params.Set("daily", strings.Join([]string{
		"temperature_2m_max",
		"temperature_2m_min",
		"precipitation_sum",
		"wind_speed_10m_max",
		"weather_code",
	}, ","))
	params.Set("forecast_days", strconv.Itoa(days))

	var envelope struct {
		Daily Daily `json:"daily"`
	}
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/forecast", params, &envelope); err != nil {
		return nil, err
	}
	return &Forecast{Daily: envelope.Daily, Days: days, Source: SourceLive}, nil
}

// HistoricalRange fetches daily aggregates between two dates (inclusive,
// formatted 2006-01-02)
func (c *Client) HistoricalRange(ctx context.Context, startDate, endDate string) (*Daily, error) {
	params := c.baseParams()
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set("daily", strings.Join([]string{
		"temperature_2m_max",
		"temperature_2m_min",
		"precipitation_sum",
	}, ","))

	var envelope struct {
		Daily Daily `json:"daily"`
	}
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/historical-weather", params, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Daily, nil
}

// UVIndex fetches today's peak UV index
func (c *Client) UVIndex(ctx context.Context) (*UVReport, error) {
	params := c.baseParams()
	params.Set("daily", "uv_index_max")
	params.Set("forecast_days", "1")

	var envelope struct {
		Daily struct {
			UVIndexMax []float64 `json:"uv_index_max"`
		} `json:"daily"`
	}
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/forecast", params, &envelope); err != nil {
		return nil, err
	}

	var uv float64
	if len(envelope.Daily.UVIndexMax) > 0 {
		uv = envelope.Daily.UVIndexMax[0]
	}
	return &UVReport{Index: uv, RiskLevel: analysis.UVCategory(uv), Timestamp: time.Now()}, nil
}

// wmoDescriptions maps the WMO weather interpretation codes Open-Meteo
// reports to display text
var wmoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns the display text for a WMO weather code
func Describe(code int) string {
	if desc, ok := wmoDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}
