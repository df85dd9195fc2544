package models

import (
	"github.com/kartoza/citylens/internal/city"
	"github.com/kartoza/citylens/internal/history"
	"github.com/kartoza/citylens/internal/weather"
)

// ChatRequest represents one user message to the assistant
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse contains the assistant's reply for a session
type ChatResponse struct {
	SessionID   string   `json:"session_id"`
	Reply       string   `json:"reply"`
	Source      string   `json:"source"`
	Suggestions []string `json:"suggestions"`
}

// MetricCard is one headline figure on the overview page
type MetricCard struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Delta string  `json:"delta,omitempty"`
	Note  string  `json:"note,omitempty"`
}

// OverviewResponse is the role-tailored overview payload
type OverviewResponse struct {
	Role      string          `json:"role"`
	RoleLabel string          `json:"role_label"`
	Cards     []MetricCard    `json:"cards"`
	Alerts    []city.Alert    `json:"alerts"`
	Locations []city.Location `json:"locations"`
}

// AirSummary combines the current readings with the derived index
type AirSummary struct {
	Current  *weather.AirQuality `json:"current"`
	AQI      int                 `json:"aqi"`
	Category string              `json:"category"`
	Color    string              `json:"color"`
}

// AQIComputation is the result of the PM2.5 to AQI calculator
type AQIComputation struct {
	PM25     float64 `json:"pm25"`
	AQI      int     `json:"aqi"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
}

// HeatIndexResponse is the result of the feels-like calculator
type HeatIndexResponse struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	HeatIndex   float64 `json:"heat_index"`
}

// WaterQualityResponse is the result of the WQI calculator
type WaterQualityResponse struct {
	PollutionSources  int     `json:"pollution_sources"`
	WaterQualityIndex float64 `json:"water_quality_index"`
	Status            string  `json:"status"`
}

// SeriesResponse is a daily metric series with its fitted trend
type SeriesResponse struct {
	Metric  string               `json:"metric"`
	Station string               `json:"station"`
	Days    int                  `json:"days"`
	Values  []history.DailyValue `json:"values"`
	Slope   float64              `json:"slope"`
	Trend   string               `json:"trend"`
}

// ZoneSummary is a development zone with its growth classification
type ZoneSummary struct {
	city.GrowthZone
	Classification string `json:"classification"`
}

// GrowthProjection is the modelled 2030 state of the city
type GrowthProjection struct {
	Year               int     `json:"year"`
	BuiltUpAreaSqKm    float64 `json:"built_up_area_sq_km"`
	GreenCoverSqKm     float64 `json:"green_cover_sq_km"`
	PopulationMillions float64 `json:"population_millions"`
}

// GrowthTrendResponse carries the land-use slopes and the projection
type GrowthTrendResponse struct {
	LandUse         []city.LandUseYear `json:"land_use"`
	BuiltUpSlope    float64            `json:"built_up_slope"`
	GreenCoverSlope float64            `json:"green_cover_slope"`
	PopulationSlope float64            `json:"population_slope"`
	Projection      GrowthProjection   `json:"projection"`
}

// RecommendationsResponse is role-specific guidance for one issue
type RecommendationsResponse struct {
	Role            string `json:"role"`
	RoleLabel       string `json:"role_label"`
	Issue           string `json:"issue"`
	Recommendations string `json:"recommendations"`
	Source          string `json:"source"`
}

// StatusUpdateRequest changes a community report's workflow state
type StatusUpdateRequest struct {
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

// TriageResponse is the routing suggestion for a community report
type TriageResponse struct {
	Reference  string `json:"reference"`
	Department string `json:"department"`
	Priority   string `json:"priority"`
	Rationale  string `json:"rationale"`
	Source     string `json:"source"`
}

// SummaryResponse is a generated text block with its provenance
type SummaryResponse struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// ExplainRequest asks for a plain-language reading explanation
type ExplainRequest struct {
	DataType string  `json:"data_type"`
	Value    float64 `json:"value"`
	Context  string  `json:"context,omitempty"`
}
