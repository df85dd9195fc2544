package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kartoza/citylens/internal/analysis"
	"github.com/kartoza/citylens/internal/assistant"
	"github.com/kartoza/citylens/internal/city"
	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/earthobs"
	"github.com/kartoza/citylens/internal/history"
	"github.com/kartoza/citylens/internal/models"
	"github.com/kartoza/citylens/internal/reports"
	"github.com/kartoza/citylens/internal/simulate"
	"github.com/kartoza/citylens/internal/weather"
)

// Handler provides HTTP API endpoints
type Handler struct {
	cfg       config.Config
	weather   *weather.Client
	obs       *earthobs.Client
	sim       *simulate.Generator
	history   *history.Store
	reports   *reports.Store
	assistant *assistant.Assistant
	logger    *zap.Logger
}

// NewHandler creates a new API handler. The history and report stores
// may be nil; their endpoints then answer 503.
func NewHandler(
	cfg config.Config,
	weatherClient *weather.Client,
	obs *earthobs.Client,
	sim *simulate.Generator,
	historyStore *history.Store,
	reportStore *reports.Store,
	chat *assistant.Assistant,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:       cfg,
		weather:   weatherClient,
		obs:       obs,
		sim:       sim,
		history:   historyStore,
		reports:   reportStore,
		assistant: chat,
		logger:    logger,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Overview
	r.HandleFunc("/overview", h.handleOverview).Methods("GET")
	r.HandleFunc("/stakeholders", h.handleStakeholders).Methods("GET")
	r.HandleFunc("/alerts", h.handleAlerts).Methods("GET")

	// Weather
	r.HandleFunc("/weather/current", h.handleWeatherCurrent).Methods("GET")
	r.HandleFunc("/weather/forecast", h.handleWeatherForecast).Methods("GET")
	r.HandleFunc("/weather/uv", h.handleWeatherUV).Methods("GET")

	// Air quality
	r.HandleFunc("/air/current", h.handleAirCurrent).Methods("GET")
	r.HandleFunc("/air/stations", h.handleAirStations).Methods("GET")
	r.HandleFunc("/air/aqi", h.handleAirAQI).Methods("GET")

	// Heat islands
	r.HandleFunc("/heat/grid", h.handleHeatGrid).Methods("GET")
	r.HandleFunc("/heat/islands", h.handleHeatIslands).Methods("GET")
	r.HandleFunc("/heat/vulnerability", h.handleHeatVulnerability).Methods("GET")
	r.HandleFunc("/heat/index", h.handleHeatIndex).Methods("GET")

	// Water bodies
	r.HandleFunc("/water/lakes", h.handleLakes).Methods("GET")
	r.HandleFunc("/water/lakes/{name}", h.handleLakeByName).Methods("GET")
	r.HandleFunc("/water/quality", h.handleWaterQuality).Methods("GET")
	r.HandleFunc("/water/trend", h.handleWaterTrend).Methods("GET")

	// Urban growth
	r.HandleFunc("/growth/zones", h.handleGrowthZones).Methods("GET")
	r.HandleFunc("/growth/trend", h.handleGrowthTrend).Methods("GET")
	r.HandleFunc("/growth/land-use", h.handleLandUse).Methods("GET")
	r.HandleFunc("/growth/land-cover", h.handleLandCover).Methods("GET")

	// Satellite products
	r.HandleFunc("/satellite/imagery", h.handleSatelliteImagery).Methods("GET")
	r.HandleFunc("/satellite/summary", h.handleSatelliteSummary).Methods("GET")

	// Historical series
	r.HandleFunc("/history/{metric}", h.handleHistory).Methods("GET")

	// Recommendations
	r.HandleFunc("/recommendations", h.handleRecommendations).Methods("GET")

	// Community reports; the analytics route must precede {reference}
	r.HandleFunc("/reports/analytics", h.handleReportAnalytics).Methods("GET")
	r.HandleFunc("/reports", h.handleCreateReport).Methods("POST")
	r.HandleFunc("/reports", h.handleListReports).Methods("GET")
	r.HandleFunc("/reports/{reference}", h.handleGetReport).Methods("GET")
	r.HandleFunc("/reports/{reference}/status", h.handleUpdateReportStatus).Methods("PATCH")
	r.HandleFunc("/reports/{reference}/triage", h.handleTriageReport).Methods("POST")

	// Assistant
	r.HandleFunc("/chat", h.handleChat).Methods("POST")
	r.HandleFunc("/chat/{id}", h.handleChatHistory).Methods("GET")
	r.HandleFunc("/chat/{id}", h.handleDeleteChat).Methods("DELETE")
	r.HandleFunc("/assistant/questions", h.handleAssistantQuestions).Methods("GET")
	r.HandleFunc("/assistant/summary", h.handleAssistantSummary).Methods("GET")
	r.HandleFunc("/assistant/explain", h.handleAssistantExplain).Methods("POST")
	r.HandleFunc("/assistant/trends", h.handleAssistantTrends).Methods("POST")
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
	}
}

// respondError sends a JSON error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"version":        h.cfg.Version,
		"city":           h.cfg.City.Name,
		"provider":       h.assistant.ProviderName(),
		"history_loaded": h.history != nil,
		"reports_loaded": h.reports != nil,
	}
	h.respondJSON(w, http.StatusOK, info)
}

func (h *Handler) handleStakeholders(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, city.Stakeholders())
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, city.ActiveAlerts())
}

// roleCardOrder decides which metric leads the overview for each role
var roleCardOrder = map[string][]string{
	"citizens":    {"aqi", "temperature", "lakes", "green"},
	"bbmp":        {"temperature", "green", "aqi", "lakes"},
	"bwssb":       {"lakes", "aqi", "temperature", "green"},
	"bescom":      {"temperature", "aqi", "green", "lakes"},
	"parks":       {"green", "temperature", "aqi", "lakes"},
	"researchers": {"temperature", "aqi", "lakes", "green"},
}

// handleOverview assembles the role-tailored landing page payload
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	role := city.StakeholderByID(r.URL.Query().Get("role"))

	var cur *weather.Current
	var air *weather.AirQuality
	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		cur = h.weather.CurrentOrSimulated(ctx)
		return nil
	})
	eg.Go(func() error {
		air = h.weather.AirQualityOrSimulated(ctx)
		return nil
	})
	if err := eg.Wait(); err != nil {
		h.logger.Warn("overview gathering incomplete", zap.Error(err))
	}

	aqi := analysis.AQIFromPM25(air.PM25)
	cards := map[string]models.MetricCard{
		"temperature": {
			Key:   "temperature",
			Label: "Temperature",
			Value: round1(cur.Temperature),
			Unit:  "°C",
			Delta: h.temperatureDelta(cur.Temperature),
			Note:  cur.Description,
		},
		"aqi": {
			Key:   "aqi",
			Label: "Air Quality Index",
			Value: float64(aqi),
			Unit:  "AQI",
			Note:  analysis.AQICategory(aqi),
		},
		"lakes": {
			Key:   "lakes",
			Label: "Avg Lake Health",
			Value: round1(city.AverageLakeHealth()),
			Unit:  "/10",
			Note:  fmt.Sprintf("%d lakes monitored", len(city.Lakes())),
		},
		"green": greenCoverCard(),
	}

	order := roleCardOrder[role.ID]
	ordered := make([]models.MetricCard, 0, len(order))
	for _, key := range order {
		ordered = append(ordered, cards[key])
	}

	h.respondJSON(w, http.StatusOK, models.OverviewResponse{
		Role:      role.ID,
		RoleLabel: role.DisplayName,
		Cards:     ordered,
		Alerts:    city.ActiveAlerts(),
		Locations: city.SampleLocations(),
	})
}

// temperatureDelta compares the live reading against yesterday's
// stored average; empty when no history is available
func (h *Handler) temperatureDelta(current float64) string {
	if h.history == nil {
		return ""
	}
	values, err := h.history.DailyAverages("temperature", history.CityStation, 2)
	if err != nil || len(values) == 0 {
		return ""
	}
	return fmt.Sprintf("%+.1f°C vs yesterday", current-values[0].Value)
}

func greenCoverCard() models.MetricCard {
	trend := city.LandUseTrend()
	last := trend[len(trend)-1]
	card := models.MetricCard{
		Key:   "green",
		Label: "Green Cover",
		Value: last.GreenCoverSqKm,
		Unit:  "sq km",
		Note:  fmt.Sprintf("as of %d", last.Year),
	}
	if len(trend) > 1 {
		prev := trend[len(trend)-2]
		card.Delta = fmt.Sprintf("%+.0f sq km vs %d", last.GreenCoverSqKm-prev.GreenCoverSqKm, prev.Year)
	}
	return card
}

func (h *Handler) handleWeatherCurrent(w http.ResponseWriter, r *http.Request) {
	cur := h.weather.CurrentOrSimulated(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]any{
		"current":    cur,
		"heat_index": analysis.HeatIndex(cur.Temperature, cur.Humidity),
	})
}

func (h *Handler) handleWeatherForecast(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "days must be a number")
		return
	}
	if days < 1 || days > 16 {
		h.respondError(w, http.StatusBadRequest, "days must be between 1 and 16")
		return
	}

	forecast, err := h.weather.ForecastDays(r.Context(), days)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, forecast)
}

func (h *Handler) handleWeatherUV(w http.ResponseWriter, r *http.Request) {
	report, err := h.weather.UVIndex(r.Context())
	if err != nil {
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAirCurrent(w http.ResponseWriter, r *http.Request) {
	air := h.weather.AirQualityOrSimulated(r.Context())
	aqi := analysis.AQIFromPM25(air.PM25)
	h.respondJSON(w, http.StatusOK, models.AirSummary{
		Current:  air,
		AQI:      aqi,
		Category: analysis.AQICategory(aqi),
		Color:    analysis.AQIColor(aqi),
	})
}

func (h *Handler) handleAirStations(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, city.Stations())
}

func (h *Handler) handleAirAQI(w http.ResponseWriter, r *http.Request) {
	pm25, err := queryFloat(r, "pm25")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "pm25 query parameter is required")
		return
	}
	aqi := analysis.AQIFromPM25(pm25)
	h.respondJSON(w, http.StatusOK, models.AQIComputation{
		PM25:     pm25,
		AQI:      aqi,
		Category: analysis.AQICategory(aqi),
		Color:    analysis.AQIColor(aqi),
	})
}

func (h *Handler) handleHeatGrid(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.sim.TemperatureGrid())
}

func (h *Handler) handleHeatIslands(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.obs.UrbanHeatAnalysis())
}

func (h *Handler) handleHeatVulnerability(w http.ResponseWriter, r *http.Request) {
	wards := city.Wards()
	inputs := make([]analysis.VulnerabilityInput, len(wards))
	for i, ward := range wards {
		inputs[i] = analysis.VulnerabilityInput{
			Zone:        ward.Name,
			Temperature: ward.Temperature,
			Population:  ward.PopulationDensity,
			GreenCover:  ward.GreenCoverPct,
		}
	}
	h.respondJSON(w, http.StatusOK, analysis.HeatVulnerability(inputs))
}

func (h *Handler) handleHeatIndex(w http.ResponseWriter, r *http.Request) {
	temperature, err := queryFloat(r, "temperature")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "temperature query parameter is required")
		return
	}
	humidity, err := queryFloat(r, "humidity")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "humidity query parameter is required")
		return
	}
	h.respondJSON(w, http.StatusOK, models.HeatIndexResponse{
		Temperature: temperature,
		Humidity:    humidity,
		HeatIndex:   analysis.HeatIndex(temperature, humidity),
	})
}

// lakeDetail pairs a lake's fixture record with its satellite assessment
type lakeDetail struct {
	city.Lake
	Analysis earthobs.WaterBodyReport `json:"analysis"`
}

func (h *Handler) handleLakes(w http.ResponseWriter, r *http.Request) {
	lakes := city.Lakes()
	assessments := h.obs.WaterBodyAnalysis(lakes)
	details := make([]lakeDetail, len(lakes))
	for i, lake := range lakes {
		details[i] = lakeDetail{Lake: lake, Analysis: assessments[i]}
	}
	h.respondJSON(w, http.StatusOK, details)
}

func (h *Handler) handleLakeByName(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	lake, ok := findLake(name)
	if !ok {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown lake %q", name))
		return
	}
	assessment := h.obs.WaterBodyAnalysis([]city.Lake{lake})[0]
	h.respondJSON(w, http.StatusOK, lakeDetail{Lake: lake, Analysis: assessment})
}

// findLake matches an exact name, a case-insensitive name, or the first
// word of a lake's name ("bellandur" finds Bellandur Lake)
func findLake(name string) (city.Lake, bool) {
	if lake, ok := city.LakeByName(name); ok {
		return lake, true
	}
	needle := strings.ToLower(name)
	for _, lake := range city.Lakes() {
		if strings.EqualFold(lake.Name, name) || strings.ToLower(strings.Fields(lake.Name)[0]) == needle {
			return lake, true
		}
	}
	return city.Lake{}, false
}

func (h *Handler) handleWaterQuality(w http.ResponseWriter, r *http.Request) {
	sources, err := queryInt(r, "sources", -1)
	if err != nil || sources < 0 {
		h.respondError(w, http.StatusBadRequest, "sources query parameter is required")
		return
	}
	wqi := earthobs.QualityIndexFromSources(sources)
	h.respondJSON(w, http.StatusOK, models.WaterQualityResponse{
		PollutionSources:  sources,
		WaterQualityIndex: wqi,
		Status:            waterStatus(wqi),
	})
}

func waterStatus(wqi float64) string {
	switch {
	case wqi >= 70:
		return "Good"
	case wqi >= 40:
		return "Moderate"
	default:
		return "Poor"
	}
}

func (h *Handler) handleWaterTrend(w http.ResponseWriter, r *http.Request) {
	h.respondSeries(w, r, "water_quality", 90)
}

func (h *Handler) handleGrowthZones(w http.ResponseWriter, r *http.Request) {
	zones := city.Zones()
	summaries := make([]models.ZoneSummary, len(zones))
	for i, zone := range zones {
		summaries[i] = models.ZoneSummary{GrowthZone: zone, Classification: zone.Classification()}
	}
	h.respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGrowthTrend(w http.ResponseWriter, r *http.Request) {
	trend := city.LandUseTrend()
	builtUp := make([]float64, len(trend))
	green := make([]float64, len(trend))
	population := make([]float64, len(trend))
	for i, year := range trend {
		builtUp[i] = year.BuiltUpAreaSqKm
		green[i] = year.GreenCoverSqKm
		population[i] = year.PopulationMillions
	}

	h.respondJSON(w, http.StatusOK, models.GrowthTrendResponse{
		LandUse:         trend,
		BuiltUpSlope:    analysis.TrendSlope(builtUp),
		GreenCoverSlope: analysis.TrendSlope(green),
		PopulationSlope: analysis.TrendSlope(population),
		Projection: models.GrowthProjection{
			Year:               2030,
			BuiltUpAreaSqKm:    1095,
			GreenCoverSqKm:     135,
			PopulationMillions: 18.2,
		},
	})
}

func (h *Handler) handleLandUse(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, city.LandUseTrend())
}

func (h *Handler) handleLandCover(w http.ResponseWriter, r *http.Request) {
	trend := city.LandUseTrend()
	years := make([]int, len(trend))
	for i, y := range trend {
		years[i] = y.Year
	}
	h.respondJSON(w, http.StatusOK, h.obs.LandCoverChangeFor(years))
}

func (h *Handler) handleSatelliteImagery(w http.ResponseWriter, r *http.Request) {
	lat, lon := city.Center()
	imagery, err := h.obs.ImageryFor(r.Context(), lat, lon, r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, imagery)
}

func (h *Handler) handleSatelliteSummary(w http.ResponseWriter, r *http.Request) {
	lat, lon := city.Center()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"surface_temperature": h.obs.SurfaceTemperatureFor(lat, lon),
		"vegetation":          h.obs.VegetationFor(lat, lon),
		"air_columns":         h.obs.AirColumnsFor(lat, lon),
	})
}

var historyMetrics = []string{"temperature", "aqi", "water_quality", "green_cover"}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	metric := mux.Vars(r)["metric"]
	valid := false
	for _, m := range historyMetrics {
		if metric == m {
			valid = true
			break
		}
	}
	if !valid {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown metric %q", metric))
		return
	}

	days, err := queryInt(r, "days", 30)
	if err != nil || days < 1 || days > 365 {
		h.respondError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}
	h.respondSeries(w, r, metric, days)
}

func (h *Handler) respondSeries(w http.ResponseWriter, r *http.Request, metric string, days int) {
	if h.history == nil {
		h.respondError(w, http.StatusServiceUnavailable, "history store unavailable")
		return
	}
	station := r.URL.Query().Get("station")
	if station == "" {
		station = history.CityStation
	}

	values, err := h.history.DailyAverages(metric, station, days)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	series := make([]float64, len(values))
	for i, v := range values {
		series[i] = v.Value
	}
	slope := analysis.TrendSlope(series)

	h.respondJSON(w, http.StatusOK, models.SeriesResponse{
		Metric:  metric,
		Station: station,
		Days:    days,
		Values:  values,
		Slope:   slope,
		Trend:   analysis.ClassifyTrend(slope),
	})
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	roleID := r.URL.Query().Get("role")
	issue := r.URL.Query().Get("issue")
	if issue == "" {
		issue = "heat"
	}

	var data any
	switch issue {
	case "heat", "air":
		data = h.obs.UrbanHeatAnalysis()
	case "water":
		data = h.obs.WaterBodyAnalysis(city.Lakes())
	case "urban":
		data = city.Zones()
	}

	text, source, err := h.assistant.Recommendations(r.Context(), roleID, issue, data)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	role := city.StakeholderByID(roleID)
	h.respondJSON(w, http.StatusOK, models.RecommendationsResponse{
		Role:            role.ID,
		RoleLabel:       role.DisplayName,
		Issue:           issue,
		Recommendations: text,
		Source:          source,
	})
}

func (h *Handler) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	var sub reports.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	report, err := h.reports.Create(sub)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	q := r.URL.Query()
	filter := reports.Filter{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		filter.Since = t
	}

	list, err := h.reports.List(filter)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	reference := mux.Vars(r)["reference"]
	report, err := h.reports.Get(reference)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown report %q", reference))
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reference := mux.Vars(r)["reference"]
	report, err := h.reports.UpdateStatus(reference, req.Status, req.AssignedTo)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if report == nil {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown report %q", reference))
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleReportAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	analytics, err := h.reports.Analytics()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, analytics)
}

// handleTriageReport suggests a department for a report and records the
// assignment without changing the workflow status
func (h *Handler) handleTriageReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	reference := mux.Vars(r)["reference"]
	report, err := h.reports.Get(reference)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown report %q", reference))
		return
	}

	triage, source := h.assistant.TriageFor(r.Context(), report.Type, report.Severity, report.Location, report.Description)
	if _, err := h.reports.UpdateStatus(reference, report.Status, triage.Department); err != nil {
		h.logger.Warn("recording triage assignment failed",
			zap.String("reference", reference),
			zap.Error(err))
	}

	h.respondJSON(w, http.StatusOK, models.TriageResponse{
		Reference:  reference,
		Department: triage.Department,
		Priority:   triage.Priority,
		Rationale:  triage.Rationale,
		Source:     source,
	})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.assistant.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, models.ChatResponse{
		SessionID:   result.SessionID,
		Reply:       result.Reply,
		Source:      result.Source,
		Suggestions: result.Suggestions,
	})
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	messages := h.assistant.Sessions().History(id)
	if messages == nil {
		h.respondError(w, http.StatusNotFound, "unknown session")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   messages,
	})
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.assistant.Sessions().Delete(id) {
		h.respondError(w, http.StatusNotFound, "unknown session")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) handleAssistantQuestions(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, assistant.SampleQuestions)
}

func (h *Handler) handleAssistantSummary(w http.ResponseWriter, r *http.Request) {
	text, source := h.assistant.DailySummary(r.Context())
	h.respondJSON(w, http.StatusOK, models.SummaryResponse{Text: text, Source: source})
}

func (h *Handler) handleAssistantExplain(w http.ResponseWriter, r *http.Request) {
	var req models.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DataType == "" {
		h.respondError(w, http.StatusBadRequest, "data_type is required")
		return
	}
	text, source := h.assistant.ExplainMetric(r.Context(), req.DataType, req.Value, req.Context)
	h.respondJSON(w, http.StatusOK, models.SummaryResponse{Text: text, Source: source})
}

func (h *Handler) handleAssistantTrends(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text, source := h.assistant.TrendAnalysis(r.Context(), data)
	h.respondJSON(w, http.StatusOK, models.SummaryResponse{Text: text, Source: source})
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	return strconv.ParseFloat(raw, 64)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
