// Package assistant implements Terrabot, the dashboard's climate chat
// assistant. Questions are routed by keyword to the relevant data
// sources, the gathered context is handed to the configured AI provider
// and replies are enhanced with the underlying readings. Without a
// provider (or when it fails) the assistant answers from dashboard data
// alone.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kartoza/citylens/internal/analysis"
	"github.com/kartoza/citylens/internal/city"
	"github.com/kartoza/citylens/internal/earthobs"
	"github.com/kartoza/citylens/internal/weather"
)

// Responder generates assistant replies through an AI provider
type Responder interface {
	Name() string
	Respond(ctx context.Context, system string, history []Message, question string) (string, error)
	Generate(ctx context.Context, prompt string, precise bool) (string, error)
}

const systemPrompt = `You are Terrabot, an AI climate assistant for Bengaluru's climate resilience dashboard.
You have access to real-time NASA Earth observation data, weather information, and air quality data.

Your role is to:
1. Answer questions about climate conditions in Bengaluru
2. Provide insights about air quality, temperature, water bodies, and urban heat islands
3. Give actionable advice for citizens and policymakers
4. Explain complex climate data in simple terms
5. Suggest climate adaptation and mitigation strategies

Always be helpful, accurate, and focused on Bengaluru's climate challenges.
Use the provided context data to give specific, real-time answers when possible.`

var (
	weatherWords = []string{"weather", "temperature", "hot", "cold", "humid"}
	airWords     = []string{"air", "quality", "pollution", "pm2.5", "pm10"}
	heatWords    = []string{"heat", "island", "hotspot", "cooling"}
	lakeWords    = []string{"lake", "water", "bellandur", "ulsoor", "sankey"}
)

// RecommendationIssues are the topics Recommendations accepts
var RecommendationIssues = []string{"heat", "air", "water", "urban"}

// SampleQuestions are shown to users as conversation starters
var SampleQuestions = []string{
	"What's the current air quality in Whitefield?",
	"Which areas have the worst heat islands in Bengaluru?",
	"How is the health of Bellandur Lake?",
	"What's the weather forecast for tomorrow?",
	"Which parts of the city are best for outdoor activities today?",
	"How much green cover has Bengaluru lost in recent years?",
	"What are the main pollution sources affecting our lakes?",
	"Which areas should avoid outdoor activities due to air quality?",
}

// ChatResult is the outcome of one chat turn
type ChatResult struct {
	SessionID   string   `json:"session_id"`
	Reply       string   `json:"reply"`
	Source      string   `json:"source"`
	Suggestions []string `json:"suggestions"`
}

// Assistant wires the chat flow together
type Assistant struct {
	weather   *weather.Client
	obs       *earthobs.Client
	sessions  *SessionStore
	responder Responder
	logger    *zap.Logger
}

// New builds the assistant. responder may be nil, in which case every
// reply comes from dashboard data.
func New(weatherClient *weather.Client, obs *earthobs.Client, sessions *SessionStore, responder Responder, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		weather:   weatherClient,
		obs:       obs,
		sessions:  sessions,
		responder: responder,
		logger:    logger,
	}
}

// Sessions exposes the session store for sweeping and stats
func (a *Assistant) Sessions() *SessionStore { return a.sessions }

// ProviderName reports the active provider, "canned" when none
func (a *Assistant) ProviderName() string {
	if a.responder == nil {
		return "canned"
	}
	return a.responder.Name()
}

// Chat answers one user question within a session. An empty sessionID
// starts a new session; the returned result carries the id to reuse.
func (a *Assistant) Chat(ctx context.Context, sessionID, question string) (*ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	id, history := a.sessions.Open(sessionID)
	data := a.gatherContext(ctx, question)

	reply, source := a.reply(ctx, history, question, data)
	reply += enhancement(question, data)

	a.sessions.Append(id,
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: reply},
	)

	return &ChatResult{
		SessionID:   id,
		Reply:       reply,
		Source:      source,
		Suggestions: suggestionsFor(question),
	}, nil
}

func (a *Assistant) reply(ctx context.Context, history []Message, question string, data contextData) (string, string) {
	if a.responder == nil {
		return cannedReply(data), "canned"
	}

	wrapped := fmt.Sprintf("Context Data: %s\n\nUser Query: %s\n\n"+
		"Please provide a helpful response based on the available data and your knowledge about Bengaluru's climate.",
		prepareContext(data), question)

	text, err := a.responder.Respond(ctx, systemPrompt, history, wrapped)
	if err != nil {
		a.logger.Warn("assistant provider failed, answering from dashboard data",
			zap.String("provider", a.responder.Name()),
			zap.Error(err))
		return cannedReply(data), "fallback"
	}
	return text, a.responder.Name()
}

type contextData struct {
	Weather *weather.Current
	Air     *weather.AirQuality
	Heat    *earthobs.UrbanHeat
	Lakes   []earthobs.WaterBodyReport
}

// gatherContext fetches the data sources the question touches. The two
// feed lookups run concurrently; both degrade to simulated readings on
// their own.
func (a *Assistant) gatherContext(ctx context.Context, question string) contextData {
	q := strings.ToLower(question)
	var data contextData

	eg, egCtx := errgroup.WithContext(ctx)
	if matchesAny(q, weatherWords) {
		eg.Go(func() error {
			data.Weather = a.weather.CurrentOrSimulated(egCtx)
			return nil
		})
	}
	if matchesAny(q, airWords) {
		eg.Go(func() error {
			data.Air = a.weather.AirQualityOrSimulated(egCtx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		a.logger.Warn("context gathering incomplete", zap.Error(err))
	}

	if matchesAny(q, heatWords) {
		data.Heat = a.obs.UrbanHeatAnalysis()
	}
	if matchesAny(q, lakeWords) {
		data.Lakes = a.obs.WaterBodyAnalysis(city.Lakes())
	}
	return data
}

func matchesAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func validIssue(issue string) bool {
	for _, v := range RecommendationIssues {
		if issue == v {
			return true
		}
	}
	return false
}

// prepareContext flattens the gathered data into the context line the
// provider receives
func prepareContext(data contextData) string {
	var parts []string
	if data.Weather != nil {
		parts = append(parts, fmt.Sprintf("Current weather: %.1f°C, %.0f%% humidity",
			data.Weather.Temperature, data.Weather.Humidity))
	}
	if data.Air != nil {
		parts = append(parts, fmt.Sprintf("Air quality: PM2.5 %.1f μg/m³, PM10 %.1f μg/m³",
			data.Air.PM25, data.Air.PM10))
	}
	if data.Heat != nil {
		parts = append(parts, fmt.Sprintf("Heat island intensity: %.1f°C above rural areas",
			data.Heat.HeatIslandIntensity))
	}
	if len(data.Lakes) > 0 {
		lakeBits := make([]string, 0, len(data.Lakes))
		for _, lake := range data.Lakes {
			lakeBits = append(lakeBits, fmt.Sprintf("%s %.0f/100 (bloom risk %s)",
				lake.Name, lake.WaterQualityIndex, lake.AlgalBloomRisk))
		}
		parts = append(parts, "Lake health: "+strings.Join(lakeBits, ", "))
	}
	if len(parts) == 0 {
		return "No specific data available."
	}
	return strings.Join(parts, "; ")
}

// enhancement appends the concrete readings behind the reply
func enhancement(question string, data contextData) string {
	q := strings.ToLower(question)
	var sb strings.Builder

	if data.Weather != nil && matchesAny(q, []string{"weather", "temperature"}) {
		sb.WriteString(fmt.Sprintf("\n\n📊 **Current Data**: Temperature is %.1f°C with %.0f%% humidity.",
			data.Weather.Temperature, data.Weather.Humidity))
	}
	if data.Air != nil && matchesAny(q, []string{"air", "quality", "pollution"}) {
		sb.WriteString(fmt.Sprintf("\n\n🌬️ **Current Air Quality**: PM2.5 is %.1f μg/m³ (%s)",
			data.Air.PM25, analysis.PM25Category(data.Air.PM25)))
	}
	if data.Heat != nil && matchesAny(q, []string{"heat", "island", "hot"}) {
		sb.WriteString(fmt.Sprintf("\n\n🌡️ **Heat Island Effect**: Urban areas are %.1f°C warmer than rural areas.",
			data.Heat.HeatIslandIntensity))
		if len(data.Heat.Hotspots) > 0 {
			top := data.Heat.Hotspots[0]
			sb.WriteString(fmt.Sprintf(" The biggest hotspot is %s with +%.1f°C.", top.Name, top.Intensity))
		}
	}
	if len(data.Lakes) > 0 && matchesAny(q, []string{"lake", "water"}) {
		for _, lake := range data.Lakes {
			firstWord := strings.ToLower(strings.Fields(lake.Name)[0])
			if strings.Contains(q, firstWord) {
				sb.WriteString(fmt.Sprintf("\n\n💧 **%s Status**: Health score %.0f/100, Algal bloom risk: %s",
					lake.Name, lake.WaterQualityIndex, lake.AlgalBloomRisk))
				break
			}
		}
	}
	return sb.String()
}

// cannedReply opens a data-only answer; enhancement carries the numbers
func cannedReply(data contextData) string {
	if data.Weather == nil && data.Air == nil && data.Heat == nil && len(data.Lakes) == 0 {
		return "I'm currently answering from dashboard data only. " +
			"Try asking about the weather, air quality, heat islands, or lake health in Bengaluru."
	}
	return "Here's what the dashboard currently shows for Bengaluru:"
}

// suggestionsFor returns follow-up questions matching the topic
func suggestionsFor(question string) []string {
	q := strings.ToLower(question)
	switch {
	case matchesAny(q, []string{"air", "quality", "pollution"}):
		return []string{
			"Which areas have the cleanest air?",
			"What causes air pollution in Bengaluru?",
			"When is the best time for outdoor exercise?",
		}
	case matchesAny(q, []string{"temperature", "weather", "hot"}):
		return []string{
			"What's the heat index like today?",
			"Which areas are coolest in the city?",
			"How does weather affect air quality?",
		}
	case matchesAny(q, []string{"lake", "water"}):
		return []string{
			"Which lakes are safe for recreational activities?",
			"What's being done to restore lake health?",
			"How do lakes affect local climate?",
		}
	default:
		return []string{
			"What's the overall climate situation today?",
			"Are there any climate alerts for the city?",
			"What can citizens do to help with climate issues?",
		}
	}
}

// Recommendations produces stakeholder-specific actions for an issue.
// The provider's output is preferred; the built-in tables answer when
// it is absent or failing. Returns the text and its source.
func (a *Assistant) Recommendations(ctx context.Context, stakeholderID, issue string, data any) (string, string, error) {
	if !validIssue(issue) {
		return "", "", fmt.Errorf("unknown issue %q", issue)
	}
	sh := city.StakeholderByID(stakeholderID)

	if a.responder != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			payload = []byte("{}")
		}
		prompt := fmt.Sprintf("As Terrabot, provide specific recommendations for %s regarding %s in Bengaluru.\n\n"+
			"Available data: %s\n\n"+
			"Provide actionable, specific recommendations that this stakeholder can implement.\n"+
			"Consider their role, authority, and resources.",
			sh.DisplayName, issue, payload)

		text, err := a.responder.Generate(ctx, prompt, true)
		if err == nil {
			return text, a.responder.Name(), nil
		}
		a.logger.Warn("recommendation provider failed, using built-in guidance",
			zap.String("provider", a.responder.Name()),
			zap.Error(err))
	}

	if table, ok := cannedRecommendations[issue]; ok {
		if text, ok := table[sh.ID]; ok {
			return text, "canned", nil
		}
	}
	return "Select a stakeholder to see recommended actions.", "canned", nil
}

// DailySummary composes the dashboard's daily climate brief
func (a *Assistant) DailySummary(ctx context.Context) (string, string) {
	eg, egCtx := errgroup.WithContext(ctx)
	var cur *weather.Current
	var air *weather.AirQuality
	eg.Go(func() error {
		cur = a.weather.CurrentOrSimulated(egCtx)
		return nil
	})
	eg.Go(func() error {
		air = a.weather.AirQualityOrSimulated(egCtx)
		return nil
	})
	if err := eg.Wait(); err != nil {
		a.logger.Warn("summary gathering incomplete", zap.Error(err))
	}
	heat := a.obs.UrbanHeatAnalysis()

	if a.responder != nil {
		payload, err := json.Marshal(map[string]any{
			"weather":      cur,
			"air_quality":  air,
			"heat_islands": heat,
		})
		if err == nil {
			prompt := fmt.Sprintf("Create a daily climate summary for Bengaluru citizens based on this data:\n\n%s\n\n"+
				"Include:\n"+
				"1. Today's weather highlights\n"+
				"2. Air quality status and recommendations\n"+
				"3. Any climate alerts or concerns\n"+
				"4. Tips for the day based on conditions\n\n"+
				"Keep it informative but brief, suitable for a dashboard display.", payload)
			if text, err := a.responder.Generate(ctx, prompt, false); err == nil {
				return text, a.responder.Name()
			}
			a.logger.Warn("summary provider failed, composing from data")
		}
	}

	aqi := analysis.AQIFromPM25(air.PM25)
	summary := fmt.Sprintf("Today in Bengaluru: %.1f°C (feels like %.1f°C), %s. "+
		"Air quality is %s with an AQI of %d (PM2.5 %.1f μg/m³). "+
		"Urban areas run about %.1f°C hotter than the surrounding countryside. "+
		"Peak heat is between 11 AM and 4 PM; plan outdoor activity for the early morning.",
		cur.Temperature, cur.Apparent, strings.ToLower(cur.Description),
		strings.ToLower(analysis.AQICategory(aqi)), aqi, air.PM25,
		heat.HeatIslandIntensity)
	return summary, "canned"
}

// ExplainMetric explains one reading in plain language
func (a *Assistant) ExplainMetric(ctx context.Context, dataType string, value float64, extra string) (string, string) {
	if a.responder != nil {
		prompt := fmt.Sprintf("Explain this climate data point in simple, easy-to-understand language for citizens:\n\n"+
			"Data Type: %s\nValue: %v\nContext: %s\n\n"+
			"Explain what this means, whether it's good or bad, and what citizens should know or do about it.\n"+
			"Keep it concise but informative.", dataType, value, extra)
		if text, err := a.responder.Generate(ctx, prompt, false); err == nil {
			return text, a.responder.Name()
		}
		a.logger.Warn("explain provider failed, using category lookup")
	}

	switch dataType {
	case "aqi":
		return fmt.Sprintf("AQI %.0f is rated %s.", value, analysis.AQICategory(int(value))), "canned"
	case "pm2_5", "pm25":
		return fmt.Sprintf("PM2.5 of %.1f μg/m³ is rated %s.", value, analysis.PM25Category(value)), "canned"
	case "uv_index":
		return fmt.Sprintf("UV index %.1f is %s exposure risk.", value, analysis.UVCategory(value)), "canned"
	default:
		return fmt.Sprintf("%s: %v", dataType, value), "canned"
	}
}

// TrendAnalysis narrates a set of metric trends
func (a *Assistant) TrendAnalysis(ctx context.Context, data any) (string, string) {
	if a.responder != nil {
		payload, err := json.Marshal(data)
		if err == nil {
			prompt := fmt.Sprintf("Analyze the following climate data for Bengaluru and provide insights:\n\n"+
				"Data: %s\n\n"+
				"Please provide:\n"+
				"1. Key trends and patterns\n"+
				"2. Areas of concern\n"+
				"3. Recommendations for improvement\n"+
				"4. Comparison with normal values if applicable", payload)
			if text, err := a.responder.Generate(ctx, prompt, false); err == nil {
				return text, a.responder.Name()
			}
			a.logger.Warn("trend provider failed")
		}
	}
	return "AI trend analysis is currently unavailable.", "canned"
}

// TriageFor routes a citizen report to a department, via the provider's
// structured output when it supports it, else by rule
func (a *Assistant) TriageFor(ctx context.Context, reportType, severity, location, description string) (*Triage, string) {
	if triager, ok := a.responder.(Triager); ok {
		triage, err := triager.TriageReport(ctx, reportType, severity, location, description)
		if err == nil {
			return triage, a.responder.Name()
		}
		a.logger.Warn("triage provider failed, routing by rule", zap.Error(err))
	}
	return ruleTriage(reportType, severity), "rules"
}

var departmentByType = map[string]string{
	"Air Pollution":    "Pollution Board",
	"Noise Pollution":  "Pollution Board",
	"Water Pollution":  "BWSSB",
	"Flooding":         "BBMP",
	"Waste Management": "BBMP",
	"Tree/Green Space": "BBMP",
	"Infrastructure":   "BBMP",
}

func ruleTriage(reportType, severity string) *Triage {
	department, ok := departmentByType[reportType]
	if !ok {
		department = "BBMP"
	}
	return &Triage{
		Department: department,
		Priority:   severity,
		Rationale:  fmt.Sprintf("%s reports route to %s.", reportType, department),
	}
}

var cannedRecommendations = map[string]map[string]string{
	"heat": {
		"bbmp": "- Immediate: Deploy mobile cooling centers in high-risk areas\n" +
			"- Short-term: Increase tree plantation by 40% in CBD and Electronic City\n" +
			"- Long-term: Implement green building codes and rooftop gardens mandate",
		"citizens": "- Stay hydrated and avoid outdoor activities between 11 AM - 4 PM\n" +
			"- Use public transport during peak heat hours\n" +
			"- Report heat-related health issues through the community module",
		"parks": "- Priority areas: CBD, Electronic City, and East Zone need immediate intervention\n" +
			"- Species selection: Use native drought-resistant trees\n" +
			"- Maintenance: Increase watering frequency for existing green cover",
	},
	"air": {
		"bbmp": "- Immediate: Deploy mobile cooling centers in high-risk areas\n" +
			"- Short-term: Increase tree plantation by 40% in CBD and Electronic City\n" +
			"- Long-term: Implement green building codes and rooftop gardens mandate",
		"citizens": "- Stay hydrated and avoid outdoor activities between 11 AM - 4 PM\n" +
			"- Use public transport during peak heat hours\n" +
			"- Report heat-related health issues through the community module",
		"parks": "- Priority areas: CBD, Electronic City, and East Zone need immediate intervention\n" +
			"- Species selection: Use native drought-resistant trees\n" +
			"- Maintenance: Increase watering frequency for existing green cover",
	},
	"water": {
		"bwssb": "- Critical: Immediate intervention needed for Bellandur and Varthur lakes\n" +
			"- Infrastructure: Upgrade sewage treatment capacity by 30%\n" +
			"- Monitoring: Install real-time water quality sensors in all major lakes",
		"citizens": "- Avoid recreational activities in Bellandur, Varthur, and Agara lakes\n" +
			"- Report any sewage discharge or industrial pollution immediately\n" +
			"- Conserve water during monsoon shortages",
		"bbmp": "- Flood mitigation: Upgrade drainage in Silk Board and Electronic City\n" +
			"- Lake restoration: Allocate ₹200 crores for lake cleanup projects\n" +
			"- Early warning: Implement flood alert system for high-risk areas",
	},
	"urban": {
		"bbmp": "2030 projections: urban area expands by another 180 sq km, population reaches 18.2 million, " +
			"green cover may fall to 135 sq km without intervention.\n" +
			"- Implement zoning restrictions in Yelahanka and Bannerghatta\n" +
			"- Fast-track Metro Phase 3 to reduce sprawl pressure\n" +
			"- Mandate 30% green space in new developments",
		"researchers": "- Urban heat island effect increasing by 0.3°C per year\n" +
			"- 65% of agricultural land converted in outer areas\n" +
			"- Monitor satellite data for real-time sprawl detection\n" +
			"- Study impact on biodiversity corridors",
		"citizens": "- New residential areas may face water/power shortages\n" +
			"- Support public transport initiatives\n" +
			"- Choose eco-friendly housing developments\n" +
			"- Report unauthorized constructions through the app",
	},
}
