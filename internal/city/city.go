// Package city carries the built-in Bengaluru dataset: lakes, monitoring
// stations, development zones, stakeholder roles and the land-use trend.
// Values mirror the published figures the dashboard was designed around.
package city

// Center returns the map center coordinates of Bengaluru
func Center() (lat, lon float64) {
	return 12.9716, 77.5946
}

// Timezone is the IANA timezone used for all feed requests
const Timezone = "Asia/Kolkata"

// Lake is a monitored water body with its current health assessment
type Lake struct {
	Name           string  `json:"name"`
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	AreaHectares   float64 `json:"area_hectares"`
	HealthScore    float64 `json:"health_score"`
	PollutionLevel string  `json:"pollution_level"`
}

// Station is an air quality monitoring station with its published readings
type Station struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	AQI         int     `json:"aqi"`
	PM25        float64 `json:"pm25"`
	PM10        float64 `json:"pm10"`
	NO2         float64 `json:"no2"`
	StationType string  `json:"station_type"`
}

// GrowthZone is a development zone with its observed expansion rate
type GrowthZone struct {
	Name            string  `json:"zone"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	GrowthRate      float64 `json:"growth_rate"`
	ZoneType        string  `json:"type"`
	NewBuildings    int     `json:"new_buildings"`
	PopulationDelta int     `json:"population_change"`
	DevelopmentType string  `json:"development_type"`
}

// Classification buckets a zone's growth rate for display
func (z GrowthZone) Classification() string {
	switch {
	case z.GrowthRate < 5:
		return "Stable"
	case z.GrowthRate < 10:
		return "Moderate"
	case z.GrowthRate < 15:
		return "High"
	default:
		return "Rapid"
	}
}

// Stakeholder is a dashboard audience with its own view emphasis
type Stakeholder struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Focus       string `json:"focus"`
}

// Location is a map marker on the overview map
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Type      string  `json:"type"`
	Color     string  `json:"color"`
}

// LandUseYear is one year of the built-up/green-cover/population trend
type LandUseYear struct {
	Year               int     `json:"year"`
	BuiltUpAreaSqKm    float64 `json:"built_up_area_sq_km"`
	GreenCoverSqKm     float64 `json:"green_cover_sq_km"`
	PopulationMillions float64 `json:"population_millions"`
}

// Alert is an active environmental alert shown on the overview
type Alert struct {
	Time     string `json:"time"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Severity string `json:"severity"`
}

// Ward carries the per-area figures the heat vulnerability index is
// computed from
type Ward struct {
	Name              string  `json:"name"`
	Temperature       float64 `json:"temperature"`
	PopulationDensity float64 `json:"population_density"`
	GreenCoverPct     float64 `json:"green_cover_pct"`
}

var lakes = []Lake{
	{Name: "Bellandur Lake", Latitude: 12.9361, Longitude: 77.6747, AreaHectares: 361, HealthScore: 3.2, PollutionLevel: "High"},
	{Name: "Varthur Lake", Latitude: 12.9467, Longitude: 77.7411, AreaHectares: 220, HealthScore: 4.1, PollutionLevel: "High"},
	{Name: "Ulsoor Lake", Latitude: 12.9813, Longitude: 77.6081, AreaHectares: 50, HealthScore: 6.8, PollutionLevel: "Moderate"},
	{Name: "Sankey Tank", Latitude: 12.9716, Longitude: 77.5714, AreaHectares: 15, HealthScore: 7.5, PollutionLevel: "Low"},
	{Name: "Hebbal Lake", Latitude: 13.0358, Longitude: 77.5970, AreaHectares: 75, HealthScore: 5.9, PollutionLevel: "Moderate"},
	{Name: "Agara Lake", Latitude: 12.9361, Longitude: 77.6388, AreaHectares: 80, HealthScore: 4.7, PollutionLevel: "High"},
}

var stations = []Station{
	{Name: "City Railway Station", Latitude: 12.9716, Longitude: 77.5946, AQI: 156, PM25: 68, PM10: 98, NO2: 45, StationType: "Urban Traffic"},
	{Name: "Hebbal", Latitude: 13.0358, Longitude: 77.5970, AQI: 132, PM25: 52, PM10: 76, NO2: 38, StationType: "Residential"},
	{Name: "BTM Layout", Latitude: 12.9165, Longitude: 77.6101, AQI: 178, PM25: 89, PM10: 125, NO2: 52, StationType: "Commercial"},
	{Name: "Silk Board", Latitude: 12.9173, Longitude: 77.6226, AQI: 203, PM25: 112, PM10: 156, NO2: 67, StationType: "Traffic Junction"},
	{Name: "Whitefield", Latitude: 12.9698, Longitude: 77.7500, AQI: 145, PM25: 58, PM10: 82, NO2: 41, StationType: "IT Hub"},
	{Name: "Electronic City", Latitude: 12.8398, Longitude: 77.6595, AQI: 189, PM25: 94, PM10: 134, NO2: 58, StationType: "Industrial"},
}

var zones = []GrowthZone{
	{Name: "Yelahanka", Latitude: 13.0358, Longitude: 77.5970, GrowthRate: 18.2, ZoneType: "expanding", NewBuildings: 2340, PopulationDelta: 45000, DevelopmentType: "Residential"},
	{Name: "Bannerghatta", Latitude: 12.8456, Longitude: 77.6636, GrowthRate: 15.7, ZoneType: "expanding", NewBuildings: 1890, PopulationDelta: 38000, DevelopmentType: "Mixed Use"},
	{Name: "Electronic City", Latitude: 12.9352, Longitude: 77.6245, GrowthRate: 12.3, ZoneType: "tech_hub", NewBuildings: 1560, PopulationDelta: 29000, DevelopmentType: "IT/Commercial"},
	{Name: "Hebbal", Latitude: 13.0827, Longitude: 77.5946, GrowthRate: 9.8, ZoneType: "residential", NewBuildings: 1200, PopulationDelta: 22000, DevelopmentType: "Residential"},
	{Name: "Whitefield", Latitude: 12.9698, Longitude: 77.7500, GrowthRate: 8.5, ZoneType: "tech_hub", NewBuildings: 980, PopulationDelta: 18000, DevelopmentType: "IT/Commercial"},
	{Name: "Koramangala", Latitude: 12.9833, Longitude: 77.6167, GrowthRate: 5.4, ZoneType: "established", NewBuildings: 620, PopulationDelta: 12000, DevelopmentType: "Commercial"},
	{Name: "Jayanagar", Latitude: 12.9141, Longitude: 77.6101, GrowthRate: 3.2, ZoneType: "established", NewBuildings: 340, PopulationDelta: 6000, DevelopmentType: "Residential"},
	{Name: "CBD", Latitude: 12.9716, Longitude: 77.5946, GrowthRate: 2.1, ZoneType: "established", NewBuildings: 180, PopulationDelta: 3000, DevelopmentType: "Commercial"},
}

var stakeholders = []Stakeholder{
	{ID: "citizens", DisplayName: "Citizens", Focus: "Day-to-day exposure, advisories and reporting"},
	{ID: "bbmp", DisplayName: "BBMP (City Planning)", Focus: "Zoning, infrastructure and heat mitigation"},
	{ID: "bwssb", DisplayName: "BWSSB (Water Board)", Focus: "Lake health, supply and sewage treatment"},
	{ID: "bescom", DisplayName: "BESCOM (Electricity)", Focus: "Load growth and cooling demand"},
	{ID: "parks", DisplayName: "Parks Department", Focus: "Green cover and plantation priorities"},
	{ID: "researchers", DisplayName: "Researchers", Focus: "Trends, satellite analytics and raw series"},
}

var sampleLocations = []Location{
	{Name: "Bellandur Lake", Latitude: 12.9361, Longitude: 77.6747, Type: "Water Body - Critical", Color: "red"},
	{Name: "Cubbon Park", Latitude: 12.9762, Longitude: 77.5993, Type: "Green Space - Good", Color: "green"},
	{Name: "Electronic City Air Station", Latitude: 12.8398, Longitude: 77.6595, Type: "Air Quality Monitor", Color: "orange"},
	{Name: "Silk Board Junction", Latitude: 12.9173, Longitude: 77.6226, Type: "Traffic Pollution Hotspot", Color: "darkred"},
	{Name: "Ulsoor Lake", Latitude: 12.9813, Longitude: 77.6081, Type: "Water Body - Moderate", Color: "blue"},
}

var landUseTrend = []LandUseYear{
	{Year: 2020, BuiltUpAreaSqKm: 741, GreenCoverSqKm: 189, PopulationMillions: 12.3},
	{Year: 2021, BuiltUpAreaSqKm: 768, GreenCoverSqKm: 182, PopulationMillions: 12.8},
	{Year: 2022, BuiltUpAreaSqKm: 798, GreenCoverSqKm: 174, PopulationMillions: 13.4},
	{Year: 2023, BuiltUpAreaSqKm: 832, GreenCoverSqKm: 168, PopulationMillions: 14.1},
	{Year: 2024, BuiltUpAreaSqKm: 871, GreenCoverSqKm: 161, PopulationMillions: 14.8},
	{Year: 2025, BuiltUpAreaSqKm: 915, GreenCoverSqKm: 153, PopulationMillions: 15.6},
}

var activeAlerts = []Alert{
	{Time: "2 hours ago", Type: "Heat Wave", Location: "Electronic City", Severity: "High"},
	{Time: "6 hours ago", Type: "Air Quality", Location: "Silk Board", Severity: "Moderate"},
	{Time: "1 day ago", Type: "Water Quality", Location: "Bellandur Lake", Severity: "High"},
	{Time: "2 days ago", Type: "Flooding Risk", Location: "Majestic Area", Severity: "Low"},
}

var wards = []Ward{
	{Name: "CBD", Temperature: 35.5, PopulationDensity: 24000, GreenCoverPct: 8},
	{Name: "Electronic City", Temperature: 36.2, PopulationDensity: 15000, GreenCoverPct: 10},
	{Name: "Whitefield", Temperature: 35.8, PopulationDensity: 14000, GreenCoverPct: 12},
	{Name: "Koramangala", Temperature: 35.1, PopulationDensity: 21000, GreenCoverPct: 14},
	{Name: "Jayanagar", Temperature: 34.2, PopulationDensity: 18000, GreenCoverPct: 22},
	{Name: "Hebbal", Temperature: 33.8, PopulationDensity: 12000, GreenCoverPct: 18},
	{Name: "Yelahanka", Temperature: 33.1, PopulationDensity: 8000, GreenCoverPct: 24},
	{Name: "Cubbon Park Belt", Temperature: 31.9, PopulationDensity: 6000, GreenCoverPct: 45},
}

// Lakes returns the monitored lakes
func Lakes() []Lake {
	out := make([]Lake, len(lakes))
	copy(out, lakes)
	return out
}

// LakeByName finds a lake by exact name
func LakeByName(name string) (Lake, bool) {
	for _, l := range lakes {
		if l.Name == name {
			return l, true
		}
	}
	return Lake{}, false
}

// Stations returns the air quality monitoring stations
func Stations() []Station {
	out := make([]Station, len(stations))
	copy(out, stations)
	return out
}

// Zones returns the development zones, highest growth first
func Zones() []GrowthZone {
	out := make([]GrowthZone, len(zones))
	copy(out, zones)
	return out
}

// Stakeholders returns the dashboard audiences
func Stakeholders() []Stakeholder {
	out := make([]Stakeholder, len(stakeholders))
	copy(out, stakeholders)
	return out
}

// StakeholderByID resolves a role identifier; unknown IDs fall back to citizens
func StakeholderByID(id string) Stakeholder {
	for _, s := range stakeholders {
		if s.ID == id {
			return s
		}
	}
	return stakeholders[0]
}

// SampleLocations returns the overview map markers
func SampleLocations() []Location {
	out := make([]Location, len(sampleLocations))
	copy(out, sampleLocations)
	return out
}

// LandUseTrend returns the 2020-2025 land use series
func LandUseTrend() []LandUseYear {
	out := make([]LandUseYear, len(landUseTrend))
	copy(out, landUseTrend)
	return out
}

// ActiveAlerts returns the current alert feed
func ActiveAlerts() []Alert {
	out := make([]Alert, len(activeAlerts))
	copy(out, activeAlerts)
	return out
}

// Wards returns the areas assessed for heat vulnerability
func Wards() []Ward {
	out := make([]Ward, len(wards))
	copy(out, wards)
	return out
}

// AverageLakeHealth is the mean health score across all lakes
func AverageLakeHealth() float64 {
	if len(lakes) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lakes {
		sum += l.HealthScore
	}
	return sum / float64(len(lakes))
}
