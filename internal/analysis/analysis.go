// Package analysis holds the derived environmental metrics: AQI
// conversion, heat index, trend fitting, hotspot detection and the
// range checks applied to readings before they are stored.
package analysis

import (
	"fmt"
	"math"
	"sort"
)

// pm25Breakpoints are the US EPA PM2.5 to AQI conversion bands
var pm25Breakpoints = []struct {
	concLo, concHi float64
	aqiLo, aqiHi   float64
}{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
}

// AQIFromPM25 converts a PM2.5 concentration (ug/m3) to an AQI value by
// linear interpolation within the EPA band. Concentrations beyond the
// last band report 301.
func AQIFromPM25(conc float64) int {
	if conc < 0 {
		return 0
	}
	for _, bp := range pm25Breakpoints {
		if conc <= bp.concHi {
			aqi := (bp.aqiHi-bp.aqiLo)/(bp.concHi-bp.concLo)*(conc-bp.concLo) + bp.aqiLo
			return int(math.Round(aqi))
		}
	}
	return 301
}

// AQICategory returns the EPA label for an AQI value
func AQICategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// AQIColor returns the display hex color for an AQI value
func AQIColor(aqi int) string {
	switch {
	case aqi <= 50:
		return "#00e400"
	case aqi <= 100:
		return "#ffff00"
	case aqi <= 150:
		return "#ff7e00"
	case aqi <= 200:
		return "#ff0000"
	case aqi <= 300:
		return "#8f3f97"
	default:
		return "#7e0023"
	}
}

// PM25Category buckets a PM2.5 concentration for the dashboard cards
func PM25Category(conc float64) string {
	switch {
	case conc <= 25:
		return "Good"
	case conc <= 50:
		return "Moderate"
	default:
		return "Poor"
	}
}

// UVCategory buckets a UV index into the WHO exposure bands
func UVCategory(index float64) string {
	switch {
	case index <= 2:
		return "Low"
	case index <= 5:
		return "Moderate"
	case index <= 7:
		return "High"
	case index <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// HeatIndex computes the apparent temperature in Celsius from air
// temperature and relative humidity using the Rothfusz regression.
// Below 27C the index equals the input temperature. The result is
// rounded to one decimal.
func HeatIndex(tempC, humidity float64) float64 {
	if tempC < 27 {
		return tempC
	}
	t := tempC
	h := humidity
	hi := -8.784695 +
		1.61139411*t +
		2.338549*h -
		0.14611605*t*h -
		0.012308094*t*t -
		0.016424828*h*h +
		0.002211732*t*t*h +
		0.00072546*t*h*h -
		0.000003582*t*t*h*h
	return math.Round(hi*10) / 10
}

// TrendSlope fits a least-squares line through the values (x is the
// sample index) and returns its slope. Fewer than two points give 0.
func TrendSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// ClassifyTrend labels a slope for a metric where higher values are
// better. Callers tracking inverse metrics negate the slope first.
func ClassifyTrend(slope float64) string {
	switch {
	case slope > 0.1:
		return "Improving"
	case slope < -0.1:
		return "Deteriorating"
	default:
		return "Stable"
	}
}

// Sample is a located measurement used for hotspot detection
type Sample struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Value     float64 `json:"value"`
}

// Hotspot is a sample above the hotspot threshold
type Hotspot struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Value     float64 `json:"value"`
	Severity  string  `json:"severity"`
}

// Hotspots returns the samples above the 75th percentile of the set.
// Samples at or above the 90th percentile are flagged High, the rest
// Moderate.
func Hotspots(samples []Sample) []Hotspot {
	if len(samples) == 0 {
		return nil
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	threshold := Percentile(values, 75)
	high := Percentile(values, 90)

	var spots []Hotspot
	for _, s := range samples {
		if s.Value <= threshold {
			continue
		}
		severity := "Moderate"
		if s.Value >= high {
			severity = "High"
		}
		spots = append(spots, Hotspot{
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Value:     s.Value,
			Severity:  severity,
		})
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].Value > spots[j].Value })
	return spots
}

// Percentile computes the p-th percentile with linear interpolation
// between closest ranks. values may be unsorted and is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// VulnerabilityInput holds the raw per-zone factors for heat
// vulnerability scoring
type VulnerabilityInput struct {
	Zone        string
	Temperature float64
	Population  float64
	GreenCover  float64
}

// VulnerabilityScore is the weighted vulnerability for a zone, in [0,1]
type VulnerabilityScore struct {
	Zone  string  `json:"zone"`
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// HeatVulnerability scores each zone by min-max normalising the three
// factors across the input set and weighting them 0.4 temperature,
// 0.35 population and 0.25 inverse green cover. Scores are sorted
// highest first.
func HeatVulnerability(inputs []VulnerabilityInput) []VulnerabilityScore {
	if len(inputs) == 0 {
		return nil
	}
	temps := make([]float64, len(inputs))
	pops := make([]float64, len(inputs))
	greens := make([]float64, len(inputs))
	for i, in := range inputs {
		temps[i] = in.Temperature
		pops[i] = in.Population
		greens[i] = in.GreenCover
	}

	scores := make([]VulnerabilityScore, len(inputs))
	for i, in := range inputs {
		score := 0.4*normalize(in.Temperature, temps) +
			0.35*normalize(in.Population, pops) +
			0.25*(1-normalize(in.GreenCover, greens))
		scores[i] = VulnerabilityScore{
			Zone:  in.Zone,
			Score: math.Round(score*1000) / 1000,
			Level: vulnerabilityLevel(score),
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

func vulnerabilityLevel(score float64) string {
	switch {
	case score >= 0.7:
		return "High"
	case score >= 0.4:
		return "Medium"
	default:
		return "Low"
	}
}

func normalize(v float64, values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, x := range values {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// Severity of a validation finding. Warnings mark suspicious values
// that are still stored; rejects must not be stored.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityReject
)

// Finding describes a reading that failed a range check
type Finding struct {
	Severity Severity
	Message  string
}

func (f *Finding) Error() string { return f.Message }

// ValidateReading range-checks a metric value before storage.
// Temperatures outside 15..50C are suspicious but storable; AQI outside
// 0..500 and health scores outside 0..10 are rejected. Unknown metrics
// pass.
func ValidateReading(metric string, value float64) *Finding {
	switch metric {
	case "temperature":
		if value < 15 || value > 50 {
			return &Finding{
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("temperature %.1f outside expected range 15..50", value),
			}
		}
	case "aqi":
		if value < 0 || value > 500 {
			return &Finding{
				Severity: SeverityReject,
				Message:  fmt.Sprintf("aqi %.1f outside valid range 0..500", value),
			}
		}
	case "water_quality", "health_score":
		if value < 0 || value > 10 {
			return &Finding{
				Severity: SeverityReject,
				Message:  fmt.Sprintf("%s %.1f outside valid range 0..10", metric, value),
			}
		}
	}
	return nil
}
