package earthobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/city"
	"github.com/kartoza/citylens/internal/fetch"
)

func TestImageryFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/imagery", r.URL.Path)
		assert.Equal(t, "DEMO_KEY", r.URL.Query().Get("api_key"))
		assert.Equal(t, "12.9716", r.URL.Query().Get("lat"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, fetch.New(time.Second, 0, zap.NewNop()), zap.NewNop())
	img, err := c.ImageryFor(context.Background(), 12.9716, 77.5946, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", img.Date)
	assert.Contains(t, img.ImageURL, "/imagery?")
	assert.NotContains(t, img.ImageURL, "api_key")
}

func TestImageryForDefaultsDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("date"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("key123", srv.URL, fetch.New(time.Second, 0, zap.NewNop()), zap.NewNop())
	img, err := c.ImageryFor(context.Background(), 12.9716, 77.5946, "")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), img.Date)
}

func TestImageryForUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no scene", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, fetch.New(time.Second, 0, zap.NewNop()), zap.NewNop())
	_, err := c.ImageryFor(context.Background(), 12.9716, 77.5946, "2025-06-01")
	assert.Error(t, err)
}

func TestUrbanHeatAnalysis(t *testing.T) {
	uh := NewClient("", "", nil, nil).UrbanHeatAnalysis()
	assert.Equal(t, 3.2, uh.HeatIslandIntensity)
	require.Len(t, uh.Hotspots, 3)
	assert.Equal(t, "Electronic City", uh.Hotspots[0].Name)
	assert.Equal(t, 4.2, uh.Hotspots[0].Intensity)
	require.Len(t, uh.CoolingZones, 2)
	assert.Negative(t, uh.CoolingZones[0].Intensity)
}

func TestWaterBodyAnalysis(t *testing.T) {
	reports := NewClient("", "", nil, nil).WaterBodyAnalysis(city.Lakes())
	require.Len(t, reports, 6)

	byName := make(map[string]WaterBodyReport)
	for _, r := range reports {
		byName[r.Name] = r
	}

	bellandur := byName["Bellandur Lake"]
	assert.InDelta(t, 3.61, bellandur.AreaKm2, 1e-9)
	assert.Equal(t, "High", bellandur.AlgalBloomRisk)
	assert.Equal(t, 40.0, bellandur.WaterQualityIndex)

	sankey := byName["Sankey Tank"]
	assert.Equal(t, "Low", sankey.AlgalBloomRisk)
	assert.Equal(t, 60.0, sankey.WaterQualityIndex)

	ulsoor := byName["Ulsoor Lake"]
	assert.Equal(t, "Low", ulsoor.AlgalBloomRisk)
	assert.Equal(t, 50.0, ulsoor.WaterQualityIndex)
}

func TestAlgalBloomRisk(t *testing.T) {
	assert.Equal(t, "High", algalBloomRisk(361))
	assert.Equal(t, "Medium", algalBloomRisk(80))
	assert.Equal(t, "Low", algalBloomRisk(15))
}

func TestVegetationAndColumns(t *testing.T) {
	c := NewClient("", "", nil, nil)
	veg := c.VegetationFor(12.97, 77.59)
	assert.Equal(t, 0.45, veg.NDVI)
	assert.Equal(t, "Moderate", veg.VegetationHealth)

	cols := c.AirColumnsFor(12.97, 77.59)
	assert.Equal(t, 2.5e15, cols.NO2Column)
	assert.Equal(t, "TROPOMI", cols.Source)

	st := c.SurfaceTemperatureFor(12.97, 77.59)
	assert.Equal(t, 31.2, st.LandSurfaceTemperature)
}

func TestLandCoverChangeFor(t *testing.T) {
	lc := NewClient("", "", nil, nil).LandCoverChangeFor([]int{2015, 2020, 2025})
	assert.Equal(t, 12.3, lc.UrbanGrowthRate)
	assert.Equal(t, "Urban expansion", lc.DominantChange)
	assert.Equal(t, []int{2015, 2020, 2025}, lc.YearsAnalyzed)
}
