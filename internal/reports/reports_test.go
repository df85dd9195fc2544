package reports

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "reports.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func validSubmission() Submission {
	return Submission{
		Type:        "Air Pollution",
		Severity:    "High",
		Description: "Heavy smoke from construction site",
		Location:    "Electronic City",
		Latitude:    12.845,
		Longitude:   77.661,
		Contact:     "reporter@example.com",
	}
}

func TestCreateAssignsReference(t *testing.T) {
	store := newTestStore(t)
	year := time.Now().Year()

	first, err := store.Create(validSubmission())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CR-%d-0001", year), first.Reference)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Open", first.Status)
	assert.Equal(t, "reporter@example.com", first.Contact)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := store.Create(validSubmission())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CR-%d-0002", year), second.Reference)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateAnonymousDropsContact(t *testing.T) {
	store := newTestStore(t)

	sub := validSubmission()
	sub.Anonymous = true
	report, err := store.Create(sub)
	require.NoError(t, err)
	assert.True(t, report.Anonymous)
	assert.Empty(t, report.Contact)
}

func TestCreateValidates(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"unknown type", func(s *Submission) { s.Type = "Alien Invasion" }},
		{"unknown severity", func(s *Submission) { s.Severity = "Apocalyptic" }},
		{"empty description", func(s *Submission) { s.Description = "   " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)
			_, err := store.Create(sub)
			assert.Error(t, err)
		})
	}
}

func TestGet(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(validSubmission())
	require.NoError(t, err)

	got, err := store.Get(created.Reference)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Description, got.Description)

	missing, err := store.Get("CR-1999-0001")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)

	air := validSubmission()
	_, err := store.Create(air)
	require.NoError(t, err)

	water := validSubmission()
	water.Type = "Water Pollution"
	water.Severity = "Critical"
	created, err := store.Create(water)
	require.NoError(t, err)

	_, err = store.UpdateStatus(created.Reference, "In Progress", "Water Dept")
	require.NoError(t, err)

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byType, err := store.List(Filter{Type: "Water Pollution"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Water Pollution", byType[0].Type)

	byStatus, err := store.List(Filter{Status: "Open"})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Air Pollution", byStatus[0].Type)

	bySeverity, err := store.List(Filter{Severity: "Critical"})
	require.NoError(t, err)
	assert.Len(t, bySeverity, 1)

	none, err := store.List(Filter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(validSubmission())
	require.NoError(t, err)

	updated, err := store.UpdateStatus(created.Reference, "Assigned", "ENV Team A")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Assigned", updated.Status)
	assert.Equal(t, "ENV Team A", updated.AssignedTo)

	// assignment survives a bare status change
	updated, err = store.UpdateStatus(created.Reference, "Resolved", "")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Resolved", updated.Status)
	assert.Equal(t, "ENV Team A", updated.AssignedTo)

	_, err = store.UpdateStatus(created.Reference, "Vanished", "")
	assert.Error(t, err)

	missing, err := store.UpdateStatus("CR-1999-0001", "Resolved", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalytics(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.Create(validSubmission())
		require.NoError(t, err)
	}
	water := validSubmission()
	water.Type = "Water Pollution"
	created, err := store.Create(water)
	require.NoError(t, err)
	_, err = store.UpdateStatus(created.Reference, "Resolved", "")
	require.NoError(t, err)

	a, err := store.Analytics()
	require.NoError(t, err)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 3, a.Open)
	assert.InDelta(t, 25.0, a.ResolutionRate, 1e-9)
	require.NotEmpty(t, a.ByType)
	assert.Equal(t, "Air Pollution", a.ByType[0].Type)
	assert.Equal(t, 3, a.ByType[0].Count)
	assert.NotEmpty(t, a.ByStatus)
}

func TestSeedSamples(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SeedSamples())

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	// seeding again must not duplicate
	require.NoError(t, store.SeedSamples())
	all, err = store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	resolved, err := store.List(Filter{Status: "Resolved"})
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}
