// Package reports persists citizen-submitted environmental reports and
// tracks their resolution lifecycle.
package reports

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Report types accepted from the submission form
var Types = []string{
	"Air Pollution",
	"Water Pollution",
	"Noise Pollution",
	"Waste Management",
	"Tree/Green Space",
	"Flooding",
	"Infrastructure",
	"Other",
}

// Severity levels accepted from the submission form
var Severities = []string{"Low", "Medium", "High", "Critical"}

// Statuses in lifecycle order
var Statuses = []string{"Open", "Acknowledged", "Assigned", "In Progress", "Resolved", "Closed"}

// Report is a citizen-submitted environmental issue
type Report struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Contact     string    `json:"contact,omitempty"`
	Anonymous   bool      `json:"anonymous"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is the payload for a new report
type Submission struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Contact     string  `json:"contact"`
	Anonymous   bool    `json:"anonymous"`
}

// Filter narrows List results; zero fields match everything
type Filter struct {
	Type     string
	Status   string
	Severity string
	Since    time.Time
}

// TypeCount is the number of reports of one type
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// StatusCount is the number of reports in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Analytics summarises the report backlog
type Analytics struct {
	Total              int           `json:"total"`
	Open               int           `json:"open"`
	ResolutionRate     float64       `json:"resolution_rate"`
	AvgResolutionHours float64       `json:"avg_resolution_hours"`
	ByType             []TypeCount   `json:"by_type"`
	ByStatus           []StatusCount `json:"by_status"`
}

// Store wraps the reports database
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the reports database at path
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening reports db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging reports db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL,
		location TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		contact TEXT NOT NULL DEFAULT '',
		anonymous INTEGER NOT NULL DEFAULT 0,
		assigned_to TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
	CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(type);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating reports schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Create validates and stores a submission, assigning it a reference of
// the form CR-YYYY-NNNN where NNNN counts up within the year
func (s *Store) Create(sub Submission) (*Report, error) {
	if !contains(Types, sub.Type) {
		return nil, fmt.Errorf("unknown report type %q", sub.Type)
	}
	if !contains(Severities, sub.Severity) {
		return nil, fmt.Errorf("unknown severity %q", sub.Severity)
	}
	if strings.TrimSpace(sub.Description) == "" {
		return nil, fmt.Errorf("description is required")
	}

	contact := sub.Contact
	if sub.Anonymous {
		contact = ""
	}

	now := time.Now().UTC()
	report := &Report{
		ID:          uuid.New().String(),
		Type:        sub.Type,
		Severity:    sub.Severity,
		Status:      "Open",
		Description: strings.TrimSpace(sub.Description),
		Location:    strings.TrimSpace(sub.Location),
		Latitude:    sub.Latitude,
		Longitude:   sub.Longitude,
		Contact:     contact,
		Anonymous:   sub.Anonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}

	prefix := fmt.Sprintf("CR-%d-", now.Year())
	var seq int
	err = tx.QueryRow(`SELECT COUNT(*) FROM reports WHERE reference LIKE ?`, prefix+"%").Scan(&seq)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("counting references: %w", err)
	}
	report.Reference = fmt.Sprintf("%s%04d", prefix, seq+1)

	_, err = tx.Exec(`
		INSERT INTO reports (id, reference, type, severity, status, description,
			location, lat, lon, contact, anonymous, assigned_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Reference, report.Type, report.Severity, report.Status,
		report.Description, report.Location, report.Latitude, report.Longitude,
		report.Contact, report.Anonymous, report.AssignedTo, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("inserting report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report: %w", err)
	}

	s.logger.Info("report created",
		zap.String("reference", report.Reference),
		zap.String("type", report.Type),
		zap.String("severity", report.Severity))
	return report, nil
}

// Get returns the report with the given reference, or nil when missing
func (s *Store) Get(reference string) (*Report, error) {
	row := s.db.QueryRow(selectColumns+` WHERE reference = ?`, reference)
	report, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	return report, nil
}

// List returns reports matching the filter, newest first
func (s *Store) List(filter Filter) ([]Report, error) {
	query := selectColumns
	var clauses []string
	var args []any
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, filter.Severity)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var result []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

// UpdateStatus moves a report to a new status, optionally assigning it.
// Returns the updated report, or nil when the reference is unknown.
func (s *Store) UpdateStatus(reference, status, assignedTo string) (*Report, error) {
	if !contains(Statuses, status) {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	now := time.Now().UTC()
	var res sql.Result
	var err error
	if assignedTo != "" {
		res, err = s.db.Exec(`UPDATE reports SET status = ?, assigned_to = ?, updated_at = ? WHERE reference = ?`,
			status, assignedTo, now, reference)
	} else {
		res, err = s.db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE reference = ?`,
			status, now, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("updating report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	s.logger.Info("report status updated",
		zap.String("reference", reference),
		zap.String("status", status))
	return s.Get(reference)
}

// Analytics summarises the current backlog
func (s *Store) Analytics() (*Analytics, error) {
	a := &Analytics{}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&a.Total)
	if err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM reports WHERE status NOT IN ('Resolved', 'Closed')`).Scan(&a.Open)
	if err != nil {
		return nil, fmt.Errorf("counting open reports: %w", err)
	}
	if a.Total > 0 {
		a.ResolutionRate = float64(a.Total-a.Open) / float64(a.Total) * 100
	}

	var avg sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT AVG((julianday(updated_at) - julianday(created_at)) * 24)
		FROM reports WHERE status IN ('Resolved', 'Closed')
	`).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("averaging resolution time: %w", err)
	}
	if avg.Valid {
		a.AvgResolutionHours = avg.Float64
	}

	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM reports GROUP BY type ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("grouping by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		a.ByType = append(a.ByType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := s.db.Query(`SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("grouping by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var sc StatusCount
		if err := statusRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		a.ByStatus = append(a.ByStatus, sc)
	}
	return a, statusRows.Err()
}

// SeedSamples loads the starter reports into an empty store so the map
// has markers on first launch
func (s *Store) SeedSamples() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		return fmt.Errorf("counting reports: %w", err)
	}
	if count > 0 {
		return nil
	}

	samples := []Submission{
		{Type: "Air Pollution", Severity: "High", Description: "Heavy smoke from construction site", Location: "City Center", Latitude: 12.9716, Longitude: 77.5946},
		{Type: "Water Pollution", Severity: "Critical", Description: "Sewage overflow in residential area", Location: "Whitefield", Latitude: 12.9698, Longitude: 77.7500},
		{Type: "Waste Management", Severity: "Medium", Description: "Illegal dumping near lake", Location: "Koramangala", Latitude: 12.9352, Longitude: 77.6245},
		{Type: "Noise Pollution", Severity: "High", Description: "Construction noise beyond permitted hours", Location: "Indiranagar", Latitude: 12.9833, Longitude: 77.6167},
		{Type: "Flooding", Severity: "Critical", Description: "Poor drainage causing waterlogging", Location: "Hebbal", Latitude: 13.0358, Longitude: 77.5970},
		{Type: "Tree/Green Space", Severity: "Medium", Description: "Unauthorized tree cutting", Location: "Bannerghatta", Latitude: 12.8456, Longitude: 77.6636},
	}
	statuses := []string{"Open", "In Progress", "Resolved", "Open", "In Progress", "Open"}

	for i, sub := range samples {
		report, err := s.Create(sub)
		if err != nil {
			return fmt.Errorf("seeding report: %w", err)
		}
		if statuses[i] != "Open" {
			if _, err := s.UpdateStatus(report.Reference, statuses[i], ""); err != nil {
				return fmt.Errorf("seeding report status: %w", err)
			}
		}
	}
	s.logger.Info("seeded sample reports", zap.Int("count", len(samples)))
	return nil
}

const selectColumns = `
	SELECT id, reference, type, severity, status, description,
		location, lat, lon, contact, anonymous, assigned_to, created_at, updated_at
	FROM reports`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.Reference, &r.Type, &r.Severity, &r.Status, &r.Description,
		&r.Location, &r.Latitude, &r.Longitude, &r.Contact, &r.Anonymous, &r.AssignedTo,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
