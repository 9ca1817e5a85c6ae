// Package store persists analysis reports: a JSON artifact per run and
// a SQLite history for querying past reports.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"twstock-analyst/internal/models"
)

// SQLiteStore keeps the report history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the report history database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the reports table. Stage payloads are stored as
// JSON text so partially parsed reports round-trip unchanged.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		company TEXT NOT NULL,
		model TEXT NOT NULL,
		market_analysis TEXT,
		technical_analysis TEXT,
		risk_assessment TEXT,
		investment_recommendation TEXT,
		analysis_method TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reports_symbol ON reports(symbol, timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveReport appends one report to the history.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *models.AnalysisReport) error {
	stages := make(map[models.Stage]string, 4)
	for _, result := range report.StageResults() {
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode stage %s: %w", result.Stage, err)
		}
		stages[result.Stage] = string(payload)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (
			timestamp, symbol, company, model,
			market_analysis, technical_analysis, risk_assessment,
			investment_recommendation, analysis_method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Timestamp.UTC(), report.Symbol, report.Company, report.Model,
		stages[models.StageMarketAnalysis],
		stages[models.StageTechnicalAnalysis],
		stages[models.StageRiskAssessment],
		stages[models.StageInvestmentRecommendation],
		report.AnalysisMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ReportSummary is one row of the report history listing.
type ReportSummary struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Company   string    `json:"company"`
	Model     string    `json:"model"`
}

// ListReports returns the most recent reports for a symbol, newest
// first. An empty symbol lists across all symbols.
func (s *SQLiteStore) ListReports(ctx context.Context, symbol string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, timestamp, symbol, company, model FROM reports`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Symbol, &r.Company, &r.Model); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReport loads one report by id.
func (s *SQLiteStore) GetReport(ctx context.Context, id int64) (*models.AnalysisReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT timestamp, symbol, company, model,
			market_analysis, technical_analysis, risk_assessment,
			investment_recommendation, analysis_method
		FROM reports WHERE id = ?`, id)

	var report models.AnalysisReport
	var market, technical, risk, recommendation string
	err := row.Scan(
		&report.Timestamp, &report.Symbol, &report.Company, &report.Model,
		&market, &technical, &risk, &recommendation,
		&report.AnalysisMethod,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	for stage, payload := range map[models.Stage]string{
		models.StageMarketAnalysis:           market,
		models.StageTechnicalAnalysis:        technical,
		models.StageRiskAssessment:           risk,
		models.StageInvestmentRecommendation: recommendation,
	} {
		if payload == "" {
			continue
		}
		var result models.StageResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to decode stage %s: %w", stage, err)
		}
		result.Stage = stage
		report.SetStage(result)
	}
	return &report, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
