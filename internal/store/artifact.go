package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"twstock-analyst/internal/models"
)

// artifactTimeLayout matches the report filename timestamp.
const artifactTimeLayout = "20060102_150405"

// ArtifactWriter saves each report as a standalone JSON file so a run's
// output survives independently of the history database.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates a writer rooted at dir, creating it if
// needed.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// Write saves the report as <symbol>_analysis_report_<timestamp>.json
// and returns the file path.
func (w *ArtifactWriter) Write(report *models.AnalysisReport) (string, error) {
	name := fmt.Sprintf("%s_analysis_report_%s.json",
		report.Symbol, report.Timestamp.Format(artifactTimeLayout))
	path := filepath.Join(w.dir, name)

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report artifact: %w", err)
	}
	return path, nil
}
