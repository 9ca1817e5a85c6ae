package pipeline

import (
	"context"

	"twstock-analyst/internal/models"
	"twstock-analyst/internal/store"
)

// HistoryPersister records reports in the SQLite history.
type HistoryPersister struct {
	Store *store.SQLiteStore
}

func (p HistoryPersister) Persist(ctx context.Context, report *models.AnalysisReport) error {
	return p.Store.SaveReport(ctx, report)
}

// ArtifactPersister writes each report as a JSON file.
type ArtifactPersister struct {
	Writer *store.ArtifactWriter
}

func (p ArtifactPersister) Persist(_ context.Context, report *models.AnalysisReport) error {
	_, err := p.Writer.Write(report)
	return err
}
