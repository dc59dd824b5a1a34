// Package repositories provides the PostgreSQL-backed implementations of the
// domain repository interfaces.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

const defaultListLimit = 50

// AnalysisRepo persists analysis records in the analyses table, with the
// structured analysis stored as a JSONB blob.
type AnalysisRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewAnalysisRepo builds a repository over the shared connection.
func NewAnalysisRepo(conn *postgres.Connection, log logging.Logger) *AnalysisRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnalysisRepo{db: conn.DB(), logger: log.Named("analysis_repo")}
}

var _ analysis.Repository = (*AnalysisRepo)(nil)

const analysisColumns = `id, file_name, object_key, analysis, low_confidence, degraded_reason, created_at, updated_at`

func (r *AnalysisRepo) Get(ctx context.Context, id string) (*analysis.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("analysis not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load analysis")
	}
	return rec, nil
}

func (r *AnalysisRepo) Save(ctx context.Context, rec *analysis.Record) error {
	payload, err := json.Marshal(rec.Analysis)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analysis")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analyses (id, file_name, object_key, analysis, low_confidence, degraded_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			file_name       = EXCLUDED.file_name,
			object_key      = EXCLUDED.object_key,
			analysis        = EXCLUDED.analysis,
			low_confidence  = EXCLUDED.low_confidence,
			degraded_reason = EXCLUDED.degraded_reason,
			updated_at      = EXCLUDED.updated_at`,
		rec.ID, rec.FileName, rec.ObjectKey, payload, rec.LowConfidence, rec.DegradedReason,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save analysis")
	}
	return nil
}

func (r *AnalysisRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete analysis")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("analysis not found").WithDetail("id=" + id)
	}
	return nil
}

func (r *AnalysisRepo) List(ctx context.Context, filter analysis.ListFilter) ([]*analysis.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + analysisColumns + ` FROM analyses`
	args := []interface{}{}
	if filter.FileName != "" {
		query += ` WHERE file_name ILIKE $1`
		args = append(args, "%"+filter.FileName+"%")
	}
	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list analyses")
	}
	defer rows.Close()

	records := []*analysis.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan analysis row")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate analyses")
	}
	return records, nil
}

func scanRecord(s scanner) (*analysis.Record, error) {
	var (
		rec     analysis.Record
		payload []byte
	)
	if err := s.Scan(
		&rec.ID, &rec.FileName, &rec.ObjectKey, &payload,
		&rec.LowConfidence, &rec.DegradedReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var a analysis.DocumentAnalysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, err
	}
	rec.Analysis = a.Normalize()
	return &rec, nil
}
