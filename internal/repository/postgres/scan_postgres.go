package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"safeswipe/internal/model"
	"safeswipe/internal/repository"
)

// ScanPostgres is a PostgreSQL implementation of repository.ScanRepository.
// It uses database/sql with parameterized queries and contains no business
// logic. Signals and per-image reports are stored as JSONB columns; the scan
// is written and read as one row.
type ScanPostgres struct {
	db *sql.DB
}

// NewScanPostgres creates a new ScanPostgres repository.
func NewScanPostgres(db *sql.DB) *ScanPostgres {
	return &ScanPostgres{db: db}
}

var _ repository.ScanRepository = (*ScanPostgres)(nil)

const scanColumns = `id, verdict, risk_score, top_ai_score, model_id, bio, signals, images, degraded, created_at`

// Create inserts a new scan row and returns the stored record.
func (r *ScanPostgres) Create(ctx context.Context, scan *model.Scan) (*model.Scan, error) {
	signals, images, err := marshalJSONCols(scan)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO scans (id, verdict, risk_score, top_ai_score, model_id, bio, signals, images, degraded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + scanColumns
	row := r.db.QueryRowContext(ctx, q,
		scan.ID,
		scan.Verdict,
		scan.RiskScore,
		scan.TopAIScore,
		scan.ModelID,
		scan.Bio,
		signals,
		images,
		scan.Degraded,
		scan.CreatedAt,
	)
	return scanScanRow(row)
}

// FindByID fetches a single scan by its ID.
func (r *ScanPostgres) FindByID(ctx context.Context, id string) (*model.Scan, error) {
	const q = `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE id = $1
	`
	return scanScanRow(r.db.QueryRowContext(ctx, q, id))
}

// List returns scans using LIMIT/OFFSET pagination and a total count.
func (r *ScanPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Scan], error) {
	const qCount = `SELECT COUNT(*) FROM scans`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + scanColumns + `
		FROM scans
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Scan, 0)
	for rows.Next() {
		s, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Scan]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a scan by ID. It does not return an error if the row does not exist.
func (r *ScanPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM scans WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScanRow(row rowScanner) (*model.Scan, error) {
	var s model.Scan
	var signals, images []byte
	if err := row.Scan(
		&s.ID,
		&s.Verdict,
		&s.RiskScore,
		&s.TopAIScore,
		&s.ModelID,
		&s.Bio,
		&signals,
		&images,
		&s.Degraded,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &s.Signals); err != nil {
			return nil, fmt.Errorf("unmarshal signals: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &s.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	return &s, nil
}

func marshalJSONCols(scan *model.Scan) (signals, images []byte, err error) {
	signals, err = json.Marshal(scan.Signals)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal signals: %w", err)
	}
	images, err = json.Marshal(scan.Images)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	return signals, images, nil
}
