package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.ImageRecord) error {
	query :=
		`INSERT INTO image_metadata (id, file_name, storage_path, public_url, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (storage_path)
		DO UPDATE SET
			file_name = EXCLUDED.file_name,
			public_url = EXCLUDED.public_url,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes,
			uploaded_by = EXCLUDED.uploaded_by,
			created_at = now()
		RETURNING id, created_at
		`

	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.FileName, rec.StoragePath, rec.PublicURL,
		rec.ContentType, rec.SizeBytes, rec.UploadedBy).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByPath(ctx context.Context, storagePath string) (*models.ImageRecord, error) {
	query :=
		`SELECT id, created_at, file_name, storage_path, public_url, content_type, size_bytes, uploaded_by
		FROM image_metadata
		WHERE storage_path = $1
		`

	rec := &models.ImageRecord{}
	err := r.db.QueryRowContext(ctx, query, storagePath).Scan(&rec.ID, &rec.CreatedAt, &rec.FileName,
		&rec.StoragePath, &rec.PublicURL, &rec.ContentType, &rec.SizeBytes, &rec.UploadedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.ImageRecord, error) {
	query :=
		`SELECT id, created_at, file_name, storage_path, public_url, content_type, size_bytes, uploaded_by
		FROM image_metadata
		ORDER BY created_at DESC
		`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	var result []*models.ImageRecord
	for rows.Next() {
		rec := &models.ImageRecord{}
		err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.FileName, &rec.StoragePath,
			&rec.PublicURL, &rec.ContentType, &rec.SizeBytes, &rec.UploadedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByPath(ctx context.Context, storagePath string) error {
	query := `DELETE FROM image_metadata WHERE storage_path = $1`

	res, err := r.db.ExecContext(ctx, query, storagePath)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 0:
		return common.ErrorNotFound
	case 1:
		return nil
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
