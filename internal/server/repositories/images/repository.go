// Package images declares the Image Index: the rows that say which objects
// exist in the gallery bucket and who uploaded them.
package images

import (
	"context"

	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

type Repository interface {
	// Upsert inserts rec or, when a row with the same storage path exists,
	// replaces its metadata. rec.ID and rec.CreatedAt are set to the stored values.
	Upsert(ctx context.Context, rec *models.ImageRecord) error
	GetByPath(ctx context.Context, storagePath string) (*models.ImageRecord, error)
	// ListAll returns every record, newest first.
	ListAll(ctx context.Context) ([]*models.ImageRecord, error)
	// DeleteByPath removes the row; common.ErrorNotFound when none matched.
	DeleteByPath(ctx context.Context, storagePath string) error
}
