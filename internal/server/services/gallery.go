package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pixkeeper/internal/server/storage"
)

// GalleryItem pairs a record with a short-lived download URL.
type GalleryItem struct {
	Record *models.ImageRecord
	URL    string
}

// Download is an opened image. Callers must close Object.Body.
type Download struct {
	Object   *storage.Object
	FileName string
}

// GalleryService keeps the Image Index and the object store consistent.
// Upload writes bytes before the row; Delete removes the row and the bytes
// in one transaction so a row never points at missing bytes.
type GalleryService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	store        storage.ObjectStore
	presignTTL   time.Duration
	deletePolicy string
	logger       logging.Logger
	newID        func() string
}

func NewGalleryService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, logger logging.Logger) *GalleryService {
	return &GalleryService{
		db:           db,
		repomanager:  m,
		store:        store,
		presignTTL:   cfg.PresignTTL,
		deletePolicy: cfg.DeletePolicy,
		logger:       logger.With("module", "gallery"),
		newID:        uuid.NewString,
	}
}

// List returns every image, newest first, each with a presigned URL.
// Records whose URL cannot be signed are left out.
func (s *GalleryService) List(ctx context.Context, caller *auth.Identity) ([]GalleryItem, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}

	records, err := s.repomanager.Images(s.db).ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing images: %w", common.ErrorUpstream, err)
	}

	items := make([]GalleryItem, 0, len(records))
	for _, rec := range records {
		url, err := s.store.PresignGet(ctx, rec.StoragePath, s.presignTTL)
		if err != nil {
			s.logger.Warn(ctx, "skipping image, presign failed", "storage_path", rec.StoragePath, "error", err)
			continue
		}
		items = append(items, GalleryItem{Record: rec, URL: url})
	}
	return items, nil
}

// Upload stores data under the caller's namespace and records it. A second
// upload of the same file name replaces the first.
func (s *GalleryService) Upload(ctx context.Context, caller *auth.Identity, fileName, contentType string, data []byte) (*models.ImageRecord, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", common.ErrorValidation)
	}

	base := baseName(fileName)
	if base == "" {
		return nil, fmt.Errorf("%w: invalid file name %q", common.ErrorValidation, fileName)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	key := StoragePath(caller.Username, base)

	repo := s.repomanager.Images(s.db)
	existed := true
	if _, err := repo.GetByPath(ctx, key); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: checking %s: %w", common.ErrorUpstream, key, err)
		}
		existed = false
	}

	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUpstream, err)
	}

	rec := &models.ImageRecord{
		ID:          s.newID(),
		FileName:    base,
		StoragePath: key,
		PublicURL:   s.store.PublicURL(key),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedBy:  caller.Username,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		if !existed {
			if rmErr := s.store.Remove(ctx, key); rmErr != nil {
				s.logger.Error(ctx, "compensating delete failed", "storage_path", key, "error", rmErr)
			}
		}
		return nil, fmt.Errorf("%w: recording %s: %w", common.ErrorUpstream, key, err)
	}

	s.logger.Info(ctx, "image uploaded", "storage_path", key, "bytes", rec.SizeBytes, "uploaded_by", caller.Username)
	return rec, nil
}

// Download opens the object stored at storagePath.
func (s *GalleryService) Download(ctx context.Context, caller *auth.Identity, storagePath string) (*Download, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	if !validStoragePath(storagePath) {
		return nil, fmt.Errorf("%w: invalid storage path", common.ErrorValidation)
	}

	obj, err := s.store.Get(ctx, storagePath)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorUpstream, err)
	}
	return &Download{Object: obj, FileName: path.Base(storagePath)}, nil
}

// Delete removes the record and its object. If the object cannot be
// removed the record is kept.
func (s *GalleryService) Delete(ctx context.Context, caller *auth.Identity, storagePath string) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	if !validStoragePath(storagePath) {
		return fmt.Errorf("%w: invalid storage path", common.ErrorValidation)
	}

	removed := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Images(tx)

		if s.deletePolicy == common.DeletePolicyOwner && !caller.IsAdmin {
			rec, err := repo.GetByPath(ctx, storagePath)
			if err != nil {
				return err
			}
			if !strings.EqualFold(rec.UploadedBy, caller.Username) {
				return common.ErrorForbidden
			}
		}

		if err := repo.DeleteByPath(ctx, storagePath); err != nil {
			return err
		}
		if err := s.store.Remove(ctx, storagePath); err != nil {
			return fmt.Errorf("%w: %w", common.ErrorUpstream, err)
		}
		removed = true
		return nil
	})
	if err != nil {
		if removed {
			// Only the commit can fail here: the row survives without its object.
			s.logger.Error(ctx, "object removed but record delete not committed", "storage_path", storagePath, "error", err)
		}
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorForbidden) || errors.Is(err, common.ErrorUpstream) {
			return err
		}
		return fmt.Errorf("%w: deleting %s: %w", common.ErrorUpstream, storagePath, err)
	}

	s.logger.Info(ctx, "image deleted", "storage_path", storagePath, "deleted_by", caller.Username)
	return nil
}

// StoragePath is the object key for fileName uploaded by username.
func StoragePath(username, fileName string) string {
	return strings.ToLower(username) + "/" + fileName
}

// baseName strips any directory part a browser may send. It returns ""
// for names that cannot be stored.
func baseName(fileName string) string {
	b := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	switch b {
	case "", ".", "..", "/":
		return ""
	}
	return b
}

func validStoragePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
