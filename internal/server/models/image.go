package models

import "time"

// ImageRecord describes an object in the gallery bucket. The bytes live in
// object storage under StoragePath; this row is the source of truth for
// which images exist and who uploaded them.
type ImageRecord struct {
	ID          string
	CreatedAt   time.Time
	FileName    string
	StoragePath string
	// PublicURL is the unsigned object URL. Listing hands out presigned
	// URLs computed per request instead.
	PublicURL   string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
}
