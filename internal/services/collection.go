package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/listing"

	"github.com/rs/zerolog/log"
)

// resolveCategory applies the default for an empty category and rejects unknown ones
func resolveCategory(category, def string, allowed []string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return def, nil
	}
	for _, c := range allowed {
		if c == category {
			return category, nil
		}
	}
	return "", apperr.Invalid("category", apperr.ReasonInvalidCategory)
}

// checkFilter validates a list filter; empty means every category
func checkFilter(category string, allowed []string) error {
	if !listing.ValidFilter(category, allowed) {
		return apperr.Invalid("category", apperr.ReasonInvalidCategory)
	}
	return nil
}

// required checks name/value pairs and reports the first blank field
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperr.Required(pairs[i])
		}
	}
	return nil
}

// blobKey builds the object key <prefix>/<unixmilli>_<filename>
func blobKey(prefix string, now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return fmt.Sprintf("%s/%d_%s", prefix, now.UnixMilli(), name)
}

// titleFromFilename returns the file name up to its first dot
func titleFromFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if i := strings.Index(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// storeImage uploads an attached image and returns its URL and key. A nil
// upload stores nothing.
func storeImage(ctx context.Context, blobs BlobStore, prefix string, now time.Time, up *Upload) (string, string, error) {
	if up == nil {
		return "", "", nil
	}
	key := blobKey(prefix, now, up.Filename)
	url, err := blobs.Upload(ctx, key, up.Body, up.Size, up.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	return url, key, nil
}

// logOrphan records a blob left behind by a failed document write
func logOrphan(collection, key string, err error) {
	log.Warn().Err(err).Str("collection", collection).Str("key", key).Msg("Document write failed after upload, blob orphaned")
}

// deleteBlob removes the object behind key or, failing that, behind url
func deleteBlob(ctx context.Context, blobs BlobStore, key, url string) error {
	if key == "" && url != "" {
		key, _ = blobs.KeyFromURL(url)
	}
	if key == "" {
		return nil
	}
	if err := blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
