package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/listing"
	"memories-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GalleryService handles photo-related business logic
type GalleryService struct {
	photos   PhotoStore
	blobs    BlobStore
	changes  ChangePublisher
	pageSize int
	now      func() time.Time
}

// NewGalleryService creates a new gallery service
func NewGalleryService(photos PhotoStore, blobs BlobStore, changes ChangePublisher, pageSize int) *GalleryService {
	return &GalleryService{
		photos:   photos,
		blobs:    blobs,
		changes:  publisherOrNop(changes),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// List returns one page of photos of category, newest first. Every call
// first drops photo documents whose blob no longer exists.
func (s *GalleryService) List(ctx context.Context, category string, page int) (listing.Window[*models.Photo], error) {
	if err := checkFilter(category, models.PhotoCategories); err != nil {
		return listing.Window[*models.Photo]{}, err
	}

	photos, err := s.sweep(ctx)
	if err != nil {
		return listing.Window[*models.Photo]{}, err
	}

	photos = listing.Filter(photos, category, func(p *models.Photo) string { return p.Category })
	listing.SortDesc(photos, func(p *models.Photo) time.Time { return p.Date })
	return listing.Paginate(photos, page, s.pageSize), nil
}

// sweep fetches every photo and deletes those whose blob is missing. A probe
// that fails for any other reason keeps the photo.
func (s *GalleryService) sweep(ctx context.Context) ([]*models.Photo, error) {
	all, err := s.photos.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	kept := make([]*models.Photo, 0, len(all))
	for _, photo := range all {
		key := photo.StorageKey
		if key == "" {
			var ok bool
			if key, ok = s.blobs.KeyFromURL(photo.URL); !ok {
				kept = append(kept, photo)
				continue
			}
		}

		exists, err := s.blobs.Exists(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("photo_id", photo.ID).Msg("Failed to probe photo blob")
			kept = append(kept, photo)
			continue
		}
		if exists {
			kept = append(kept, photo)
			continue
		}

		if err := s.photos.Delete(ctx, photo.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			log.Error().Err(err).Str("photo_id", photo.ID).Msg("Failed to delete photo with missing blob")
			continue
		}
		log.Info().Str("photo_id", photo.ID).Str("key", key).Msg("Removed photo with missing blob")
		s.changes.PublishChange(CollectionPhotos, ActionDeleted, photo.ID)
	}
	return kept, nil
}

// Upload stores each file and creates its photo document, one file at a
// time. It stops at the first failure and returns the photos created so far.
func (s *GalleryService) Upload(ctx context.Context, authorID, category string, files []Upload) ([]*models.Photo, error) {
	category, err := resolveCategory(category, models.DefaultPhotoCategory, models.PhotoCategories)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.Required("files")
	}

	created := make([]*models.Photo, 0, len(files))
	for i := range files {
		now := s.now()
		url, key, err := storeImage(ctx, s.blobs, CollectionPhotos, now, &files[i])
		if err != nil {
			return created, err
		}

		photo := &models.Photo{
			ID:         uuid.New().String(),
			URL:        url,
			StorageKey: key,
			Title:      titleFromFilename(files[i].Filename),
			Category:   category,
			AuthorID:   authorID,
			Date:       now,
		}
		if err := s.photos.Create(ctx, photo); err != nil {
			logOrphan(CollectionPhotos, key, err)
			return created, fmt.Errorf("failed to create photo: %w", err)
		}

		log.Info().Str("photo_id", photo.ID).Str("user_id", authorID).Msg("Photo uploaded")
		s.changes.PublishChange(CollectionPhotos, ActionCreated, photo.ID)
		created = append(created, photo)
	}
	return created, nil
}

// CanSaveDescription reports whether an edited description may be saved:
// it must be non-empty and differ from the stored one
func CanSaveDescription(stored, edited string) bool {
	return strings.TrimSpace(edited) != "" && edited != stored
}

// UpdateDescription replaces the description of a photo
func (s *GalleryService) UpdateDescription(ctx context.Context, id, description string) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	if !CanSaveDescription(photo.Description, description) {
		if strings.TrimSpace(description) == "" {
			return nil, apperr.Required("description")
		}
		return nil, apperr.Invalid("description", apperr.ReasonUnchanged)
	}

	if err := s.photos.UpdateDescription(ctx, id, description); err != nil {
		return nil, fmt.Errorf("failed to update description: %w", err)
	}
	photo.Description = description

	s.changes.PublishChange(CollectionPhotos, ActionUpdated, id)
	return photo, nil
}

// Delete removes the blob and then the photo document. Nothing happens
// unless confirmed is set.
func (s *GalleryService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return apperr.ErrConfirmationRequired
	}

	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}
	if err := deleteBlob(ctx, s.blobs, photo.StorageKey, photo.URL); err != nil {
		return err
	}
	if err := s.photos.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	log.Info().Str("photo_id", id).Msg("Photo deleted")
	s.changes.PublishChange(CollectionPhotos, ActionDeleted, id)
	return nil
}
