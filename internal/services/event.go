package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/listing"
	"memories-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventInput is a new timeline entry. Image takes precedence over ImageURL.
type EventInput struct {
	Title       string
	Date        string
	Category    string
	Description string
	ImageURL    string
	Image       *Upload
}

// TimelineService handles timeline events
type TimelineService struct {
	events   EventStore
	blobs    BlobStore
	changes  ChangePublisher
	pageSize int
	now      func() time.Time
}

// NewTimelineService creates a new timeline service
func NewTimelineService(events EventStore, blobs BlobStore, changes ChangePublisher, pageSize int) *TimelineService {
	return &TimelineService{
		events:   events,
		blobs:    blobs,
		changes:  publisherOrNop(changes),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// List returns one page of events of category, newest date first
func (s *TimelineService) List(ctx context.Context, category string, page int) (listing.Window[*models.Event], error) {
	if err := checkFilter(category, models.EventCategories); err != nil {
		return listing.Window[*models.Event]{}, err
	}

	events, err := s.events.List(ctx, 0)
	if err != nil {
		return listing.Window[*models.Event]{}, fmt.Errorf("failed to list events: %w", err)
	}

	events = listing.Filter(events, category, func(e *models.Event) string { return e.Category })
	listing.SortDesc(events, func(e *models.Event) time.Time { return e.CreatedAt })
	listing.SortDesc(events, func(e *models.Event) time.Time { return e.Date.Time })
	return listing.Paginate(events, page, s.pageSize), nil
}

// Create adds a timeline entry
func (s *TimelineService) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	if err := required("title", in.Title, "date", in.Date, "description", in.Description); err != nil {
		return nil, err
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, apperr.Invalid("date", apperr.ReasonInvalid)
	}
	category, err := resolveCategory(in.Category, models.DefaultEventCategory, models.EventCategories)
	if err != nil {
		return nil, err
	}

	now := s.now()
	url, key, err := storeImage(ctx, s.blobs, CollectionEvents, now, in.Image)
	if err != nil {
		return nil, err
	}
	if in.Image == nil {
		url = strings.TrimSpace(in.ImageURL)
	}

	event := &models.Event{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Date:        date,
		Category:    category,
		Description: in.Description,
		ImageURL:    url,
		StorageKey:  key,
		CreatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		if key != "" {
			logOrphan(CollectionEvents, key, err)
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info().Str("event_id", event.ID).Msg("Event created")
	s.changes.PublishChange(CollectionEvents, ActionCreated, event.ID)
	return event, nil
}
