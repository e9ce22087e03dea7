package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"
	"memories-backend/internal/geo"
	"memories-backend/internal/listing"
	"memories-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Map rendering backends
const (
	MapProviderNaver = "naver"
	MapProviderKakao = "kakao"
)

// MapProvider is one selectable map backend
type MapProvider struct {
	Name      string `json:"name"`
	Key       string `json:"key,omitempty"`
	Geocoding bool   `json:"geocoding"`
}

// MapConfig is what the client needs to draw the memory map
type MapConfig struct {
	Center    models.Location `json:"center"`
	Zoom      int             `json:"zoom"`
	Providers []MapProvider   `json:"providers"`
}

// MemoryInput is a new map memory. Location is the pending location picked
// on the map or from a geocoding result.
type MemoryInput struct {
	Title       string           `json:"title"`
	Date        string           `json:"date"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Location    *models.Location `json:"location"`
}

// MemoryService handles map memories and geocoding
type MemoryService struct {
	memories MemoryStore
	geocoder Geocoder
	changes  ChangePublisher
	mapCfg   config.MapConfig
	pageSize int
	now      func() time.Time
}

// NewMemoryService creates a new memory service
func NewMemoryService(memories MemoryStore, geocoder Geocoder, changes ChangePublisher, mapCfg config.MapConfig, pageSize int) *MemoryService {
	return &MemoryService{
		memories: memories,
		geocoder: geocoder,
		changes:  publisherOrNop(changes),
		mapCfg:   mapCfg,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// List returns one page of memories of category, newest date first
func (s *MemoryService) List(ctx context.Context, category string, page int) (listing.Window[*models.Memory], error) {
	if err := checkFilter(category, models.MemoryCategories); err != nil {
		return listing.Window[*models.Memory]{}, err
	}

	memories, err := s.memories.List(ctx, 0)
	if err != nil {
		return listing.Window[*models.Memory]{}, fmt.Errorf("failed to list memories: %w", err)
	}

	memories = listing.Filter(memories, category, func(m *models.Memory) string { return m.Category })
	listing.SortDesc(memories, func(m *models.Memory) time.Time { return m.CreatedAt })
	listing.SortDesc(memories, func(m *models.Memory) time.Time { return m.Date.Time })
	return listing.Paginate(memories, page, s.pageSize), nil
}

func checkLocation(loc *models.Location) error {
	if loc == nil {
		return apperr.Invalid("location", apperr.ReasonLocationRequired)
	}
	if !loc.Valid() {
		return apperr.Invalid("location", apperr.ReasonInvalid)
	}
	return nil
}

// Create adds a memory at the pending location
func (s *MemoryService) Create(ctx context.Context, in MemoryInput) (*models.Memory, error) {
	if err := required("title", in.Title, "date", in.Date, "description", in.Description); err != nil {
		return nil, err
	}
	if err := checkLocation(in.Location); err != nil {
		return nil, err
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, apperr.Invalid("date", apperr.ReasonInvalid)
	}
	category, err := resolveCategory(in.Category, models.DefaultMemoryCategory, models.MemoryCategories)
	if err != nil {
		return nil, err
	}

	memory := &models.Memory{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Date:        date,
		Category:    category,
		Description: in.Description,
		Location:    *in.Location,
		CreatedAt:   s.now(),
	}
	if err := s.memories.Create(ctx, memory); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	log.Info().Str("memory_id", memory.ID).Msg("Memory created")
	s.changes.PublishChange(CollectionMemories, ActionCreated, memory.ID)
	return memory, nil
}

// Update merges the non-nil fields of patch into the memory
func (s *MemoryService) Update(ctx context.Context, id string, patch models.MemoryPatch) (*models.Memory, error) {
	if patch.Title == nil && patch.Date == nil && patch.Category == nil && patch.Description == nil && patch.Location == nil {
		return nil, apperr.Invalid("memory", apperr.ReasonUnchanged)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Required("title")
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, apperr.Required("date")
	}
	if patch.Category != nil {
		category, err := resolveCategory(*patch.Category, models.DefaultMemoryCategory, models.MemoryCategories)
		if err != nil {
			return nil, err
		}
		patch.Category = &category
	}
	if patch.Location != nil {
		if err := checkLocation(patch.Location); err != nil {
			return nil, err
		}
	}

	if err := s.memories.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}
	memory, err := s.memories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}

	s.changes.PublishChange(CollectionMemories, ActionUpdated, id)
	return memory, nil
}

// MapConfig returns the map center, zoom and the available backends
func (s *MemoryService) MapConfig() MapConfig {
	return MapConfig{
		Center: models.Location{Lat: s.mapCfg.CenterLat, Lng: s.mapCfg.CenterLng},
		Zoom:   s.mapCfg.Zoom,
		Providers: []MapProvider{
			{Name: MapProviderNaver, Key: s.mapCfg.NaverKey},
			{Name: MapProviderKakao, Key: s.mapCfg.KakaoKey, Geocoding: s.geocoder != nil},
		},
	}
}

// Geocode resolves a free-text address into candidate locations
func (s *MemoryService) Geocode(ctx context.Context, query string) ([]geo.Place, error) {
	if s.geocoder == nil {
		return nil, apperr.External("geocoding", fmt.Errorf("geocoding is not configured"))
	}
	places, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	return places, nil
}
