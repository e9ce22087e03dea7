package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/listing"
	"memories-backend/internal/models"
)

// Photos is an in-memory photo collection
type Photos struct {
	mu     sync.RWMutex
	photos map[string]models.Photo
}

// NewPhotos creates an empty photo collection
func NewPhotos() *Photos {
	return &Photos{photos: make(map[string]models.Photo)}
}

// Create creates a new photo
func (s *Photos) Create(ctx context.Context, photo *models.Photo) error {
	s.mu.Lock()
	s.photos[photo.ID] = *photo
	s.mu.Unlock()
	return nil
}

// GetByID retrieves a photo by ID
func (s *Photos) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	return &p, nil
}

// List retrieves photos newest first; a positive limit caps the result
func (s *Photos) List(ctx context.Context, n int) ([]*models.Photo, error) {
	s.mu.RLock()
	photos := make([]*models.Photo, 0, len(s.photos))
	for _, p := range s.photos {
		p := p
		photos = append(photos, &p)
	}
	s.mu.RUnlock()

	listing.SortDesc(photos, func(p *models.Photo) time.Time { return p.Date })
	return limit(photos, n), nil
}

// UpdateDescription updates the description of a photo
func (s *Photos) UpdateDescription(ctx context.Context, id, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	p.Description = description
	s.photos[id] = p
	return nil
}

// Delete removes a photo document
func (s *Photos) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	delete(s.photos, id)
	return nil
}

// Messages is an in-memory message collection
type Messages struct {
	mu       sync.RWMutex
	messages map[string]models.Message
}

// NewMessages creates an empty message collection
func NewMessages() *Messages {
	return &Messages{messages: make(map[string]models.Message)}
}

// Create creates a new message
func (s *Messages) Create(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	s.messages[msg.ID] = *msg
	s.mu.Unlock()
	return nil
}

// GetByID retrieves a message by ID
func (s *Messages) GetByID(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, apperr.ErrNotFound)
	}
	return &m, nil
}

// List retrieves messages newest first; a positive limit caps the result
func (s *Messages) List(ctx context.Context, n int) ([]*models.Message, error) {
	s.mu.RLock()
	messages := make([]*models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		m := m
		messages = append(messages, &m)
	}
	s.mu.RUnlock()

	listing.SortDesc(messages, func(m *models.Message) time.Time { return m.Date })
	return limit(messages, n), nil
}

// Delete removes a message document
func (s *Messages) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return fmt.Errorf("message %s: %w", id, apperr.ErrNotFound)
	}
	delete(s.messages, id)
	return nil
}

// Memories is an in-memory map memory collection
type Memories struct {
	mu       sync.RWMutex
	memories map[string]models.Memory
}

// NewMemories creates an empty memory collection
func NewMemories() *Memories {
	return &Memories{memories: make(map[string]models.Memory)}
}

// Create creates a new memory
func (s *Memories) Create(ctx context.Context, m *models.Memory) error {
	s.mu.Lock()
	s.memories[m.ID] = *m
	s.mu.Unlock()
	return nil
}

// GetByID retrieves a memory by ID
func (s *Memories) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memories[id]
	if !ok {
		return nil, fmt.Errorf("memory %s: %w", id, apperr.ErrNotFound)
	}
	return &m, nil
}

// List retrieves memories by date then creation time, newest first
func (s *Memories) List(ctx context.Context, n int) ([]*models.Memory, error) {
	s.mu.RLock()
	memories := make([]*models.Memory, 0, len(s.memories))
	for _, m := range s.memories {
		m := m
		memories = append(memories, &m)
	}
	s.mu.RUnlock()

	listing.SortDesc(memories, func(m *models.Memory) time.Time { return m.CreatedAt })
	listing.SortDesc(memories, func(m *models.Memory) time.Time { return m.Date.Time })
	return limit(memories, n), nil
}

// Update merges the non-nil fields of patch into the memory
func (s *Memories) Update(ctx context.Context, id string, patch models.MemoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok {
		return fmt.Errorf("memory %s: %w", id, apperr.ErrNotFound)
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Date != nil {
		m.Date = *patch.Date
	}
	if patch.Category != nil {
		m.Category = *patch.Category
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Location != nil {
		m.Location = *patch.Location
	}
	s.memories[id] = m
	return nil
}

// Events is an in-memory timeline
type Events struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

// NewEvents creates an empty timeline
func NewEvents() *Events {
	return &Events{events: make(map[string]models.Event)}
}

// Create creates a new event
func (s *Events) Create(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	s.events[e.ID] = *e
	s.mu.Unlock()
	return nil
}

// List retrieves events by date then creation time, newest first
func (s *Events) List(ctx context.Context, n int) ([]*models.Event, error) {
	s.mu.RLock()
	events := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		e := e
		events = append(events, &e)
	}
	s.mu.RUnlock()

	listing.SortDesc(events, func(e *models.Event) time.Time { return e.CreatedAt })
	listing.SortDesc(events, func(e *models.Event) time.Time { return e.Date.Time })
	return limit(events, n), nil
}
