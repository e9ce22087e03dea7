package services

import (
	"context"
	"fmt"

	"memories-backend/internal/models"
)

// Dashboard is the signed-in user's landing view
type Dashboard struct {
	User       *models.User      `json:"user"`
	Preference models.Preference `json:"preference"`
	Photos     []*models.Photo   `json:"photos"`
	Messages   []*models.Message `json:"messages"`
	Memories   []*models.Memory  `json:"memories"`
	Events     []*models.Event   `json:"events"`
}

// DashboardService assembles the dashboard from the newest entries of each collection
type DashboardService struct {
	users    UserStore
	photos   PhotoStore
	messages MessageStore
	memories MemoryStore
	events   EventStore
	recent   int
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(users UserStore, photos PhotoStore, messages MessageStore, memories MemoryStore, events EventStore, recent int) *DashboardService {
	return &DashboardService{
		users:    users,
		photos:   photos,
		messages: messages,
		memories: memories,
		events:   events,
		recent:   recent,
	}
}

// Get returns the dashboard for userID
func (s *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	d := &Dashboard{User: user, Preference: user.Preference()}
	if d.Photos, err = s.photos.List(ctx, s.recent); err != nil {
		return nil, fmt.Errorf("failed to list recent photos: %w", err)
	}
	if d.Messages, err = s.messages.List(ctx, s.recent); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	if d.Memories, err = s.memories.List(ctx, s.recent); err != nil {
		return nil, fmt.Errorf("failed to list recent memories: %w", err)
	}
	if d.Events, err = s.events.List(ctx, s.recent); err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	return d, nil
}
