package services

import (
	"context"
	"fmt"
	"strings"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// PreferenceService loads and saves per-user display preferences
type PreferenceService struct {
	users UserStore
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(users UserStore) *PreferenceService {
	return &PreferenceService{users: users}
}

// Load returns the user's preference; fields never stored fall back to the defaults
func (s *PreferenceService) Load(ctx context.Context, userID string) (models.Preference, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.DefaultPreference, fmt.Errorf("failed to load preferences: %w", err)
	}
	return user.Preference(), nil
}

// Save merges patch into the stored preference, leaving nil fields untouched,
// and returns the resulting preference
func (s *PreferenceService) Save(ctx context.Context, userID string, patch models.PreferencePatch) (models.Preference, error) {
	if patch.Empty() {
		return models.DefaultPreference, apperr.Invalid("preferences", apperr.ReasonUnchanged)
	}
	if err := s.users.UpdatePreferences(ctx, userID, patch); err != nil {
		return models.DefaultPreference, fmt.Errorf("failed to save preferences: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Preferences saved")
	return s.Load(ctx, userID)
}

// SetPushToken registers the device token used for push alerts; an empty
// token unregisters the device
func (s *PreferenceService) SetPushToken(ctx context.Context, userID, token string) error {
	var pushToken *string
	if token = strings.TrimSpace(token); token != "" {
		pushToken = &token
	}
	if err := s.users.UpdatePushToken(ctx, userID, pushToken); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}

	log.Info().Str("user_id", userID).Bool("registered", pushToken != nil).Msg("Push token updated")
	return nil
}
