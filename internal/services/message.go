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

// MessageInput is a new message
type MessageInput struct {
	Title    string
	Content  string
	Category string
	Image    *Upload
}

// MessageService handles message-related business logic
type MessageService struct {
	messages MessageStore
	users    UserStore
	blobs    BlobStore
	notifier Notifier
	changes  ChangePublisher
	pageSize int
	now      func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, users UserStore, blobs BlobStore, notifier Notifier, changes ChangePublisher, pageSize int) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		blobs:    blobs,
		notifier: notifier,
		changes:  publisherOrNop(changes),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// List returns one page of messages of category, newest first
func (s *MessageService) List(ctx context.Context, category string, page int) (listing.Window[*models.Message], error) {
	if err := checkFilter(category, models.MessageCategories); err != nil {
		return listing.Window[*models.Message]{}, err
	}

	messages, err := s.messages.List(ctx, 0)
	if err != nil {
		return listing.Window[*models.Message]{}, fmt.Errorf("failed to list messages: %w", err)
	}

	messages = listing.Filter(messages, category, func(m *models.Message) string { return m.Category })
	listing.SortDesc(messages, func(m *models.Message) time.Time { return m.Date })
	return listing.Paginate(messages, page, s.pageSize), nil
}

// Create stores the attached image, writes the message and alerts the other users
func (s *MessageService) Create(ctx context.Context, authorID string, in MessageInput) (*models.Message, error) {
	if err := required("title", in.Title, "content", in.Content); err != nil {
		return nil, err
	}
	category, err := resolveCategory(in.Category, models.DefaultMessageCategory, models.MessageCategories)
	if err != nil {
		return nil, err
	}

	now := s.now()
	url, key, err := storeImage(ctx, s.blobs, CollectionMessages, now, in.Image)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Category:   category,
		ImageURL:   url,
		StorageKey: key,
		AuthorID:   authorID,
		Date:       now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if key != "" {
			logOrphan(CollectionMessages, key, err)
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	log.Info().Str("message_id", msg.ID).Str("user_id", authorID).Msg("Message created")
	s.changes.PublishChange(CollectionMessages, ActionCreated, msg.ID)
	s.alert(ctx, authorID, msg)
	return msg, nil
}

// alert pushes the new message to every other user who wants notifications
func (s *MessageService) alert(ctx context.Context, authorID string, msg *models.Message) {
	tokens, err := s.users.ListPushTokens(ctx, authorID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list push tokens")
		return
	}
	for _, token := range tokens {
		if err := s.notifier.Notify(ctx, token, "New message", msg.Title); err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to send push alert")
		}
	}
}

// Delete removes the attached image and then the message. Nothing happens
// unless confirmed is set.
func (s *MessageService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return apperr.ErrConfirmationRequired
	}

	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}
	if err := deleteBlob(ctx, s.blobs, msg.StorageKey, msg.ImageURL); err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	log.Info().Str("message_id", id).Msg("Message deleted")
	s.changes.PublishChange(CollectionMessages, ActionDeleted, id)
	return nil
}
