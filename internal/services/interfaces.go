package services

import (
	"context"
	"io"
	"time"

	"memories-backend/internal/geo"
	"memories-backend/internal/models"
)

// UserStore persists user documents
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, name, email *string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdatePreferences(ctx context.Context, id string, patch models.PreferencePatch) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	ListPushTokens(ctx context.Context, excludeUserID string) ([]string, error)
}

// TokenStore records revoked tokens
type TokenStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PhotoStore persists photo documents
type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	List(ctx context.Context, limit int) ([]*models.Photo, error)
	UpdateDescription(ctx context.Context, id, description string) error
	Delete(ctx context.Context, id string) error
}

// MessageStore persists message documents
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, limit int) ([]*models.Message, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore persists map memories
type MemoryStore interface {
	Create(ctx context.Context, m *models.Memory) error
	GetByID(ctx context.Context, id string) (*models.Memory, error)
	List(ctx context.Context, limit int) ([]*models.Memory, error)
	Update(ctx context.Context, id string, patch models.MemoryPatch) error
}

// EventStore persists timeline events
type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context, limit int) ([]*models.Event, error)
}

// BlobStore stores uploaded files
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	KeyFromURL(objectURL string) (string, bool)
}

// ChangePublisher is told about every successful write so connected clients can re-fetch
type ChangePublisher interface {
	PublishChange(collection, action, id string)
}

// Geocoder resolves free-text addresses
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]geo.Place, error)
}

// Notifier delivers push alerts
type Notifier interface {
	Notify(ctx context.Context, deviceToken, title, body string) error
}

// Upload is an attached file of a create request
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Collection names used in change notifications
const (
	CollectionPhotos   = "photos"
	CollectionMessages = "messages"
	CollectionMemories = "memories"
	CollectionEvents   = "events"
	CollectionUsers    = "users"
)

// Change actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type nopPublisher struct{}

func (nopPublisher) PublishChange(collection, action, id string) {}

func publisherOrNop(p ChangePublisher) ChangePublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
