package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CategoryAll is the filter value that matches every category
const CategoryAll = "all"

// Categories accepted by each collection
var (
	PhotoCategories   = []string{"date", "travel", "food", "cafe", "special"}
	MessageCategories = []string{"love", "memory", "wish", "gratitude"}
	MemoryCategories  = []string{"restaurant", "cafe", "movie", "date", "travel", "special"}
	EventCategories   = []string{"date", "travel", "food", "cafe", "special", "event"}
)

// Default categories for newly created documents
const (
	DefaultPhotoCategory   = "date"
	DefaultMessageCategory = "love"
	DefaultMemoryCategory  = "date"
	DefaultEventCategory   = "event"
)

// User represents a member of the couple
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Disabled           bool      `json:"-"`
	EmailNotifications *bool     `json:"email_notifications,omitempty"`
	DarkMode           *bool     `json:"dark_mode,omitempty"`
	PushToken          *string   `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Preference is the resolved display preference of a user
type Preference struct {
	DarkMode           bool `json:"dark_mode"`
	EmailNotifications bool `json:"email_notifications"`
}

// DefaultPreference applies to any field missing from the stored user
var DefaultPreference = Preference{
	DarkMode:           false,
	EmailNotifications: true,
}

// Theme returns the display theme name for the preference
func (p Preference) Theme() string {
	if p.DarkMode {
		return "dark"
	}
	return "light"
}

// PreferencePatch is a partial preference update; nil fields are left untouched
type PreferencePatch struct {
	DarkMode           *bool `json:"dark_mode,omitempty"`
	EmailNotifications *bool `json:"email_notifications,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p PreferencePatch) Empty() bool {
	return p.DarkMode == nil && p.EmailNotifications == nil
}

// Preference resolves the stored flags against the defaults
func (u *User) Preference() Preference {
	pref := DefaultPreference
	if u.DarkMode != nil {
		pref.DarkMode = *u.DarkMode
	}
	if u.EmailNotifications != nil {
		pref.EmailNotifications = *u.EmailNotifications
	}
	return pref
}

// Photo represents a gallery photo stored in the blob store
type Photo struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	StorageKey  string    `json:"-"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AuthorID    string    `json:"author_id,omitempty"`
	Date        time.Time `json:"date"`
}

// Location is a map coordinate
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is on the globe
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Memory represents a map-pinned memory
type Memory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        Date      `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Location    Location  `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// MemoryPatch is a partial memory update
type MemoryPatch struct {
	Title       *string   `json:"title,omitempty"`
	Date        *Date     `json:"date,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// Message represents a note one partner leaves for the other
type Message struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	ImageURL   string    `json:"image_url,omitempty"`
	StorageKey string    `json:"-"`
	AuthorID   string    `json:"author_id,omitempty"`
	Date       time.Time `json:"date"`
}

// Event represents a timeline entry
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        Date      `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
