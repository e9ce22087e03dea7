package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/memstore"
	"memories-backend/internal/models"
	"memories-backend/internal/storage"
)

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	events := memstore.NewEvents()
	blobs := storage.NewMemoryStore("/blobs")
	svc := NewTimelineService(events, blobs, nil, 10)
	svc.now = fixedClock(baseTime)

	e, err := svc.Create(ctx, EventInput{Title: "Anniversary", Date: "2024-02-14", Description: "one year", ImageURL: " https://example.com/a.jpg "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.Category != models.DefaultEventCategory || e.ImageURL != "https://example.com/a.jpg" || e.StorageKey != "" {
		t.Errorf("event = %+v, want default category and the given image URL", e)
	}

	img := upload("cake.jpg", "pixels")
	e, err = svc.Create(ctx, EventInput{Title: "Birthday", Date: "2024-03-01", Category: "special", Description: "cake", ImageURL: "ignored", Image: &img})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ImageURL != blobs.URL("events/1714564800000_cake.jpg") {
		t.Errorf("ImageURL = %q, want uploaded blob URL", e.ImageURL)
	}

	var validationErr *apperr.ValidationError
	if _, err := svc.Create(ctx, EventInput{Title: "x", Date: "2024-01-01"}); !errors.As(err, &validationErr) || validationErr.Field != "description" {
		t.Fatalf("missing description error = %v, want description required", err)
	}
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	events := memstore.NewEvents()
	svc := NewTimelineService(events, storage.NewMemoryStore("/blobs"), nil, 10)
	svc.now = steppingClock(baseTime, time.Second)

	for _, in := range []EventInput{
		{Title: "old", Date: "2020-01-01", Category: "travel"},
		{Title: "new", Date: "2024-01-01", Category: "travel"},
		{Title: "food", Date: "2022-01-01", Category: "food"},
	} {
		in.Description = "d"
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	w, err := svc.List(ctx, "travel", 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(w.Items) != 2 || w.Items[0].Title != "new" || w.Items[1].Title != "old" {
		t.Errorf("List(travel) = %+v, want new then old", w.Items)
	}
}
