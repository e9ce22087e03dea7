package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"
	"memories-backend/internal/geo"
	"memories-backend/internal/memstore"
	"memories-backend/internal/models"

	"github.com/google/go-cmp/cmp"
)

type fakeGeocoder struct {
	places []geo.Place
}

func (g fakeGeocoder) Geocode(ctx context.Context, query string) ([]geo.Place, error) {
	if query == "" {
		return nil, apperr.Required("query")
	}
	return g.places, nil
}

var seoul = config.MapConfig{CenterLat: 37.5665, CenterLng: 126.9780, Zoom: 11, KakaoKey: "kakao-js"}

func TestCreateMemoryRequiresLocation(t *testing.T) {
	ctx := context.Background()
	memories := memstore.NewMemories()
	svc := NewMemoryService(memories, nil, nil, seoul, 20)

	in := MemoryInput{Title: "First date", Date: "2023-04-01", Description: "Han river picnic"}
	_, err := svc.Create(ctx, in)
	var validationErr *apperr.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Reason != apperr.ReasonLocationRequired {
		t.Fatalf("Create() without location error = %v, want location-required", err)
	}

	in.Location = &models.Location{Lat: 37.52, Lng: 126.93}
	m, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.Category != models.DefaultMemoryCategory || m.Date.String() != "2023-04-01" {
		t.Errorf("memory = %+v, want default category and date 2023-04-01", m)
	}

	in.Location = &models.Location{Lat: 120, Lng: 0}
	if _, err := svc.Create(ctx, in); !errors.As(err, &validationErr) || validationErr.Reason != apperr.ReasonInvalid {
		t.Fatalf("Create() off-globe error = %v, want invalid", err)
	}

	in.Location = &models.Location{Lat: 1, Lng: 1}
	in.Date = "April 1st"
	if _, err := svc.Create(ctx, in); !errors.As(err, &validationErr) || validationErr.Field != "date" {
		t.Fatalf("Create() bad date error = %v, want invalid date", err)
	}
}

func TestUpdateMemory(t *testing.T) {
	ctx := context.Background()
	memories := memstore.NewMemories()
	changes := &recordingPublisher{}
	svc := NewMemoryService(memories, nil, changes, seoul, 20)

	m, err := svc.Create(ctx, MemoryInput{
		Title: "Cafe", Date: "2023-05-05", Category: "cafe", Description: "latte",
		Location: &models.Location{Lat: 37.5, Lng: 127.0},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	desc := "flat white"
	updated, err := svc.Update(ctx, m.ID, models.MemoryPatch{Description: &desc})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != desc || updated.Title != "Cafe" || updated.Category != "cafe" {
		t.Errorf("Update() = %+v, want only description changed", updated)
	}

	if _, err := svc.Update(ctx, m.ID, models.MemoryPatch{}); err == nil {
		t.Error("Update() with empty patch succeeded")
	}
	bad := "zoo"
	if _, err := svc.Update(ctx, m.ID, models.MemoryPatch{Category: &bad}); err == nil {
		t.Error("Update() with unknown category succeeded")
	}
	if _, err := svc.Update(ctx, "missing", models.MemoryPatch{Description: &desc}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update() of missing memory error = %v, want ErrNotFound", err)
	}

	want := []string{"memories:created:" + m.ID, "memories:updated:" + m.ID}
	if diff := cmp.Diff(want, changes.all()); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestListMemoriesOrder(t *testing.T) {
	ctx := context.Background()
	memories := memstore.NewMemories()
	svc := NewMemoryService(memories, nil, nil, seoul, 2)
	svc.now = steppingClock(baseTime, time.Second)

	for _, in := range []MemoryInput{
		{Title: "a", Date: "2023-01-01", Category: "movie"},
		{Title: "b", Date: "2023-03-01", Category: "movie"},
		{Title: "c", Date: "2023-03-01", Category: "travel"},
	} {
		in.Description = "d"
		in.Location = &models.Location{Lat: 1, Lng: 1}
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	w, err := svc.List(ctx, models.CategoryAll, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var titles []string
	for _, m := range w.Items {
		titles = append(titles, m.Title)
	}
	if diff := cmp.Diff([]string{"c", "b"}, titles); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if !w.HasMore || w.Total != 3 {
		t.Errorf("HasMore = %v, Total = %d; want true, 3", w.HasMore, w.Total)
	}
}

func TestMapConfigAndGeocode(t *testing.T) {
	ctx := context.Background()
	places := []geo.Place{{Address: "서울 중구", Location: models.Location{Lat: 37.56, Lng: 126.97}}}
	svc := NewMemoryService(memstore.NewMemories(), fakeGeocoder{places: places}, nil, seoul, 20)

	want := MapConfig{
		Center: models.Location{Lat: 37.5665, Lng: 126.9780},
		Zoom:   11,
		Providers: []MapProvider{
			{Name: MapProviderNaver},
			{Name: MapProviderKakao, Key: "kakao-js", Geocoding: true},
		},
	}
	if diff := cmp.Diff(want, svc.MapConfig()); diff != "" {
		t.Errorf("MapConfig() mismatch (-want +got):\n%s", diff)
	}

	got, err := svc.Geocode(ctx, "중구")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if diff := cmp.Diff(places, got); diff != "" {
		t.Errorf("Geocode() mismatch (-want +got):\n%s", diff)
	}

	noGeo := NewMemoryService(memstore.NewMemories(), nil, nil, seoul, 20)
	var externalErr *apperr.ExternalError
	if _, err := noGeo.Geocode(ctx, "중구"); !errors.As(err, &externalErr) {
		t.Errorf("Geocode() without geocoder error = %v, want ExternalError", err)
	}
}
