package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "memories-backend/internal/config"
)

func TestObjectBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  appconfig.AWSConfig
		want string
	}{
		{
			name: "aws",
			cfg:  appconfig.AWSConfig{S3Bucket: "memories", Region: "ap-northeast-2"},
			want: "https://memories.s3.ap-northeast-2.amazonaws.com",
		},
		{
			name: "compatible endpoint",
			cfg:  appconfig.AWSConfig{S3Bucket: "memories", Endpoint: "https://s3.example.com/"},
			want: "https://s3.example.com/memories",
		},
		{
			name: "public url wins",
			cfg:  appconfig.AWSConfig{S3Bucket: "memories", Endpoint: "https://s3.example.com", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectBaseURL(tt.cfg); got != tt.want {
				t.Fatalf("objectBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyRoundTripsThroughURL(t *testing.T) {
	base := "https://cdn.example.com"
	key := "photos/1714550400000_beach day.jpg"

	objectURL := joinURL(base, key)
	if objectURL != "https://cdn.example.com/photos/1714550400000_beach%20day.jpg" {
		t.Fatalf("joinURL() = %q", objectURL)
	}

	got, ok := keyFromURL(base, objectURL)
	if !ok || got != key {
		t.Fatalf("keyFromURL() = (%q, %v), want (%q, true)", got, ok, key)
	}

	if _, ok := keyFromURL(base, "https://elsewhere.example.com/photo.jpg"); ok {
		t.Fatal("keyFromURL() accepted a foreign URL")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("/blobs/")

	objectURL, err := store.Upload(ctx, "photos/1_a.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if objectURL != "/blobs/photos/1_a.jpg" {
		t.Fatalf("Upload() url = %q", objectURL)
	}

	exists, _ := store.Exists(ctx, "photos/1_a.jpg")
	if !exists {
		t.Fatal("Exists() = false after upload")
	}

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, objectURL, nil))
	body, _ := io.ReadAll(rec.Result().Body)
	if rec.Code != http.StatusOK || string(body) != "jpeg-bytes" {
		t.Fatalf("ServeHTTP() = %d %q", rec.Code, body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("Content-Type = %q, want image/jpeg", ct)
	}

	if err := store.Delete(ctx, "photos/1_a.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, _ = store.Exists(ctx, "photos/1_a.jpg")
	if exists {
		t.Fatal("Exists() = true after delete")
	}

	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, objectURL, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ServeHTTP() after delete = %d, want 404", rec.Code)
	}
}
