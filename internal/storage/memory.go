package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"memories-backend/internal/apperr"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory and serves them over HTTP under
// its base path. It backs local development and tests.
type MemoryStore struct {
	basePath string

	mu      sync.RWMutex
	objects map[string]object
}

// NewMemoryStore creates an empty store whose URLs start with basePath
func NewMemoryStore(basePath string) *MemoryStore {
	return &MemoryStore{
		basePath: strings.TrimRight(basePath, "/"),
		objects:  make(map[string]object),
	}
}

// Upload stores body under key
func (m *MemoryStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", apperr.Storage("upload", key, err)
	}

	m.mu.Lock()
	m.objects[key] = object{data: data, contentType: contentType}
	m.mu.Unlock()

	return m.URL(key), nil
}

// Delete removes key; deleting a missing key is not an error
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	return ok, nil
}

// URL returns the served URL of key
func (m *MemoryStore) URL(key string) string {
	return joinURL(m.basePath, key)
}

// KeyFromURL recovers the key from a URL produced by URL
func (m *MemoryStore) KeyFromURL(objectURL string) (string, bool) {
	return keyFromURL(m.basePath, objectURL)
}

// ServeHTTP serves stored objects
func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := m.KeyFromURL(r.URL.EscapedPath())
	if !ok {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	obj, found := m.objects[key]
	m.mu.RUnlock()
	if !found {
		http.NotFound(w, r)
		return
	}

	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(obj.data))
}
