package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"memories-backend/internal/memstore"
	"memories-backend/internal/models"
)

var errWriteFailed = errors.New("write failed")

type recordingPublisher struct {
	mu      sync.Mutex
	changes []string
}

func (p *recordingPublisher) PublishChange(collection, action, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, collection+":"+action+":"+id)
}

func (p *recordingPublisher) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.changes...)
}

type sentAlert struct {
	Token string
	Title string
	Body  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, deviceToken, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentAlert{Token: deviceToken, Title: title, Body: body})
	return nil
}

type failingPhotos struct {
	*memstore.Photos
}

func (failingPhotos) Create(ctx context.Context, photo *models.Photo) error {
	return errWriteFailed
}

type failingMessages struct {
	*memstore.Messages
}

func (failingMessages) Create(ctx context.Context, msg *models.Message) error {
	return errWriteFailed
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// steppingClock returns start, start+step, start+2*step, ...
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func upload(name, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
