package notify

import (
	"context"
	"errors"
	"testing"

	"memories-backend/internal/config"
)

func TestNopDiscards(t *testing.T) {
	if err := (Nop{}).Notify(context.Background(), "token", "title", "body"); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
}

func TestNewAPNsNotifierMissingKey(t *testing.T) {
	_, err := NewAPNsNotifier(config.APNsConfig{KeyPath: "testdata/missing.p8", KeyID: "K", TeamID: "T", Topic: "app"})
	if err == nil {
		t.Fatal("NewAPNsNotifier() error = nil, want error for missing key file")
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("NewAPNsNotifier() error %v does not wrap the cause", err)
	}
}
