// Package notify delivers push alerts to the partner's device.
package notify

import (
	"context"
	"fmt"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsNotifier sends alerts through Apple Push Notification service
type APNsNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNsNotifier creates a token-authenticated APNs client
func NewAPNsNotifier(cfg config.APNsConfig) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: cfg.Topic}, nil
}

// Notify sends an alert with title and body to deviceToken
func (n *APNsNotifier) Notify(ctx context.Context, deviceToken, title, body string) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}

	res, err := n.client.PushWithContext(ctx, notification)
	if err != nil {
		return apperr.External("apns", err)
	}
	if !res.Sent() {
		return apperr.External("apns", fmt.Errorf("notification rejected: %d %s", res.StatusCode, res.Reason))
	}
	return nil
}

// Nop discards notifications; it is used when push is not configured
type Nop struct{}

// Notify does nothing
func (Nop) Notify(ctx context.Context, deviceToken, title, body string) error { return nil }
