// Package push registers this install's push token with the backend so
// server-side events can reach the device even when the app is closed.
package push

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hvaldez/taskmovil/internal/session"
)

// keyDeviceID is the durable storage key for the install identifier.
const keyDeviceID = "push_device_id"

// API is the slice of the remote client the registrar needs.
type API interface {
	SavePushToken(ctx context.Context, pushToken string) error
}

// Registrar obtains a stable per-install identifier and registers it as
// this device's push token. Registration is best-effort: the client
// works without it, alerts are just limited to polling.
type Registrar struct {
	api   API
	store session.Store
	log   *slog.Logger
}

// NewRegistrar creates a registrar persisting the install id in store.
func NewRegistrar(client API, store session.Store, log *slog.Logger) *Registrar {
	return &Registrar{api: client, store: store, log: log}
}

// Register sends the device token to the backend, generating and
// persisting one first if this install does not have one yet.
func (r *Registrar) Register(ctx context.Context) error {
	deviceID, err := r.deviceID()
	if err != nil {
		return err
	}

	if err := r.api.SavePushToken(ctx, deviceID); err != nil {
		return fmt.Errorf("registering push token: %w", err)
	}

	r.log.Info("push token registered", "device", deviceID)
	return nil
}

// deviceID loads the persisted install identifier, creating it on
// first use.
func (r *Registrar) deviceID() (string, error) {
	id, err := r.store.Get(keyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && err != session.ErrNotFound {
		return "", fmt.Errorf("reading device id: %w", err)
	}

	id = uuid.NewString()
	if err := r.store.Set(keyDeviceID, id); err != nil {
		return "", fmt.Errorf("persisting device id: %w", err)
	}
	return id, nil
}
