package push

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvaldez/taskmovil/internal/session"
)

type memStore struct {
	values map[string]string
}

func (s *memStore) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}

type fakePushAPI struct {
	tokens []string
	err    error
}

func (f *fakePushAPI) SavePushToken(ctx context.Context, pushToken string) error {
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, pushToken)
	return nil
}

func TestRegisterCreatesStableDeviceID(t *testing.T) {
	store := &memStore{values: make(map[string]string)}
	client := &fakePushAPI{}
	r := NewRegistrar(client, store, slog.New(slog.DiscardHandler))

	require.NoError(t, r.Register(context.Background()))
	require.Len(t, client.tokens, 1)

	// The generated id is a valid UUID and is persisted.
	_, err := uuid.Parse(client.tokens[0])
	require.NoError(t, err)
	assert.Equal(t, client.tokens[0], store.values[keyDeviceID])

	// A second registration reuses the same id.
	require.NoError(t, r.Register(context.Background()))
	assert.Equal(t, client.tokens[0], client.tokens[1])
}

func TestRegisterPropagatesBackendFailure(t *testing.T) {
	store := &memStore{values: make(map[string]string)}
	client := &fakePushAPI{err: errors.New("unavailable")}
	r := NewRegistrar(client, store, slog.New(slog.DiscardHandler))

	assert.Error(t, r.Register(context.Background()))
}
