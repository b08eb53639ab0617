package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"user-enrichment/internal/common/errors"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(&RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "12345", sampleUser("Jane Doe")))

	got, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane.doe@example.com", got.Email)
	assert.Equal(t, []string{"Engineering"}, got.Groups)
	assert.Equal(t, []string{"Slack"}, got.Applications)
	assert.True(t, got.Onboarded)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Put(context.Background(), "12345", sampleUser("Jane Doe")))

	assert.True(t, mr.Exists("user_onboarding:12345"))
}

func TestRedisStoreLastWriteWins(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "12345", sampleUser("First Write")))
	require.NoError(t, s.Put(ctx, "12345", sampleUser("Second Write")))

	got, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Second Write", got.Name)
}

func TestRedisStoreGetUnknownID(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestRedisStoreConnectionFailure(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))

	err = s.Put(context.Background(), "12345", sampleUser("Jane Doe"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))

	assert.Error(t, s.Health(context.Background()))
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore(&RedisConfig{Address: "127.0.0.1:1"}, nil)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
}
