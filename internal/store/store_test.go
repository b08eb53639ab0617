package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/enrichment"
)

func sampleUser(name string) *enrichment.EnrichedUser {
	return &enrichment.EnrichedUser{
		ID:           "12345",
		Name:         name,
		Email:        "jane.doe@example.com",
		Groups:       []string{"Engineering"},
		Applications: []string{"Slack"},
		Onboarded:    true,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "12345", sampleUser("Jane Doe")))

	got, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, []string{"Engineering"}, got.Groups)
	assert.True(t, got.Onboarded)
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "12345", sampleUser("First Write")))
	require.NoError(t, s.Put(ctx, "12345", sampleUser("Second Write")))

	got, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Second Write", got.Name)
}

func TestMemoryStoreGetUnknownID(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestMemoryStorePutValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, s.Put(ctx, "", sampleUser("Jane Doe")))
	assert.Error(t, s.Put(ctx, "12345", nil))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	original := sampleUser("Jane Doe")
	require.NoError(t, s.Put(ctx, "12345", original))
	original.Name = "Mutated After Put"

	got, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)

	got.Name = "Mutated After Get"
	again, err := s.Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again.Name)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("user-%d", i%10)
		go func(id string) {
			defer wg.Done()
			_ = s.Put(ctx, id, sampleUser("Jane Doe"))
		}(id)
		go func(id string) {
			defer wg.Done()
			_, _ = s.Get(ctx, id)
		}(id)
	}
	wg.Wait()

	require.NoError(t, s.Health(ctx))
	require.NoError(t, s.Close())
}
