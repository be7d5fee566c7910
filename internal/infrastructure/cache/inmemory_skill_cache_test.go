package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySkillCache_GetSet(t *testing.T) {
	c := NewInMemorySkillCache()
	defer c.Close()
	ctx := context.Background()

	libraryID := uuid.New()
	content := skill.Content{
		SkillID: uuid.New(),
		Name:    "Refund policy",
		Body:    "Refunds within thirty days.",
	}

	t.Run("miss before set", func(t *testing.T) {
		_, ok := c.Get(ctx, libraryID, content.SkillID)
		assert.False(t, ok)
	})

	t.Run("hit after set", func(t *testing.T) {
		c.Set(ctx, libraryID, content, time.Minute)

		got, ok := c.Get(ctx, libraryID, content.SkillID)
		require.True(t, ok)
		assert.Equal(t, content, *got)
	})

	t.Run("miss under wrong library", func(t *testing.T) {
		_, ok := c.Get(ctx, uuid.New(), content.SkillID)
		assert.False(t, ok)
	})

	t.Run("expired entry misses", func(t *testing.T) {
		expired := skill.Content{SkillID: uuid.New(), Name: "Old", Body: "Old."}
		c.Set(ctx, libraryID, expired, -time.Second)

		_, ok := c.Get(ctx, libraryID, expired.SkillID)
		assert.False(t, ok)
	})
}

func TestInMemorySkillCache_InvalidateLibrary(t *testing.T) {
	c := NewInMemorySkillCache()
	defer c.Close()
	ctx := context.Background()

	libraryA := uuid.New()
	libraryB := uuid.New()
	inA := skill.Content{SkillID: uuid.New(), Name: "A", Body: "a"}
	inB := skill.Content{SkillID: uuid.New(), Name: "B", Body: "b"}

	c.Set(ctx, libraryA, inA, time.Minute)
	c.Set(ctx, libraryB, inB, time.Minute)
	require.Equal(t, 2, c.Size())

	require.NoError(t, c.InvalidateLibrary(ctx, libraryA))

	_, ok := c.Get(ctx, libraryA, inA.SkillID)
	assert.False(t, ok)
	_, ok = c.Get(ctx, libraryB, inB.SkillID)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestInMemorySkillCache_Cleanup(t *testing.T) {
	c := NewInMemorySkillCache()
	defer c.Close()
	ctx := context.Background()

	libraryID := uuid.New()
	c.Set(ctx, libraryID, skill.Content{SkillID: uuid.New()}, -time.Second)
	c.Set(ctx, libraryID, skill.Content{SkillID: uuid.New()}, time.Minute)
	require.Equal(t, 2, c.Size())

	c.cleanup()
	assert.Equal(t, 1, c.Size())
}

func TestInMemorySkillCache_CloseIsIdempotent(t *testing.T) {
	c := NewInMemorySkillCache()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestNoopSkillCache(t *testing.T) {
	c := NewNoopSkillCache()
	ctx := context.Background()

	libraryID := uuid.New()
	content := skill.Content{SkillID: uuid.New(), Name: "X", Body: "x"}

	c.Set(ctx, libraryID, content, time.Minute)
	_, ok := c.Get(ctx, libraryID, content.SkillID)
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateLibrary(ctx, libraryID))
}
