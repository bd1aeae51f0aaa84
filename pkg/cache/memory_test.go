package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "prompt:personas:", "cached")

	value, ok := c.Get(ctx, "prompt:personas:")
	assert.True(t, ok)
	assert.Equal(t, "cached", value)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "a", 1)
	c.Delete(ctx, "a")

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	_, okA := c.Get(ctx, "a")
	_, okB := c.Get(ctx, "b")
	assert.False(t, okA)
	assert.False(t, okB)
}
