package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClient_FailsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeleteMatching(ctx, "k*"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))

	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &dst))
	c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute)
}

func TestUnreachableRedis_ReadsAsMiss(t *testing.T) {
	// Nothing listens on port 1; every command fails fast.
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeleteMatching(ctx, "k*"))
}
