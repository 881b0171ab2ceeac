// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCache_RoundTripAndPersistence(t *testing.T) {
	dir := t.TempDir()

	c, err := OpenBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	c.Set("chain:1", []byte(`{"id":1}`), time.Hour)
	got, ok := c.Get("chain:1")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(got))
	require.NoError(t, c.Close())

	reopened, err := OpenBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, ok = reopened.Get("chain:1")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(got))
}

func TestBadgerCache_InMemoryOps(t *testing.T) {
	c, err := OpenBadgerCache("", zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), time.Hour)
	assert.Equal(t, 2, c.Stats().CurrentSize)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.Equal(t, "badger", c.Backend())
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestNew_Backends(t *testing.T) {
	c, closer, err := New(Config{Backend: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Backend())
	require.NoError(t, closer.Close())

	c, closer, err = New(Config{Backend: "none"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "none", c.Backend())
	require.NoError(t, closer.Close())

	c, closer, err = New(Config{Backend: "badger"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "badger", c.Backend())
	require.NoError(t, closer.Close())

	_, _, err = New(Config{Backend: "memcached"}, zerolog.Nop())
	assert.EqualError(t, err, "unsupported cache backend: memcached (supported: memory, redis, badger, none)")
}
