package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
)

// countingSource counts loads of the wrapped catalog
type countingSource struct {
	cat   *catalog.Catalog
	err   error
	calls int
}

func (c *countingSource) Load(context.Context) (*catalog.Catalog, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.cat, nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client, *countingSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cat, err := catalog.New([]domain.Project{
		{Slug: "a", Name: "A", Tags: []string{"Go"}, Featured: true},
		{Slug: "b", Name: "B", Tags: []string{"Go", "Redis"}},
	}, []domain.Service{{Slug: "dev", Name: "Dev", Technologies: []string{"Go"}}})
	require.NoError(t, err)

	return mr, rdb, &countingSource{cat: cat}
}

func TestLoad_MissThenHit(t *testing.T) {
	mr, rdb, next := setup(t)
	src := New(next, rdb, "", time.Minute, nil)
	ctx := context.Background()

	cat, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists(DefaultKey))

	cached, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "second load is served from redis")
	assert.Equal(t, cat.Projects(), cached.Projects())
	assert.Equal(t, cat.Services(), cached.Services())
}

func TestLoad_Expires(t *testing.T) {
	mr, rdb, next := setup(t)
	src := New(next, rdb, "test:catalog", time.Minute, nil)
	ctx := context.Background()

	_, err := src.Load(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestLoad_SourceErrorNotCached(t *testing.T) {
	mr, rdb, next := setup(t)
	next.err = fmt.Errorf("fetch: %w", catalog.ErrSourceUnavailable)
	src := New(next, rdb, "", 0, nil)

	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrSourceUnavailable)
	assert.False(t, mr.Exists(DefaultKey))
}

func TestLoad_RedisDownFallsThrough(t *testing.T) {
	mr, rdb, next := setup(t)
	src := New(next, rdb, "", 0, nil)
	mr.Close()

	cat, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 1, next.calls)
}

func TestLoad_CorruptEntryIgnored(t *testing.T) {
	mr, rdb, next := setup(t)
	require.NoError(t, mr.Set(DefaultKey, "{not json"))
	src := New(next, rdb, "", 0, nil)

	cat, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 1, next.calls)
}

func TestInvalidate(t *testing.T) {
	mr, rdb, next := setup(t)
	src := New(next, rdb, "", 0, nil)
	ctx := context.Background()

	_, err := src.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, src.Invalidate(ctx))
	assert.False(t, mr.Exists(DefaultKey))

	_, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(context.Background()).Err())

	_, err = Connect("not a url")
	assert.Error(t, err)
}
