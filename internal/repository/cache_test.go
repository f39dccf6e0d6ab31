package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb, 10*time.Minute), mr
}

type cityEntry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestCacheSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []cityEntry
	assert.False(t, c.Get(ctx, "cities", &got))

	want := []cityEntry{{ID: 1, Name: "Campinas"}, {ID: 2, Name: "Santos"}}
	c.Set(ctx, "location", "cities", want)

	require.True(t, c.Get(ctx, "cities", &got))
	assert.Equal(t, want, got)
	assert.Equal(t, 10*time.Minute, mr.TTL("pracas:cache:cities"))

	members, err := mr.SMembers("pracas:tag:location")
	require.NoError(t, err)
	assert.Equal(t, []string{"pracas:cache:cities"}, members)

	// 损坏的条目视为未命中
	require.NoError(t, mr.Set("pracas:cache:broken", "{"))
	assert.False(t, c.Get(ctx, "broken", &got))
}

func TestCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "location", "cities", []cityEntry{{ID: 1, Name: "Campinas"}})
	c.Set(ctx, "location", "locations::0:0:0:any", []string{"Praça da Sé"})
	c.Set(ctx, "form", "categories", []string{"Estrutura"})

	c.Invalidate(ctx, "location")

	assert.False(t, mr.Exists("pracas:cache:cities"))
	assert.False(t, mr.Exists("pracas:cache:locations::0:0:0:any"))
	assert.False(t, mr.Exists("pracas:tag:location"))
	assert.True(t, mr.Exists("pracas:cache:categories"))

	var cities []cityEntry
	assert.False(t, c.Get(ctx, "cities", &cities))

	// 空标签也不报错
	c.Invalidate(ctx, "location")
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Cache{nil, NewCache(nil, time.Minute)} {
		c.Set(ctx, "location", "cities", []string{"x"})
		var got []string
		assert.False(t, c.Get(ctx, "cities", &got))
		c.Invalidate(ctx, "location")
	}
}
