package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"remit/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the handful of commands CacheService issues.
type fakeRedis struct {
	redis.UniversalClient
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRateStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRateStore(NewCacheService(newFakeRedis(), time.Minute))

	_, found, err := store.LoadRate(ctx, "UGX", "KES")
	require.NoError(t, err)
	assert.False(t, found)

	rate := models.ExchangeRate{
		From: "UGX", To: "KES", Rate: 129.0 / 3700, InverseRate: 3700.0 / 129,
		Source: "reference", LastUpdated: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveRate(ctx, rate))

	got, found, err := store.LoadRate(ctx, "UGX", "KES")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, rate.Rate, got.Rate, 1e-12)
	assert.True(t, rate.LastUpdated.Equal(got.LastUpdated))
}

func TestCacheService_GetPropagatesErrors(t *testing.T) {
	svc := NewCacheService(&erroringRedis{}, time.Minute)
	var out models.ExchangeRate
	found, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

type erroringRedis struct {
	redis.UniversalClient
}

func (e *erroringRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", errors.New("connection refused"))
}
