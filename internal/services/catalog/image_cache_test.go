package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/bnpl-service/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestImageCache_HitAfterMiss(t *testing.T) {
	ctx := context.Background()
	next := new(mocks.MockProductImageLookup)
	next.On("GetImageURL", ctx, int64(1)).Return("https://cdn/1.png", nil).Once()
	cache := NewImageCache(next, time.Minute, mocks.NewMockLogger())

	url, err := cache.GetImageURL(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/1.png", url)

	url, err = cache.GetImageURL(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/1.png", url)

	next.AssertNumberOfCalls(t, "GetImageURL", 1)
}

func TestImageCache_Expiry(t *testing.T) {
	ctx := context.Background()
	next := new(mocks.MockProductImageLookup)
	next.On("GetImageURL", ctx, int64(1)).Return("https://cdn/1.png", nil)
	cache := NewImageCache(next, time.Minute, mocks.NewMockLogger())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.GetImageURL(ctx, 1)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cache.GetImageURL(ctx, 1)
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "GetImageURL", 2)
}

func TestImageCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := new(mocks.MockProductImageLookup)
	next.On("GetImageURL", ctx, int64(1)).Return("", errors.New("timeout")).Once()
	next.On("GetImageURL", ctx, int64(1)).Return("https://cdn/1.png", nil).Once()
	cache := NewImageCache(next, time.Minute, mocks.NewMockLogger())

	_, err := cache.GetImageURL(ctx, 1)
	require.Error(t, err)

	url, err := cache.GetImageURL(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/1.png", url)
}

func TestImageCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := new(mocks.MockProductImageLookup)
	next.On("GetImageURL", mock.Anything, int64(1)).Return("https://cdn/1.png", nil)
	cache := NewImageCache(next, time.Hour, mocks.NewMockLogger())

	_, _ = cache.GetImageURL(ctx, 1)
	cache.Invalidate(1)
	_, _ = cache.GetImageURL(ctx, 1)

	next.AssertNumberOfCalls(t, "GetImageURL", 2)
}
