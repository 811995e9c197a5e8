package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/shortlink/internal/models"
)

func TestMemoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()

	link := &models.ShortLink{
		Alias:       "promo1",
		OriginalURL: "https://example.org",
		Topic:       models.TopicOthers,
		Owner:       "owner@example.com",
	}
	require.NoError(t, repo.Create(ctx, link))
	assert.NotEqual(t, uuid.Nil, link.ID, "id must be assigned")
	assert.False(t, link.CreatedAt.IsZero())

	err := repo.Create(ctx, &models.ShortLink{Alias: "promo1", OriginalURL: "https://other.example"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	exists, err := repo.Exists(ctx, "promo1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "promo2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryGetByAlias(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias:       "promo1",
		OriginalURL: "https://example.org",
		Owner:       "owner@example.com",
	}))

	link, err := repo.GetByAlias(ctx, "promo1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", link.OriginalURL)

	// The returned record is a copy: mutating it must not leak back.
	link.Clicks = append(link.Clicks, models.ClickEvent{IPAddress: "10.0.0.1"})
	again, err := repo.GetByAlias(ctx, "promo1")
	require.NoError(t, err)
	assert.Empty(t, again.Clicks)

	_, err = repo.GetByAlias(ctx, "missing1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetByDestination(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias: "newer1", OriginalURL: "https://example.org", Owner: "a@example.com",
		CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias: "older1", OriginalURL: "https://example.org", Owner: "a@example.com",
		CreatedAt: base,
	}))

	link, err := repo.GetByDestination(ctx, "a@example.com", "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "older1", link.Alias, "the earliest link wins")

	_, err = repo.GetByDestination(ctx, "b@example.com", "https://example.org")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAppendClick(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias:       "promo1",
		OriginalURL: "https://example.org",
		Owner:       "owner@example.com",
	}))

	t.Run("returns the updated record", func(t *testing.T) {
		link, err := repo.AppendClick(ctx, "promo1", models.ClickEvent{IPAddress: "10.0.0.1"})
		require.NoError(t, err)
		require.Len(t, link.Clicks, 1)
		assert.Equal(t, "10.0.0.1", link.Clicks[0].IPAddress)
	})

	t.Run("unknown alias is not found", func(t *testing.T) {
		_, err := repo.AppendClick(ctx, "missing1", models.ClickEvent{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent appends are all retained", func(t *testing.T) {
		const n = 100
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.AppendClick(ctx, "promo1", models.ClickEvent{IPAddress: "10.0.0.2"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		link, err := repo.GetByAlias(ctx, "promo1")
		require.NoError(t, err)
		assert.Len(t, link.Clicks, n+1)
	})
}

func TestMemoryListByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	aliases := []string{"link0a", "link0b", "link0c", "link0d"}
	topics := []models.Topic{models.TopicAcquisition, models.TopicAcquisition, models.TopicRetention, models.TopicAcquisition}
	for i, alias := range aliases {
		require.NoError(t, repo.Create(ctx, &models.ShortLink{
			Alias:       alias,
			OriginalURL: "https://example.org/" + alias,
			Topic:       topics[i],
			Owner:       "owner@example.com",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	t.Run("pages newest first", func(t *testing.T) {
		page, total, err := repo.ListByOwner(ctx, "owner@example.com", "", 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, page, 2)
		assert.Equal(t, "link0d", page[0].Alias)
		assert.Equal(t, "link0c", page[1].Alias)

		page, _, err = repo.ListByOwner(ctx, "owner@example.com", "", 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "link0b", page[0].Alias)
		assert.Equal(t, "link0a", page[1].Alias)
	})

	t.Run("filters by topic", func(t *testing.T) {
		page, total, err := repo.ListByOwner(ctx, "owner@example.com", models.TopicRetention, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, page, 1)
		assert.Equal(t, "link0c", page[0].Alias)
	})

	t.Run("offset past the end is empty with true total", func(t *testing.T) {
		page, total, err := repo.ListByOwner(ctx, "owner@example.com", "", 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, page)
	})

	t.Run("unknown owner is empty", func(t *testing.T) {
		page, total, err := repo.ListByOwner(ctx, "nobody@example.com", "", 10, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, page)
	})
}

func TestMemoryAllByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLinkRepository()

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias: "promo1", OriginalURL: "https://a.example", Topic: models.TopicAcquisition, Owner: "owner@example.com",
	}))
	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias: "promo2", OriginalURL: "https://b.example", Topic: models.TopicRetention, Owner: "owner@example.com",
	}))

	all, err := repo.AllByOwner(ctx, "owner@example.com", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.AllByOwner(ctx, "owner@example.com", models.TopicAcquisition)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "promo1", scoped[0].Alias)
}
