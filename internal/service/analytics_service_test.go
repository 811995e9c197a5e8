package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/shortlink/internal/config"
	"github.com/user/shortlink/internal/models"
	"github.com/user/shortlink/internal/repository"
)

func newAnalytics(repo repository.LinkRepository, windowDays int) *AnalyticsService {
	return NewAnalyticsService(
		repo,
		config.ShortenerConfig{BaseURL: "http://sl.test"},
		config.AnalyticsConfig{WindowDays: windowDays},
	)
}

func click(ts time.Time, ip, os, device string) models.ClickEvent {
	return models.ClickEvent{
		Timestamp: ts,
		IPAddress: ip,
		OS:        os,
		Device:    device,
	}
}

// seedLinks loads a fixed data set:
//
//	promo1 (acquisition): 3 clicks, 2 users, Windows+Android
//	promo2 (acquisition): 1 click, 1 user, Windows
//	blog01 (retention):   1 click, 1 user, macOS
func seedLinks(t *testing.T, repo *repository.MemoryLinkRepository, owner string) time.Time {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias:       "promo1",
		OriginalURL: "https://example.org/spring",
		Topic:       models.TopicAcquisition,
		Owner:       owner,
		CreatedAt:   base,
		Clicks: []models.ClickEvent{
			click(base, "10.0.0.1", "Windows", "desktop"),
			click(base.Add(time.Hour), "10.0.0.1", "Windows", "desktop"),
			click(base.Add(24*time.Hour), "10.0.0.2", "Android", "mobile"),
		},
	}))
	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias:       "promo2",
		OriginalURL: "https://example.org/summer",
		Topic:       models.TopicAcquisition,
		Owner:       owner,
		CreatedAt:   base.Add(time.Minute),
		Clicks: []models.ClickEvent{
			click(base.Add(2*time.Hour), "10.0.0.3", "Windows", "desktop"),
		},
	}))
	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		Alias:       "blog01",
		OriginalURL: "https://example.org/blog",
		Topic:       models.TopicRetention,
		Owner:       owner,
		CreatedAt:   base.Add(2 * time.Minute),
		Clicks: []models.ClickEvent{
			click(base.Add(48*time.Hour), "10.0.0.1", "macOS", "desktop"),
		},
	}))
	return base
}

func TestOverall(t *testing.T) {
	ctx := context.Background()
	const owner = "owner@example.com"

	t.Run("empty scope yields zeros and non nil lists", func(t *testing.T) {
		svc := newAnalytics(repository.NewMemoryLinkRepository(), 0)

		stats, err := svc.Overall(ctx, owner)
		require.NoError(t, err)

		assert.Equal(t, 0, stats.TotalURLs)
		assert.Equal(t, 0, stats.TotalClicks)
		assert.Equal(t, 0, stats.UniqueUsers)
		assert.NotNil(t, stats.ClicksOverTime)
		assert.Empty(t, stats.ClicksOverTime)
		assert.NotNil(t, stats.OSBreakdown)
		assert.Empty(t, stats.OSBreakdown)
		assert.NotNil(t, stats.DeviceBreakdown)
		assert.Empty(t, stats.DeviceBreakdown)
	})

	t.Run("aggregates across all owned links", func(t *testing.T) {
		repo := repository.NewMemoryLinkRepository()
		seedLinks(t, repo, owner)
		svc := newAnalytics(repo, 0)

		stats, err := svc.Overall(ctx, owner)
		require.NoError(t, err)

		assert.Equal(t, 3, stats.TotalURLs)
		assert.Equal(t, 5, stats.TotalClicks)
		assert.Equal(t, 3, stats.UniqueUsers)

		assert.Equal(t, []models.DayCount{
			{Date: "2026-03-10", Count: 3},
			{Date: "2026-03-11", Count: 1},
			{Date: "2026-03-12", Count: 1},
		}, stats.ClicksOverTime)

		assert.Equal(t, []models.OSStat{
			{OSName: "Android", UniqueClicks: 1, UniqueUsers: 1},
			{OSName: "Windows", UniqueClicks: 3, UniqueUsers: 2},
			{OSName: "macOS", UniqueClicks: 1, UniqueUsers: 1},
		}, stats.OSBreakdown)

		assert.Equal(t, []models.DeviceStat{
			{DeviceName: "desktop", UniqueClicks: 4, UniqueUsers: 2},
			{DeviceName: "mobile", UniqueClicks: 1, UniqueUsers: 1},
		}, stats.DeviceBreakdown)
	})

	t.Run("other owners are excluded", func(t *testing.T) {
		repo := repository.NewMemoryLinkRepository()
		seedLinks(t, repo, owner)
		svc := newAnalytics(repo, 0)

		stats, err := svc.Overall(ctx, "other@example.com")
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalURLs)
		assert.Equal(t, 0, stats.TotalClicks)
	})
}

func TestByTopic(t *testing.T) {
	ctx := context.Background()
	const owner = "owner@example.com"

	t.Run("scopes to the topic and ranks aliases by clicks", func(t *testing.T) {
		repo := repository.NewMemoryLinkRepository()
		seedLinks(t, repo, owner)
		svc := newAnalytics(repo, 0)

		stats, err := svc.ByTopic(ctx, owner, models.TopicAcquisition)
		require.NoError(t, err)

		assert.Equal(t, 4, stats.TotalClicks)
		assert.Equal(t, 3, stats.UniqueUsers)

		require.Len(t, stats.URLs, 2)
		assert.Equal(t, models.AliasClickStats{
			ShortURL:    "http://sl.test/promo1",
			TotalClicks: 3,
			UniqueUsers: 2,
		}, stats.URLs[0])
		assert.Equal(t, models.AliasClickStats{
			ShortURL:    "http://sl.test/promo2",
			TotalClicks: 1,
			UniqueUsers: 1,
		}, stats.URLs[1])
	})

	t.Run("topic without links yields an empty url list", func(t *testing.T) {
		repo := repository.NewMemoryLinkRepository()
		seedLinks(t, repo, owner)
		svc := newAnalytics(repo, 0)

		stats, err := svc.ByTopic(ctx, owner, models.TopicActivation)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalClicks)
		assert.NotNil(t, stats.URLs)
		assert.Empty(t, stats.URLs)
	})

	t.Run("unknown topic is rejected", func(t *testing.T) {
		svc := newAnalytics(repository.NewMemoryLinkRepository(), 0)

		_, err := svc.ByTopic(ctx, owner, "growth")
		assert.ErrorIs(t, err, ErrInvalidTopic)
	})
}

func TestByAlias(t *testing.T) {
	ctx := context.Background()
	const owner = "owner@example.com"

	t.Run("covers a single link", func(t *testing.T) {
		repo := repository.NewMemoryLinkRepository()
		seedLinks(t, repo, owner)
		svc := newAnalytics(repo, 0)

		stats, err := svc.ByAlias(ctx, "promo1")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalClicks)
		assert.Equal(t, 2, stats.UniqueUsers)
		assert.Len(t, stats.ClicksOverTime, 2)
	})

	t.Run("unknown alias is not found", func(t *testing.T) {
		svc := newAnalytics(repository.NewMemoryLinkRepository(), 0)

		_, err := svc.ByAlias(ctx, "missing1")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}

func TestWindowedTimeSeries(t *testing.T) {
	ctx := context.Background()
	const owner = "owner@example.com"

	repo := repository.NewMemoryLinkRepository()
	base := seedLinks(t, repo, owner)

	svc := newAnalytics(repo, 2)
	// Pin "now" so only the last two seeded days fall in the window.
	svc.now = func() time.Time { return base.Add(72 * time.Hour) }

	stats, err := svc.Overall(ctx, owner)
	require.NoError(t, err)

	// The series drops the day outside the window.
	assert.Equal(t, []models.DayCount{
		{Date: "2026-03-11", Count: 1},
		{Date: "2026-03-12", Count: 1},
	}, stats.ClicksOverTime)

	// Totals and breakdowns still cover the full history.
	assert.Equal(t, 5, stats.TotalClicks)
	assert.Equal(t, 3, stats.UniqueUsers)
	assert.Len(t, stats.OSBreakdown, 3)
}
