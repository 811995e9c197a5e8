package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/user/shortlink/internal/config"
	"github.com/user/shortlink/internal/models"
	"github.com/user/shortlink/internal/repository"
)

// dayFormat is the UTC calendar-day bucket of the time series.
const dayFormat = "2006-01-02"

// AnalyticsService computes derived statistics over click logs.
// The three entry points differ only in scope: all of an owner's
// links, one topic group, or a single alias.
//
// Reads are snapshots: concurrent click appends may or may not be
// visible to a query in flight, which is acceptable staleness.
type AnalyticsService struct {
	repo       repository.LinkRepository
	baseURL    string
	windowDays int

	// now is swappable in tests that pin the aggregation window.
	now func() time.Time
}

// NewAnalyticsService creates an aggregator. cfg.WindowDays bounds
// the clicks-over-time series to the trailing N days; 0 keeps the
// full history. Totals, uniqueness and breakdowns always cover the
// full scope regardless of the window.
func NewAnalyticsService(repo repository.LinkRepository, shortener config.ShortenerConfig, cfg config.AnalyticsConfig) *AnalyticsService {
	return &AnalyticsService{
		repo:       repo,
		baseURL:    shortener.BaseURL,
		windowDays: cfg.WindowDays,
		now:        time.Now,
	}
}

// Overall aggregates every link owned by owner.
func (s *AnalyticsService) Overall(ctx context.Context, owner string) (*models.OverallStats, error) {
	links, err := s.repo.AllByOwner(ctx, owner, "")
	if err != nil {
		return nil, asUpstream(err)
	}

	return &models.OverallStats{
		TotalURLs: len(links),
		Stats:     s.computeStats(collectClicks(links)),
	}, nil
}

// ByTopic aggregates an owner's links with the given topic and
// adds each alias's own counts, sorted by click count descending.
func (s *AnalyticsService) ByTopic(ctx context.Context, owner string, topic models.Topic) (*models.TopicStats, error) {
	if !topic.Valid() {
		return nil, ErrInvalidTopic
	}

	links, err := s.repo.AllByOwner(ctx, owner, topic)
	if err != nil {
		return nil, asUpstream(err)
	}

	urls := []models.AliasClickStats{}
	for _, link := range links {
		urls = append(urls, models.AliasClickStats{
			ShortURL:    s.baseURL + "/" + link.Alias,
			TotalClicks: len(link.Clicks),
			UniqueUsers: countUniqueUsers(link.Clicks),
		})
	}
	sort.SliceStable(urls, func(i, j int) bool {
		return urls[i].TotalClicks > urls[j].TotalClicks
	})

	return &models.TopicStats{
		Stats: s.computeStats(collectClicks(links)),
		URLs:  urls,
	}, nil
}

// ByAlias aggregates a single link's click log.
func (s *AnalyticsService) ByAlias(ctx context.Context, alias string) (*models.AliasStats, error) {
	link, err := s.repo.GetByAlias(ctx, alias)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, asUpstream(err)
	}

	return &models.AliasStats{Stats: s.computeStats(link.Clicks)}, nil
}

// ===========================================
// Stats Computation
// ===========================================

// computeStats is the shared aggregation over one scoped set of
// events. An empty scope yields zero counts and empty, non-nil
// lists.
func (s *AnalyticsService) computeStats(clicks []models.ClickEvent) models.Stats {
	stats := models.Stats{
		TotalClicks:     len(clicks),
		ClicksOverTime:  []models.DayCount{},
		OSBreakdown:     []models.OSStat{},
		DeviceBreakdown: []models.DeviceStat{},
	}

	var cutoff time.Time
	if s.windowDays > 0 {
		cutoff = s.now().UTC().AddDate(0, 0, -s.windowDays)
	}

	users := map[string]struct{}{}
	byDay := map[string]int{}
	byOS := map[string]*fieldGroup{}
	byDevice := map[string]*fieldGroup{}

	for _, click := range clicks {
		users[click.IPAddress] = struct{}{}

		if cutoff.IsZero() || !click.Timestamp.Before(cutoff) {
			byDay[click.Timestamp.UTC().Format(dayFormat)]++
		}

		groupClick(byOS, click.OS, click.IPAddress)
		groupClick(byDevice, click.Device, click.IPAddress)
	}

	stats.UniqueUsers = len(users)

	for date, count := range byDay {
		stats.ClicksOverTime = append(stats.ClicksOverTime, models.DayCount{Date: date, Count: count})
	}
	sort.Slice(stats.ClicksOverTime, func(i, j int) bool {
		return stats.ClicksOverTime[i].Date < stats.ClicksOverTime[j].Date
	})

	for _, name := range sortedKeys(byOS) {
		g := byOS[name]
		stats.OSBreakdown = append(stats.OSBreakdown, models.OSStat{
			OSName:       name,
			UniqueClicks: g.clicks,
			UniqueUsers:  len(g.users),
		})
	}
	for _, name := range sortedKeys(byDevice) {
		g := byDevice[name]
		stats.DeviceBreakdown = append(stats.DeviceBreakdown, models.DeviceStat{
			DeviceName:   name,
			UniqueClicks: g.clicks,
			UniqueUsers:  len(g.users),
		})
	}

	return stats
}

type fieldGroup struct {
	clicks int
	users  map[string]struct{}
}

func groupClick(groups map[string]*fieldGroup, key, ip string) {
	g, ok := groups[key]
	if !ok {
		g = &fieldGroup{users: map[string]struct{}{}}
		groups[key] = g
	}
	g.clicks++
	g.users[ip] = struct{}{}
}

func sortedKeys(groups map[string]*fieldGroup) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectClicks(links []*models.ShortLink) []models.ClickEvent {
	clicks := []models.ClickEvent{}
	for _, link := range links {
		clicks = append(clicks, link.Clicks...)
	}
	return clicks
}

func countUniqueUsers(clicks []models.ClickEvent) int {
	users := map[string]struct{}{}
	for _, click := range clicks {
		users[click.IPAddress] = struct{}{}
	}
	return len(users)
}
