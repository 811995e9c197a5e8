// ===========================================
// Package service - Business Logic Layer
// ===========================================
// Services orchestrate repositories, the cache and the click
// enrichment capabilities. Handlers stay thin (HTTP in/out) and
// repositories stay thin (store in/out); the rules live here.
// ===========================================

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/user/shortlink/internal/clickmeta"
	"github.com/user/shortlink/internal/config"
	"github.com/user/shortlink/internal/database"
	"github.com/user/shortlink/internal/models"
	"github.com/user/shortlink/internal/repository"
)

// Service errors.
var (
	ErrLinkNotFound = errors.New("short link not found")
	ErrAliasTaken   = errors.New("alias already taken")
	ErrInvalidURL   = errors.New("invalid URL format")
	ErrInvalidTopic = errors.New("invalid topic")
	ErrUpstream     = errors.New("upstream store unavailable")
)

// KeyValueStore is the cache capability the redirect path
// consumes. A (nil, nil) Get is a miss; any error from either
// method degrades to the authoritative store instead of failing
// the request.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultPageSize is the listing page size when the client does
// not specify one.
const DefaultPageSize = 7

const cacheOpTimeout = 2 * time.Second

// LinkService is the alias registry and click recorder.
//
// Redirect-cache policy: the cache only short-circuits the
// destination lookup. The click is recorded on every redirect,
// cache hit or not, so cached redirects never undercount.
type LinkService struct {
	repo     repository.LinkRepository
	cache    KeyValueStore
	agents   clickmeta.AgentParser
	locator  clickmeta.Locator
	baseURL  string
	aliasLen int
	maxGen   int
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewLinkService creates a link service. cache may be nil, in
// which case every redirect resolves against the repository.
func NewLinkService(
	repo repository.LinkRepository,
	cache KeyValueStore,
	agents clickmeta.AgentParser,
	locator clickmeta.Locator,
	cfg config.ShortenerConfig,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *LinkService {
	return &LinkService{
		repo:     repo,
		cache:    cache,
		agents:   agents,
		locator:  locator,
		baseURL:  cfg.BaseURL,
		aliasLen: cfg.AliasLength,
		maxGen:   cfg.MaxGenRetries,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// ===========================================
// Alias Registry
// ===========================================

// Create shortens a URL for an owner.
//
// Creation is idempotent per (originalUrl, owner): when the owner
// already shortened the same destination, the existing record is
// returned with IsExisting set and no new alias is minted.
func (s *LinkService) Create(ctx context.Context, req models.CreateLinkRequest, owner string) (*models.CreateLinkResponse, error) {
	if !isAbsoluteURL(req.OriginalURL) {
		return nil, ErrInvalidURL
	}

	topic := req.Topic
	if topic == "" {
		topic = models.TopicOthers
	}
	if !topic.Valid() {
		return nil, ErrInvalidTopic
	}

	existing, err := s.repo.GetByDestination(ctx, owner, req.OriginalURL)
	if err == nil {
		return s.createResponse(existing, true), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, asUpstream(err)
	}

	alias := req.CustomAlias
	if alias != "" {
		taken, err := s.repo.Exists(ctx, alias)
		if err != nil {
			return nil, asUpstream(err)
		}
		if taken {
			return nil, ErrAliasTaken
		}
	} else {
		alias, err = s.generateUniqueAlias(ctx)
		if err != nil {
			return nil, err
		}
	}

	link := &models.ShortLink{
		Alias:       alias,
		OriginalURL: req.OriginalURL,
		Topic:       topic,
		Owner:       owner,
		Clicks:      []models.ClickEvent{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, link); err != nil {
		// A concurrent create can win the alias between the
		// existence check and the insert; the unique index is the
		// real arbiter.
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAliasTaken
		}
		return nil, asUpstream(err)
	}

	return s.createResponse(link, false), nil
}

// Resolve looks up a short link by alias. Pure lookup, no side
// effects; used by analytics and by anything that needs the
// record without recording a click.
func (s *LinkService) Resolve(ctx context.Context, alias string) (*models.ShortLink, error) {
	link, err := s.repo.GetByAlias(ctx, alias)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, asUpstream(err)
	}
	return link, nil
}

// List returns one page of an owner's links, newest first,
// optionally filtered by topic. Out-of-range pages return empty
// items with the true total.
func (s *LinkService) List(ctx context.Context, owner string, topic models.Topic, page, pageSize int) (*models.LinkPage, error) {
	if topic != "" && !topic.Valid() {
		return nil, ErrInvalidTopic
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	links, total, err := s.repo.ListByOwner(ctx, owner, topic, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, asUpstream(err)
	}

	items := []models.LinkSummary{}
	for _, link := range links {
		items = append(items, models.LinkSummary{
			Alias:       link.Alias,
			ShortURL:    s.shortURL(link.Alias),
			OriginalURL: link.OriginalURL,
			Topic:       link.Topic,
			TotalClicks: len(link.Clicks),
			CreatedAt:   link.CreatedAt,
		})
	}

	return &models.LinkPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ===========================================
// Click Recorder
// ===========================================

// Record appends one click event to the alias's click log as a
// single atomic store operation and returns the updated link, so
// the redirect path needs no second lookup.
func (s *LinkService) Record(ctx context.Context, alias string, req models.ClickRequest) (*models.ShortLink, error) {
	agent := s.agents.Parse(req.UserAgent)

	event := models.ClickEvent{
		Timestamp: time.Now().UTC(),
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		OS:        agent.OS,
		Device:    agent.Device,
		Location:  s.locator.Locate(req.IPAddress),
	}

	link, err := s.repo.AppendClick(ctx, alias, event)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, asUpstream(err)
	}
	return link, nil
}

// ===========================================
// Redirect Path
// ===========================================

// Redirect resolves an alias to its destination for an HTTP
// redirect, recording the click.
//
// Cache hit: the destination comes from the cache and the append
// runs against the store; an append failure is logged but does
// not fail the redirect, since the destination is already known.
// Cache miss: the append doubles as the lookup, then the cache is
// populated from the fresh record.
func (s *LinkService) Redirect(ctx context.Context, alias string, req models.ClickRequest) (string, error) {
	if dest, ok := s.cacheGet(ctx, alias); ok {
		if _, err := s.Record(ctx, alias, req); err != nil {
			s.log.Warn().Err(err).Str("alias", alias).Msg("click append failed on cached redirect")
		}
		return dest, nil
	}

	link, err := s.Record(ctx, alias, req)
	if err != nil {
		return "", err
	}

	s.cachePut(ctx, alias, link.OriginalURL)
	return link.OriginalURL, nil
}

// cacheGet reads the cached destination for an alias. Failures
// and timeouts degrade to a miss.
func (s *LinkService) cacheGet(ctx context.Context, alias string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	dest, err := s.cache.Get(ctx, database.CacheKey(alias))
	if err != nil {
		s.log.Warn().Err(err).Str("alias", alias).Msg("redirect cache read failed")
		return "", false
	}
	if dest == nil {
		return "", false
	}
	return string(dest), true
}

// cachePut stores alias -> destination after a successful click
// append. Failures are logged and absorbed.
func (s *LinkService) cachePut(ctx context.Context, alias, dest string) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, database.CacheKey(alias), []byte(dest), s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("alias", alias).Msg("redirect cache write failed")
	}
}

// ===========================================
// Alias Generation
// ===========================================
// Generated aliases are drawn from a URL-safe base62 charset at a
// fixed length. Collisions are practically unreachable at 8
// chars, but the retry loop is required for correctness and is
// bounded to avoid livelock if the namespace ever saturates.

const aliasChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func (s *LinkService) generateUniqueAlias(ctx context.Context) (string, error) {
	for i := 0; i < s.maxGen; i++ {
		alias, err := randomAlias(s.aliasLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate alias: %w", err)
		}

		taken, err := s.repo.Exists(ctx, alias)
		if err != nil {
			return "", asUpstream(err)
		}
		if !taken {
			return alias, nil
		}
	}

	return "", fmt.Errorf("%w: alias space exhausted after %d attempts", ErrUpstream, s.maxGen)
}

// randomAlias draws length chars from aliasChars using crypto/rand.
func randomAlias(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	for i := range bytes {
		bytes[i] = aliasChars[int(bytes[i])%len(aliasChars)]
	}
	return string(bytes), nil
}

// ===========================================
// Helpers
// ===========================================

func (s *LinkService) createResponse(link *models.ShortLink, existing bool) *models.CreateLinkResponse {
	return &models.CreateLinkResponse{
		Alias:      link.Alias,
		ShortURL:   s.shortURL(link.Alias),
		CreatedAt:  link.CreatedAt,
		IsExisting: existing,
	}
}

func (s *LinkService) shortURL(alias string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, alias)
}

// isAbsoluteURL reports whether raw parses as an absolute URL
// with both scheme and host. Validation happens once, at
// creation; stored URLs are never re-checked.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// asUpstream tags a store failure as retryable for the caller
// while preserving the cause in the message.
func asUpstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
