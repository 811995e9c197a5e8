// ===========================================
// Package repository - Data Access Layer
// ===========================================
// The repository owns persistence for short links and their
// embedded click logs. Services depend on the LinkRepository
// interface, not the Postgres implementation, so the atomic
// append and lookup contracts stay testable in memory.
// ===========================================

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/shortlink/internal/models"
)

// Sentinel errors checked by callers with errors.Is.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
)

// LinkRepository is the persistence capability the registry,
// recorder and aggregator consume.
//
// AppendClick is the one operation with a hard concurrency
// contract: the append must happen atomically inside the store,
// keyed by alias, so that concurrent clicks on the same alias are
// all durably recorded.
type LinkRepository interface {
	// Create persists a new link. Returns ErrAlreadyExists when
	// the alias is already taken in the global namespace.
	Create(ctx context.Context, link *models.ShortLink) error

	// GetByAlias returns the full record, click log included.
	GetByAlias(ctx context.Context, alias string) (*models.ShortLink, error)

	// GetByDestination returns an owner's existing link for a
	// destination URL, or ErrNotFound.
	GetByDestination(ctx context.Context, owner, originalURL string) (*models.ShortLink, error)

	// Exists reports whether an alias is taken.
	Exists(ctx context.Context, alias string) (bool, error)

	// AppendClick atomically appends one event to the link's click
	// log and returns the updated record, or ErrNotFound.
	AppendClick(ctx context.Context, alias string, click models.ClickEvent) (*models.ShortLink, error)

	// ListByOwner returns one page of an owner's links ordered by
	// created_at descending, plus the total count across pages.
	// An empty topic means no topic filter.
	ListByOwner(ctx context.Context, owner string, topic models.Topic, limit, offset int) ([]*models.ShortLink, int64, error)

	// AllByOwner returns every link of an owner (optionally
	// filtered by topic) with full click logs, for aggregation.
	AllByOwner(ctx context.Context, owner string, topic models.Topic) ([]*models.ShortLink, error)
}

// PostgresLinkRepository implements LinkRepository on pgx.
// The click log is a JSONB array column on the link row, so the
// append is a single UPDATE and needs no separate click table.
type PostgresLinkRepository struct {
	db *pgxpool.Pool
}

// NewPostgresLinkRepository creates a repository on the given pool.
func NewPostgresLinkRepository(db *pgxpool.Pool) *PostgresLinkRepository {
	return &PostgresLinkRepository{db: db}
}

const linkColumns = `id, alias, original_url, topic, owner, clicks, created_at`

func (r *PostgresLinkRepository) Create(ctx context.Context, link *models.ShortLink) error {
	query := `
		INSERT INTO short_links (id, alias, original_url, topic, owner, clicks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	if link.Clicks == nil {
		link.Clicks = []models.ClickEvent{}
	}

	clicks, err := json.Marshal(link.Clicks)
	if err != nil {
		return fmt.Errorf("failed to marshal click log: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		link.ID,
		link.Alias,
		link.OriginalURL,
		string(link.Topic),
		link.Owner,
		clicks,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByAlias(ctx context.Context, alias string) (*models.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE alias = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, alias))
}

func (r *PostgresLinkRepository) GetByDestination(ctx context.Context, owner, originalURL string) (*models.ShortLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM short_links
		WHERE owner = $1 AND original_url = $2
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, owner, originalURL))
}

func (r *PostgresLinkRepository) Exists(ctx context.Context, alias string) (bool, error) {
	query := `SELECT 1 FROM short_links WHERE alias = $1 LIMIT 1`

	var one int
	err := r.db.QueryRow(ctx, query, alias).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check alias existence: %w", err)
	}
	return true, nil
}

// AppendClick pushes one event onto the JSONB click log in a
// single UPDATE. The `clicks || $2::jsonb` concatenation executes
// inside the store, so concurrent appends against the same alias
// serialize on the row and none are lost.
func (r *PostgresLinkRepository) AppendClick(ctx context.Context, alias string, click models.ClickEvent) (*models.ShortLink, error) {
	query := `
		UPDATE short_links
		SET clicks = clicks || $2::jsonb
		WHERE alias = $1
		RETURNING ` + linkColumns

	event, err := json.Marshal([]models.ClickEvent{click})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal click event: %w", err)
	}

	return r.scanOne(r.db.QueryRow(ctx, query, alias, event))
}

func (r *PostgresLinkRepository) ListByOwner(ctx context.Context, owner string, topic models.Topic, limit, offset int) ([]*models.ShortLink, int64, error) {
	where := `WHERE owner = $1`
	args := []any{owner}
	if topic != "" {
		where += ` AND topic = $2`
		args = append(args, string(topic))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM short_links ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+linkColumns+`
		FROM short_links
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links, err := scanLinks(rows)
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

func (r *PostgresLinkRepository) AllByOwner(ctx context.Context, owner string, topic models.Topic) ([]*models.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE owner = $1`
	args := []any{owner}
	if topic != "" {
		query += ` AND topic = $2`
		args = append(args, string(topic))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner links: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// ===========================================
// Scan Helpers
// ===========================================

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresLinkRepository) scanOne(row rowScanner) (*models.ShortLink, error) {
	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func scanLink(row rowScanner) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	var topic string
	var clicks []byte

	if err := row.Scan(
		&link.ID,
		&link.Alias,
		&link.OriginalURL,
		&topic,
		&link.Owner,
		&clicks,
		&link.CreatedAt,
	); err != nil {
		return nil, err
	}

	link.Topic = models.Topic(topic)
	link.Clicks = []models.ClickEvent{}
	if len(clicks) > 0 {
		if err := json.Unmarshal(clicks, &link.Clicks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal click log: %w", err)
		}
	}
	return link, nil
}

func scanLinks(rows pgx.Rows) ([]*models.ShortLink, error) {
	links := []*models.ShortLink{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	return links, nil
}

// isUniqueViolation checks for PostgreSQL error 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
