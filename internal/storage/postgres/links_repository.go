package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
	"github.com/dukedaW/shortlinks/internal/processing/links"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const linkColumns = "alias, original_url, owner_id, created_at, expires_at, clicks"

type LinksRepository struct {
	pool *pgxpool.Pool
}

func NewLinksRepository(p *db.Postgres) (*LinksRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &LinksRepository{pool: p.Pool}, nil
}

func (r *LinksRepository) Exists(ctx context.Context, alias string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM links WHERE alias = $1)`, alias,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *LinksRepository) Insert(ctx context.Context, link *links.Link) error {
	if link == nil {
		return errors.New("link is nil")
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		link.Alias, link.OriginalURL, link.OwnerID,
		link.CreatedAt.UTC(), utcOrNil(link.ExpiresAt), link.Clicks,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return links.ErrDuplicateAlias
	}
	return err
}

func (r *LinksRepository) FindByAlias(ctx context.Context, alias string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE alias = $1`, alias,
	)
	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, links.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// FindActiveByAliasAndIncClick gates on expiry and bumps the counter in one
// statement, so a served redirect and its click can never diverge. A miss is
// disambiguated with a plain lookup: an existing row means the link expired.
func (r *LinksRepository) FindActiveByAliasAndIncClick(ctx context.Context, alias string, at time.Time) (*links.Link, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE links SET clicks = clicks + 1
		 WHERE alias = $1 AND (expires_at IS NULL OR expires_at > $2)
		 RETURNING `+linkColumns,
		alias, at.UTC(),
	)
	link, err := scanLink(row)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	existing, findErr := r.FindByAlias(ctx, alias)
	if findErr == nil && existing != nil {
		return nil, links.ErrExpired
	}
	if findErr != nil && !errors.Is(findErr, links.ErrNotFound) {
		return nil, findErr
	}
	return nil, links.ErrNotFound
}

func (r *LinksRepository) IncrementClicks(ctx context.Context, alias string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE links SET clicks = clicks + 1 WHERE alias = $1`, alias,
	)
	return err
}

func (r *LinksRepository) UpdateURL(ctx context.Context, alias, newURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE links SET original_url = $2 WHERE alias = $1`, alias, newURL,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM links WHERE alias = $1`, alias,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepository) FindByOriginalURL(ctx context.Context, originalURL string) ([]*links.Link, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+linkColumns+` FROM links WHERE original_url = $1 ORDER BY created_at`,
		originalURL,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*links.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

func (r *LinksRepository) DeleteExpired(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM links
		 WHERE expires_at IS NOT NULL AND expires_at <= $1
		 RETURNING alias`,
		before.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return collectAliases(rows)
}

func (r *LinksRepository) DeleteStale(ctx context.Context, createdBefore time.Time, maxClicks int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM links
		 WHERE created_at < $1 AND clicks <= $2
		 RETURNING alias`,
		createdBefore.UTC(), maxClicks,
	)
	if err != nil {
		return nil, err
	}
	return collectAliases(rows)
}

func collectAliases(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, err
		}
		out = append(out, alias)
	}
	return out, rows.Err()
}

func scanLink(row pgx.Row) (*links.Link, error) {
	var link links.Link
	err := row.Scan(
		&link.Alias, &link.OriginalURL, &link.OwnerID,
		&link.CreatedAt, &link.ExpiresAt, &link.Clicks,
	)
	if err != nil {
		return nil, err
	}
	link.CreatedAt = link.CreatedAt.UTC()
	if link.ExpiresAt != nil {
		t := link.ExpiresAt.UTC()
		link.ExpiresAt = &t
	}
	return &link, nil
}

func utcOrNil(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := v.UTC()
	return &t
}
