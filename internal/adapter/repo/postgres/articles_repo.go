package postgres

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// ArticleRepo persists articles and their source-declared categories.
type ArticleRepo struct{ Pool PgxPool }

// NewArticleRepo constructs an ArticleRepo with the given pool.
func NewArticleRepo(p PgxPool) *ArticleRepo { return &ArticleRepo{Pool: p} }

// ExistingIDs returns the subset of ids already present in the news table.
func (r *ArticleRepo) ExistingIDs(ctx domain.Context, ids []int64) (map[int64]struct{}, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.ExistingIDs")
	defer span.End()
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	q := `SELECT id FROM news WHERE id = ANY($1)`
	rows, err := r.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("op=articles.existing_ids: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("op=articles.existing_ids: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=articles.existing_ids: %w", err)
	}
	return out, nil
}

// SetContentPath records where the downloaded article content lives.
func (r *ArticleRepo) SetContentPath(ctx domain.Context, id int64, path string) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.SetContentPath")
	defer span.End()
	q := `UPDATE news SET content_path=$2 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, path); err != nil {
		return fmt.Errorf("op=articles.set_content_path: %w", err)
	}
	return nil
}

// MarkSkipped flags an article so the downloader never picks it again.
func (r *ArticleRepo) MarkSkipped(ctx domain.Context, id int64) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.MarkSkipped")
	defer span.End()
	q := `UPDATE news SET skipped=TRUE WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("op=articles.mark_skipped: %w", err)
	}
	return nil
}

// MarkFailed flags an article as permanently failed.
func (r *ArticleRepo) MarkFailed(ctx domain.Context, id int64) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.MarkFailed")
	defer span.End()
	q := `UPDATE news SET failed=TRUE WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("op=articles.mark_failed: %w", err)
	}
	return nil
}

// SelectForDownload returns up to limit pending articles. Fresh ones, at or
// after windowStart, come first oldest-first so readers see the day in order;
// the backlog follows newest-first so recent history fills in before old.
func (r *ArticleRepo) SelectForDownload(ctx domain.Context, windowStart time.Time, limit int) ([]domain.Article, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.SelectForDownload")
	defer span.End()
	q := `SELECT id, url, ts FROM news
		WHERE content_path = '' AND NOT skipped AND NOT failed
		ORDER BY (ts >= $1) DESC,
			CASE WHEN ts >= $1 THEN ts END ASC,
			CASE WHEN ts < $1 THEN ts END DESC
		LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, windowStart, limit)
	if err != nil {
		return nil, fmt.Errorf("op=articles.select_for_download: %w", err)
	}
	defer rows.Close()
	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("op=articles.select_for_download: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=articles.select_for_download: %w", err)
	}
	return out, nil
}

// CategoriesFor returns the source-declared categories of each article.
func (r *ArticleRepo) CategoriesFor(ctx domain.Context, ids []int64) (map[int64][]string, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.CategoriesFor")
	defer span.End()
	if len(ids) == 0 {
		return map[int64][]string{}, nil
	}
	q := `SELECT news_id, category FROM news_categories WHERE news_id = ANY($1) ORDER BY news_id, category`
	rows, err := r.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("op=articles.categories_for: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]string, len(ids))
	for rows.Next() {
		var id int64
		var cat string
		if err := rows.Scan(&id, &cat); err != nil {
			return nil, fmt.Errorf("op=articles.categories_for: %w", err)
		}
		out[id] = append(out[id], cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=articles.categories_for: %w", err)
	}
	return out, nil
}
