package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// NotifierRepo stores analysis projections, summaries and the sent log.
type NotifierRepo struct{ Pool PgxPool }

// NewNotifierRepo constructs a NotifierRepo with the given pool.
func NewNotifierRepo(p PgxPool) *NotifierRepo { return &NotifierRepo{Pool: p} }

// UpsertArticle writes the analysis projection for one article. Re-analysis
// replaces the previous row.
func (r *NotifierRepo) UpsertArticle(ctx domain.Context, na domain.NotifierArticle) error {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.UpsertArticle")
	defer span.End()
	q := `INSERT INTO notifier_news (article_id, ts, relation, category, skip, failed)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (article_id) DO UPDATE SET
			ts=EXCLUDED.ts, relation=EXCLUDED.relation, category=EXCLUDED.category,
			skip=EXCLUDED.skip, failed=EXCLUDED.failed`
	_, err := r.Pool.Exec(ctx, q, na.ArticleID, na.Timestamp, string(na.Relation), na.Category, na.Skip, na.Failed)
	if err != nil {
		return fmt.Errorf("op=notifier.upsert_article: %w", err)
	}
	return nil
}

// GetArticle loads one analysis projection.
func (r *NotifierRepo) GetArticle(ctx domain.Context, id int64) (domain.NotifierArticle, error) {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.GetArticle")
	defer span.End()
	q := `SELECT article_id, ts, relation, category, skip, failed FROM notifier_news WHERE article_id=$1`
	var na domain.NotifierArticle
	var rel string
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&na.ArticleID, &na.Timestamp, &rel, &na.Category, &na.Skip, &na.Failed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotifierArticle{}, fmt.Errorf("op=notifier.get_article: %w", domain.ErrNotFound)
		}
		return domain.NotifierArticle{}, fmt.Errorf("op=notifier.get_article: %w", err)
	}
	na.Relation = domain.Relation(rel)
	return na, nil
}

// AddSummaries stores the projection row and its summary paths atomically, so
// a candidate never appears without its summaries.
func (r *NotifierRepo) AddSummaries(ctx domain.Context, na domain.NotifierArticle, sums []domain.Summary) error {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.AddSummaries")
	defer span.End()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=notifier.add_summaries: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `INSERT INTO notifier_news (article_id, ts, relation, category, skip, failed)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (article_id) DO UPDATE SET
			ts=EXCLUDED.ts, relation=EXCLUDED.relation, category=EXCLUDED.category,
			skip=EXCLUDED.skip, failed=EXCLUDED.failed`
	if _, err := tx.Exec(ctx, q, na.ArticleID, na.Timestamp, string(na.Relation), na.Category, na.Skip, na.Failed); err != nil {
		return fmt.Errorf("op=notifier.add_summaries: %w", err)
	}
	for _, s := range sums {
		if _, err := tx.Exec(ctx,
			`INSERT INTO notifier_summaries (article_id, lang, path) VALUES ($1,$2,$3)
			 ON CONFLICT (article_id, lang) DO UPDATE SET path=EXCLUDED.path`,
			s.ArticleID, s.Lang, s.Path); err != nil {
			return fmt.Errorf("op=notifier.add_summaries: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=notifier.add_summaries: %w", err)
	}
	return nil
}

// SummaryPath returns where an article's summary in lang lives.
func (r *NotifierRepo) SummaryPath(ctx domain.Context, id int64, lang string) (string, error) {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.SummaryPath")
	defer span.End()
	q := `SELECT path FROM notifier_summaries WHERE article_id=$1 AND lang=$2`
	var path string
	if err := r.Pool.QueryRow(ctx, q, id, lang).Scan(&path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("op=notifier.summary_path: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("op=notifier.summary_path: %w", err)
	}
	return path, nil
}

// HasSummaries reports whether any summary exists for the article.
func (r *NotifierRepo) HasSummaries(ctx domain.Context, id int64) (bool, error) {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.HasSummaries")
	defer span.End()
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM notifier_summaries WHERE article_id=$1)`
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=notifier.has_summaries: %w", err)
	}
	return exists, nil
}

// Candidates returns publishable articles with timestamps in [from, to):
// analyzed, not skipped or failed, relation direct or indirect and category
// not marked ignore, oldest first.
func (r *NotifierRepo) Candidates(ctx domain.Context, from, to time.Time) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.Candidates")
	defer span.End()
	q := `SELECT nn.article_id, nn.ts, n.url, nn.category
		FROM notifier_news nn
		JOIN news n ON n.id = nn.article_id
		LEFT JOIN smart_categories sc ON sc.name = nn.category
		WHERE nn.ts >= $1 AND nn.ts < $2
			AND NOT nn.skip AND NOT nn.failed
			AND nn.relation IN ('directly','indirectly')
			AND COALESCE(sc.ignore, FALSE) = FALSE
		ORDER BY nn.ts ASC`
	rows, err := r.Pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("op=notifier.candidates: %w", err)
	}
	defer rows.Close()
	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ArticleID, &c.Timestamp, &c.URL, &c.Category); err != nil {
			return nil, fmt.Errorf("op=notifier.candidates: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=notifier.candidates: %w", err)
	}
	return out, nil
}

// SentIDs returns ids of articles recorded as sent at or after from.
func (r *NotifierRepo) SentIDs(ctx domain.Context, from time.Time) (map[int64]struct{}, error) {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.SentIDs")
	defer span.End()
	q := `SELECT article_id FROM notifier_sent WHERE sent_at >= $1`
	rows, err := r.Pool.Query(ctx, q, from)
	if err != nil {
		return nil, fmt.Errorf("op=notifier.sent_ids: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("op=notifier.sent_ids: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=notifier.sent_ids: %w", err)
	}
	return out, nil
}

// RecordSent marks an article as published; duplicates keep the first time.
func (r *NotifierRepo) RecordSent(ctx domain.Context, rec domain.SentRecord) error {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.RecordSent")
	defer span.End()
	q := `INSERT INTO notifier_sent (article_id, sent_at) VALUES ($1,$2) ON CONFLICT DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, rec.ArticleID, rec.Timestamp); err != nil {
		return fmt.Errorf("op=notifier.record_sent: %w", err)
	}
	return nil
}

// PruneSent drops sent records older than before.
func (r *NotifierRepo) PruneSent(ctx domain.Context, before time.Time) error {
	tracer := otel.Tracer("repo.notifier")
	ctx, span := tracer.Start(ctx, "notifier.PruneSent")
	defer span.End()
	q := `DELETE FROM notifier_sent WHERE sent_at < $1`
	if _, err := r.Pool.Exec(ctx, q, before); err != nil {
		return fmt.Errorf("op=notifier.prune_sent: %w", err)
	}
	return nil
}
