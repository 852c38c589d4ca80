package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// IndexRepo tracks ingested daily indexes and coverage gaps.
type IndexRepo struct{ Pool PgxPool }

// NewIndexRepo constructs an IndexRepo with the given pool.
func NewIndexRepo(p PgxPool) *IndexRepo { return &IndexRepo{Pool: p} }

// IngestDay applies one day's ingestion in a single transaction: catalog
// entries, articles, category links and the daily-index row. Conflicting rows
// are left untouched, so re-ingesting a day only refreshes the index path.
func (r *IndexRepo) IngestDay(ctx domain.Context, day domain.DailyIndex, entries []domain.IndexEntry) error {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.IngestDay")
	defer span.End()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=index.ingest_day: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		for _, cat := range e.Categories {
			if _, err := tx.Exec(ctx,
				`INSERT INTO categories_catalog (name) VALUES ($1) ON CONFLICT DO NOTHING`, cat); err != nil {
				return fmt.Errorf("op=index.ingest_day: %w", err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO news (id, url, ts) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
			e.ID, e.URL, e.Timestamp); err != nil {
			return fmt.Errorf("op=index.ingest_day: %w", err)
		}
		for _, cat := range e.Categories {
			if _, err := tx.Exec(ctx,
				`INSERT INTO news_categories (news_id, category) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
				e.ID, cat); err != nil {
				return fmt.Errorf("op=index.ingest_day: %w", err)
			}
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO daily_indexes (day, path) VALUES ($1,$2)
		 ON CONFLICT (day) DO UPDATE SET path = EXCLUDED.path`,
		day.Date, day.Path); err != nil {
		return fmt.Errorf("op=index.ingest_day: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=index.ingest_day: %w", err)
	}
	return nil
}

// HasDay reports whether a date's index was already ingested.
func (r *IndexRepo) HasDay(ctx domain.Context, date time.Time) (bool, error) {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.HasDay")
	defer span.End()
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM daily_indexes WHERE day=$1)`
	if err := r.Pool.QueryRow(ctx, q, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=index.has_day: %w", err)
	}
	return exists, nil
}

// DateRange returns the oldest and latest ingested dates, or ErrNotFound when
// no day was ingested yet.
func (r *IndexRepo) DateRange(ctx domain.Context) (time.Time, time.Time, error) {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.DateRange")
	defer span.End()
	var oldest, latest *time.Time
	q := `SELECT MIN(day), MAX(day) FROM daily_indexes`
	if err := r.Pool.QueryRow(ctx, q).Scan(&oldest, &latest); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("op=index.date_range: %w", err)
	}
	if oldest == nil || latest == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("op=index.date_range: %w", domain.ErrNotFound)
	}
	return *oldest, *latest, nil
}

// InsertGap stores a gap, merging it with every stored gap it touches or
// overlaps so the table always holds disjoint intervals.
func (r *IndexRepo) InsertGap(ctx domain.Context, gap domain.Gap) error {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.InsertGap")
	defer span.End()
	if gap.Empty() {
		return fmt.Errorf("op=index.insert_gap: empty gap: %w", domain.ErrInvalidArgument)
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=index.insert_gap: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Half-open intervals touch when one's end equals the other's start.
	rows, err := tx.Query(ctx,
		`SELECT gap_start, gap_end FROM index_gaps WHERE gap_start <= $2 AND gap_end >= $1 FOR UPDATE`,
		gap.From, gap.To)
	if err != nil {
		return fmt.Errorf("op=index.insert_gap: %w", err)
	}
	merged := gap
	var absorbed []time.Time
	for rows.Next() {
		var from, to time.Time
		if err := rows.Scan(&from, &to); err != nil {
			rows.Close()
			return fmt.Errorf("op=index.insert_gap: %w", err)
		}
		if from.Before(merged.From) {
			merged.From = from
		}
		if to.After(merged.To) {
			merged.To = to
		}
		absorbed = append(absorbed, from)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("op=index.insert_gap: %w", err)
	}

	for _, from := range absorbed {
		if _, err := tx.Exec(ctx, `DELETE FROM index_gaps WHERE gap_start=$1`, from); err != nil {
			return fmt.Errorf("op=index.insert_gap: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO index_gaps (gap_start, gap_end) VALUES ($1,$2)`,
		merged.From, merged.To); err != nil {
		return fmt.Errorf("op=index.insert_gap: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=index.insert_gap: %w", err)
	}
	return nil
}

// EarliestGap returns the stored gap with the oldest start, or ErrNotFound.
func (r *IndexRepo) EarliestGap(ctx domain.Context) (domain.Gap, error) {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.EarliestGap")
	defer span.End()
	var g domain.Gap
	q := `SELECT gap_start, gap_end FROM index_gaps ORDER BY gap_start LIMIT 1`
	if err := r.Pool.QueryRow(ctx, q).Scan(&g.From, &g.To); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Gap{}, fmt.Errorf("op=index.earliest_gap: %w", domain.ErrNotFound)
		}
		return domain.Gap{}, fmt.Errorf("op=index.earliest_gap: %w", err)
	}
	return g, nil
}

// ShrinkGap replaces gap with remainder after its leading dates were ingested,
// or deletes it when nothing remains.
func (r *IndexRepo) ShrinkGap(ctx domain.Context, gap domain.Gap, remainder domain.Gap) error {
	tracer := otel.Tracer("repo.index")
	ctx, span := tracer.Start(ctx, "index.ShrinkGap")
	defer span.End()
	if remainder.Empty() {
		if _, err := r.Pool.Exec(ctx, `DELETE FROM index_gaps WHERE gap_start=$1`, gap.From); err != nil {
			return fmt.Errorf("op=index.shrink_gap: %w", err)
		}
		return nil
	}
	q := `UPDATE index_gaps SET gap_start=$2, gap_end=$3 WHERE gap_start=$1`
	if _, err := r.Pool.Exec(ctx, q, gap.From, remainder.From, remainder.To); err != nil {
		return fmt.Errorf("op=index.shrink_gap: %w", err)
	}
	return nil
}
