package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// SmartCategoryRepo stores the LLM-curated category catalog.
type SmartCategoryRepo struct{ Pool PgxPool }

// NewSmartCategoryRepo constructs a SmartCategoryRepo with the given pool.
func NewSmartCategoryRepo(p PgxPool) *SmartCategoryRepo { return &SmartCategoryRepo{Pool: p} }

// All returns the whole catalog ordered by name.
func (r *SmartCategoryRepo) All(ctx domain.Context) ([]domain.SmartCategory, error) {
	tracer := otel.Tracer("repo.smartcategories")
	ctx, span := tracer.Start(ctx, "smartcategories.All")
	defer span.End()
	q := `SELECT name, description, ignore FROM smart_categories ORDER BY name`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=smartcategories.all: %w", err)
	}
	defer rows.Close()
	var out []domain.SmartCategory
	for rows.Next() {
		var c domain.SmartCategory
		if err := rows.Scan(&c.Name, &c.Description, &c.Ignore); err != nil {
			return nil, fmt.Errorf("op=smartcategories.all: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=smartcategories.all: %w", err)
	}
	return out, nil
}

// Upsert inserts the category if absent. Existing rows win: a concurrent
// insert of the same name keeps the first description.
func (r *SmartCategoryRepo) Upsert(ctx domain.Context, cat domain.SmartCategory) error {
	tracer := otel.Tracer("repo.smartcategories")
	ctx, span := tracer.Start(ctx, "smartcategories.Upsert")
	defer span.End()
	q := `INSERT INTO smart_categories (name, description, ignore) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, cat.Name, cat.Description, cat.Ignore); err != nil {
		return fmt.Errorf("op=smartcategories.upsert: %w", err)
	}
	return nil
}

// Seed inserts the predefined catalog when the table is empty.
func (r *SmartCategoryRepo) Seed(ctx domain.Context, cats []domain.SmartCategory) error {
	tracer := otel.Tracer("repo.smartcategories")
	ctx, span := tracer.Start(ctx, "smartcategories.Seed")
	defer span.End()
	var count int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM smart_categories`).Scan(&count); err != nil {
		return fmt.Errorf("op=smartcategories.seed: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, c := range cats {
		if err := r.Upsert(ctx, c); err != nil {
			return fmt.Errorf("op=smartcategories.seed: %w", err)
		}
	}
	return nil
}
