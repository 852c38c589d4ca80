package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/agent"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/schedule"
)

// AnalysisPipeline is the slice of the agent pipeline the analyzer needs.
type AnalysisPipeline interface {
	Categorize(ctx domain.Context, article string, categories map[string]string) (agent.CategoryResult, error)
	Summarize(ctx domain.Context, article string) (agent.SummaryResult, error)
}

// Analyzer runs the LLM analysis of one downloaded article and persists its
// notifier projection and summaries.
type Analyzer struct {
	cfg       config.Config
	smartCats domain.SmartCategoryRepository
	notifier  domain.NotifierRepository
	files     domain.FileStore
	pipeline  AnalysisPipeline
	triggers  []config.TimeOfDay
	loc       *time.Location

	// Force disables the age gate, analyzing articles regardless of how old
	// they are.
	Force bool

	now func() time.Time
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(cfg config.Config, smartCats domain.SmartCategoryRepository, notifier domain.NotifierRepository, files domain.FileStore, pipeline AnalysisPipeline, triggers []config.TimeOfDay, loc *time.Location) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		smartCats: smartCats,
		notifier:  notifier,
		files:     files,
		pipeline:  pipeline,
		triggers:  triggers,
		loc:       loc,
		now:       time.Now,
	}
}

// Analyze categorizes and summarizes one downloaded article. On any analysis
// error the article is recorded under __unknown__ with failed=true so the
// notifier passes over it; the download itself stays intact.
func (a *Analyzer) Analyze(ctx domain.Context, art domain.Article, contentPath string) error {
	if a.tooOld(art) {
		observability.AnalysesTotal.WithLabelValues("skipped").Inc()
		slog.Info("analysis skipped, article predates latest trigger", slog.Int64("article_id", art.ID))
		return nil
	}
	if done, err := a.alreadyAnalyzed(ctx, art.ID); err != nil {
		return fmt.Errorf("op=analyzer.Analyze: %w", err)
	} else if done {
		return nil
	}

	// Every failure from here on is recorded as a failed projection: a
	// downloaded article is never re-selected, so leaving it without a row
	// would orphan it.
	content, err := a.files.Read(contentPath)
	if err != nil {
		return a.recordFailure(ctx, art, err)
	}

	cats, err := a.smartCats.All(ctx)
	if err != nil {
		return a.recordFailure(ctx, art, err)
	}
	catalog := make(map[string]string, len(cats))
	ignored := make(map[string]bool, len(cats))
	for _, c := range cats {
		ignored[c.Name] = c.Ignore
		if c.Name != domain.UnknownCategory {
			catalog[c.Name] = c.Description
		}
	}

	res, err := a.pipeline.Categorize(ctx, content, catalog)
	if err != nil {
		return a.recordFailure(ctx, art, err)
	}
	if res.NewCategory {
		if err := a.smartCats.Upsert(ctx, domain.SmartCategory{Name: res.Category, Description: res.Description}); err != nil {
			return a.recordFailure(ctx, art, err)
		}
		slog.Info("smart category added", slog.String("category", res.Category))
	}

	na := domain.NotifierArticle{
		ArticleID: art.ID,
		Timestamp: art.Timestamp,
		Relation:  res.Relation,
		Category:  res.Category,
		Skip:      res.Relation == domain.RelationNotApplicable || ignored[res.Category],
	}
	if na.Skip {
		if err := a.notifier.UpsertArticle(ctx, na); err != nil {
			return fmt.Errorf("op=analyzer.Analyze: %w", err)
		}
		observability.AnalysesTotal.WithLabelValues("skipped").Inc()
		slog.Info("article not publishable",
			slog.Int64("article_id", art.ID),
			slog.String("relation", string(res.Relation)),
			slog.String("category", res.Category))
		return nil
	}

	sums, err := a.pipeline.Summarize(ctx, content)
	if err != nil {
		return a.recordFailure(ctx, art, err)
	}
	summaries := make([]domain.Summary, 0, len(sums))
	for lang, text := range sums {
		path, err := a.files.SaveSummary(art.Timestamp.In(a.loc), art.ID, lang, text)
		if err != nil {
			return a.recordFailure(ctx, art, err)
		}
		summaries = append(summaries, domain.Summary{ArticleID: art.ID, Lang: lang, Path: path})
	}
	if err := a.notifier.AddSummaries(ctx, na, summaries); err != nil {
		return a.recordFailure(ctx, art, err)
	}
	observability.AnalysesTotal.WithLabelValues("ok").Inc()
	slog.Info("article analyzed",
		slog.Int64("article_id", art.ID),
		slog.String("relation", string(res.Relation)),
		slog.String("category", res.Category),
		slog.Int("summaries", len(summaries)))
	return nil
}

// tooOld applies the age gate: articles published before the latest trigger at
// or before now missed their notification window and are not worth an LLM
// budget.
func (a *Analyzer) tooOld(art domain.Article) bool {
	if a.Force {
		return false
	}
	ti, err := schedule.Resolve(a.now().In(a.loc), a.triggers)
	if err != nil {
		return false
	}
	return art.Timestamp.Before(ti.Current)
}

func (a *Analyzer) alreadyAnalyzed(ctx domain.Context, id int64) (bool, error) {
	if _, err := a.notifier.GetArticle(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// recordFailure pins the article to __unknown__ with failed=true; the state is
// terminal and the notifier never publishes it.
func (a *Analyzer) recordFailure(ctx domain.Context, art domain.Article, cause error) error {
	na := domain.NotifierArticle{
		ArticleID: art.ID,
		Timestamp: art.Timestamp,
		Relation:  domain.RelationNotApplicable,
		Category:  domain.UnknownCategory,
		Failed:    true,
	}
	if err := a.notifier.UpsertArticle(ctx, na); err != nil {
		slog.Error("failure record failed", slog.Int64("article_id", art.ID), slog.String("error", err.Error()))
	}
	observability.AnalysesTotal.WithLabelValues("failed").Inc()
	return fmt.Errorf("op=analyzer.Analyze: %w", cause)
}
