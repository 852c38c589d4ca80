package usecase

import (
	"log/slog"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/schedule"
)

// Downloader fetches article bodies, converts them to markdown and hands the
// stored content to the analyzer. Each article is one unit of work; a failure
// affects only that article.
type Downloader struct {
	cfg      config.Config
	articles domain.ArticleRepository
	source   domain.SourceClient
	parser   domain.ArticleParser
	files    domain.FileStore
	analyzer *Analyzer
	triggers []config.TimeOfDay
	loc      *time.Location

	now func() time.Time
}

// NewDownloader constructs a Downloader. triggers are the notifier's trigger
// times, used only to prioritize articles inside the upcoming window.
func NewDownloader(cfg config.Config, articles domain.ArticleRepository, source domain.SourceClient, parser domain.ArticleParser, files domain.FileStore, analyzer *Analyzer, triggers []config.TimeOfDay, loc *time.Location) *Downloader {
	return &Downloader{
		cfg:      cfg,
		articles: articles,
		source:   source,
		parser:   parser,
		files:    files,
		analyzer: analyzer,
		triggers: triggers,
		loc:      loc,
		now:      time.Now,
	}
}

// Run executes the download loop until ctx is cancelled.
func (d *Downloader) Run(ctx domain.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.Cycle(ctx)
		if err := schedule.Sleep(ctx, d.cfg.DownloadInterval); err != nil {
			return err
		}
	}
}

// Cycle processes one chunk of pending articles: in-window articles oldest
// first, then the backlog newest first.
func (d *Downloader) Cycle(ctx domain.Context) {
	if !d.source.CheckInternet(ctx) {
		slog.Warn("no internet connectivity, skipping cycle")
		return
	}

	windowStart := d.windowStart()
	arts, err := d.articles.SelectForDownload(ctx, windowStart, d.cfg.DownloadsChunkSize)
	if err != nil {
		slog.Error("article selection failed", slog.String("error", err.Error()))
		return
	}
	if len(arts) == 0 {
		return
	}

	ids := make([]int64, len(arts))
	for i, a := range arts {
		ids[i] = a.ID
	}
	cats, err := d.articles.CategoriesFor(ctx, ids)
	if err != nil {
		slog.Error("category lookup failed", slog.String("error", err.Error()))
		return
	}

	for _, art := range arts {
		if ctx.Err() != nil {
			return
		}
		d.processArticle(ctx, art, cats[art.ID])
	}
}

// windowStart is the lower bound of the notification window the notifier will
// use on its next trigger; articles at or after it are downloaded first.
func (d *Downloader) windowStart() time.Time {
	ti, err := schedule.Resolve(d.now().In(d.loc), d.triggers)
	if err != nil {
		return d.now()
	}
	from, _ := ti.NextWindow(d.cfg.NotificationShift())
	return from
}

func (d *Downloader) processArticle(ctx domain.Context, art domain.Article, categories []string) {
	ignored := d.cfg.IgnoreCategorySet()
	for _, cat := range categories {
		if _, skip := ignored[cat]; skip {
			if err := d.articles.MarkSkipped(ctx, art.ID); err != nil {
				slog.Error("skip mark failed", slog.Int64("article_id", art.ID), slog.String("error", err.Error()))
				return
			}
			observability.ArticlesProcessedTotal.WithLabelValues("skipped").Inc()
			slog.Info("article skipped", slog.Int64("article_id", art.ID), slog.String("category", cat))
			return
		}
	}

	html, err := d.source.FetchArticle(ctx, art.URL)
	if err != nil {
		d.markFailed(ctx, art.ID, "fetch", err)
		return
	}
	title, markdown, err := d.parser.Parse(html)
	if err != nil {
		d.markFailed(ctx, art.ID, "parse", err)
		return
	}

	path, err := d.files.SaveArticle(art.Timestamp.In(d.loc), art.ID, title, markdown)
	if err != nil {
		// Storage errors leave the article pending for the next cycle.
		slog.Error("article save failed", slog.Int64("article_id", art.ID), slog.String("error", err.Error()))
		return
	}
	if err := d.articles.SetContentPath(ctx, art.ID, path); err != nil {
		slog.Error("content path update failed", slog.Int64("article_id", art.ID), slog.String("error", err.Error()))
		return
	}
	observability.ArticlesProcessedTotal.WithLabelValues("downloaded").Inc()
	slog.Info("article downloaded", slog.Int64("article_id", art.ID), slog.String("path", path))

	// Analysis runs in its own transaction; its failure never undoes the
	// download.
	if err := d.analyzer.Analyze(ctx, art, path); err != nil {
		slog.Error("article analysis failed", slog.Int64("article_id", art.ID), slog.String("error", err.Error()))
	}
}

func (d *Downloader) markFailed(ctx domain.Context, id int64, stage string, cause error) {
	if err := d.articles.MarkFailed(ctx, id); err != nil {
		slog.Error("failure mark failed", slog.Int64("article_id", id), slog.String("error", err.Error()))
		return
	}
	observability.ArticlesProcessedTotal.WithLabelValues("failed").Inc()
	slog.Warn("article failed",
		slog.Int64("article_id", id),
		slog.String("stage", stage),
		slog.String("error", cause.Error()))
}
