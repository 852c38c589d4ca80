package usecase

import (
	"log/slog"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/schedule"
)

// MessageFormatter renders one candidate into the channel's message dialect.
type MessageFormatter func(ts time.Time, summary, url, category string) string

// Notifier publishes unsent in-window articles at the configured trigger
// times.
type Notifier struct {
	cfg      config.Config
	repo     domain.NotifierRepository
	files    domain.FileStore
	sender   domain.MessageSender
	format   MessageFormatter
	triggers []config.TimeOfDay
	loc      *time.Location

	now func() time.Time
}

// NewNotifier constructs a Notifier.
func NewNotifier(cfg config.Config, repo domain.NotifierRepository, files domain.FileStore, sender domain.MessageSender, format MessageFormatter, triggers []config.TimeOfDay, loc *time.Location) *Notifier {
	return &Notifier{
		cfg:      cfg,
		repo:     repo,
		files:    files,
		sender:   sender,
		format:   format,
		triggers: triggers,
		loc:      loc,
		now:      time.Now,
	}
}

// Run executes the notification loop until ctx is cancelled. One cycle runs at
// startup to catch a trigger missed while the service was down; after that a
// cycle runs only when a trigger time is reached. Waits toward the pending
// trigger are bounded by max_inactivity_interval so host suspension never
// postpones a cycle by more than that; a restart inside the same window is
// idempotent through the sent log.
func (n *Notifier) Run(ctx domain.Context) error {
	n.Cycle(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ti, err := schedule.Resolve(n.now().In(n.loc), n.triggers)
		if err != nil {
			return err
		}
		for n.now().In(n.loc).Before(ti.Next) {
			wait := ti.Next.Sub(n.now().In(n.loc))
			if wait > n.cfg.MaxInactivityInterval {
				wait = n.cfg.MaxInactivityInterval
			}
			if err := schedule.Sleep(ctx, wait); err != nil {
				return err
			}
		}
		n.Cycle(ctx)
	}
}

// Cycle publishes the current window's unsent candidates in ascending
// timestamp order. Send errors leave the article unsent for a later pass
// while its timestamp stays in-window.
func (n *Notifier) Cycle(ctx domain.Context) {
	now := n.now().In(n.loc)
	ti, err := schedule.Resolve(now, n.triggers)
	if err != nil {
		slog.Error("trigger resolution failed", slog.String("error", err.Error()))
		return
	}

	if err := n.repo.PruneSent(ctx, now.Add(-n.cfg.SentRetention)); err != nil {
		slog.Error("sent-log prune failed", slog.String("error", err.Error()))
	}

	from, to := ti.Window(n.cfg.NotificationShift())
	sent, err := n.repo.SentIDs(ctx, from)
	if err != nil {
		slog.Error("sent-log load failed", slog.String("error", err.Error()))
		return
	}
	cands, err := n.repo.Candidates(ctx, from, to)
	if err != nil {
		slog.Error("candidate selection failed", slog.String("error", err.Error()))
		return
	}

	for _, cand := range cands {
		if ctx.Err() != nil {
			return
		}
		if _, done := sent[cand.ArticleID]; done {
			continue
		}
		start := n.now()
		if !n.publish(ctx, cand) {
			continue
		}
		// Keep message pacing net of the send itself.
		if delay := n.cfg.MessageDelay - time.Since(start); delay > 0 {
			if err := schedule.Sleep(ctx, delay); err != nil {
				return
			}
		}
	}
}

func (n *Notifier) publish(ctx domain.Context, cand domain.Candidate) bool {
	path, err := n.repo.SummaryPath(ctx, cand.ArticleID, n.cfg.NotifierSummaryLang)
	if err != nil {
		slog.Error("summary lookup failed",
			slog.Int64("article_id", cand.ArticleID),
			slog.String("lang", n.cfg.NotifierSummaryLang),
			slog.String("error", err.Error()))
		return false
	}
	summary, err := n.files.Read(path)
	if err != nil {
		slog.Error("summary read failed", slog.Int64("article_id", cand.ArticleID), slog.String("error", err.Error()))
		return false
	}

	text := n.format(cand.Timestamp.In(n.loc), summary, cand.URL, cand.Category)
	if err := n.sender.Send(ctx, text); err != nil {
		observability.MessagesSentTotal.WithLabelValues("failed").Inc()
		slog.Error("message send failed", slog.Int64("article_id", cand.ArticleID), slog.String("error", err.Error()))
		return false
	}
	// Send-then-record: a crash between the two may duplicate one message on
	// restart; the sent log bounds that window.
	if err := n.repo.RecordSent(ctx, domain.SentRecord{ArticleID: cand.ArticleID, Timestamp: cand.Timestamp}); err != nil {
		slog.Error("sent record failed", slog.Int64("article_id", cand.ArticleID), slog.String("error", err.Error()))
		return false
	}
	observability.MessagesSentTotal.WithLabelValues("sent").Inc()
	slog.Info("article published",
		slog.Int64("article_id", cand.ArticleID),
		slog.String("category", cand.Category))
	return true
}
