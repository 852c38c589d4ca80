// Package usecase contains the service loops of the pipeline.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/schedule"
)

// Synchronizer keeps daily index coverage complete from the configured first
// day up to today, recording and backfilling gaps.
type Synchronizer struct {
	cfg    config.Config
	source domain.SourceClient
	index  domain.IndexRepository
	files  domain.FileStore
	loc    *time.Location

	now func() time.Time
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(cfg config.Config, source domain.SourceClient, index domain.IndexRepository, files domain.FileStore, loc *time.Location) *Synchronizer {
	return &Synchronizer{cfg: cfg, source: source, index: index, files: files, loc: loc, now: time.Now}
}

// Run executes the main loop until ctx is cancelled. The initial gap from
// the configured first day is recorded before the first cycle.
func (s *Synchronizer) Run(ctx domain.Context) error {
	if err := s.ensureInitialGap(ctx); err != nil {
		return fmt.Errorf("op=synchronizer.Run: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Cycle(ctx)
		if err := schedule.Sleep(ctx, s.cfg.CheckUpdatesInterval); err != nil {
			return err
		}
	}
}

// Cycle performs one synchronization pass: connectivity probe, day-switch
// detection, today's ingestion and one gap chunk. Errors are logged and leave
// the affected days for the next cycle.
func (s *Synchronizer) Cycle(ctx domain.Context) {
	if !s.source.CheckInternet(ctx) {
		slog.Warn("no internet connectivity, skipping cycle")
		return
	}
	if !s.source.CheckAPI(ctx) {
		slog.Warn("source api unavailable, skipping cycle")
		return
	}

	today := dateOf(s.now(), s.loc)
	s.detectDaySwitch(ctx, today)

	if err := s.ingestDay(ctx, today, "current"); err != nil {
		slog.Error("today ingestion failed", slog.String("day", today.Format("2006-01-02")), slog.String("error", err.Error()))
	}

	s.processGapChunk(ctx, today)
}

// detectDaySwitch opens a gap over the days between the last ingested date and
// today when the wall-clock date advanced while the service was not looking.
func (s *Synchronizer) detectDaySwitch(ctx domain.Context, today time.Time) {
	has, err := s.index.HasDay(ctx, today)
	if err != nil {
		slog.Error("day-switch check failed", slog.String("error", err.Error()))
		return
	}
	if has {
		return
	}
	_, latest, err := s.index.DateRange(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("day-switch check failed", slog.String("error", err.Error()))
		}
		return
	}
	gap := domain.Gap{From: latest.AddDate(0, 0, 1), To: today}
	if gap.Empty() {
		return
	}
	if err := s.index.InsertGap(ctx, gap); err != nil {
		slog.Error("gap insert failed", slog.String("error", err.Error()))
		return
	}
	observability.GapsOpenedTotal.Inc()
	slog.Info("coverage gap opened",
		slog.String("from", gap.From.Format("2006-01-02")),
		slog.String("to", gap.To.Format("2006-01-02")))
}

// processGapChunk ingests up to days_chunk_size dates of the earliest gap,
// oldest first, shrinking the gap as days get covered.
func (s *Synchronizer) processGapChunk(ctx domain.Context, today time.Time) {
	gap, err := s.index.EarliestGap(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("gap lookup failed", slog.String("error", err.Error()))
		}
		return
	}
	days := gap.Days()
	if len(days) > s.cfg.DaysChunkSize {
		days = days[:s.cfg.DaysChunkSize]
	}
	processed := 0
	for _, day := range days {
		if ctx.Err() != nil {
			break
		}
		if !day.Before(today) {
			// The gap reaches into today; the current-day pass owns it.
			break
		}
		if err := s.ingestDay(ctx, day, "gap"); err != nil {
			slog.Error("gap day ingestion failed",
				slog.String("day", day.Format("2006-01-02")), slog.String("error", err.Error()))
			break
		}
		processed++
	}
	if processed == 0 {
		return
	}
	remainder := domain.Gap{From: gap.From.AddDate(0, 0, processed), To: gap.To}
	if err := s.index.ShrinkGap(ctx, gap, remainder); err != nil {
		slog.Error("gap shrink failed", slog.String("error", err.Error()))
	}
}

// ingestDay fetches, saves and transactionally ingests one date's index.
func (s *Synchronizer) ingestDay(ctx domain.Context, day time.Time, kind string) error {
	raw, entries, err := s.source.FetchIndex(ctx, day)
	if err != nil {
		return fmt.Errorf("op=synchronizer.ingest_day: %w", err)
	}
	path, err := s.files.SaveIndex(day, raw)
	if err != nil {
		return fmt.Errorf("op=synchronizer.ingest_day: %w", err)
	}
	known, err := s.index.HasDay(ctx, day)
	if err != nil {
		return fmt.Errorf("op=synchronizer.ingest_day: %w", err)
	}
	if err := s.index.IngestDay(ctx, domain.DailyIndex{Date: day, Path: path}, entries); err != nil {
		return fmt.Errorf("op=synchronizer.ingest_day: %w", err)
	}
	observability.DaysIngestedTotal.WithLabelValues(kind).Inc()
	if !known {
		observability.ArticlesIngestedTotal.Add(float64(len(entries)))
	}
	slog.Info("daily index ingested",
		slog.String("day", day.Format("2006-01-02")),
		slog.String("kind", kind),
		slog.Int("entries", len(entries)))
	return nil
}

// ensureInitialGap records the historical gap between the configured first day
// and the oldest ingested date (or today on an empty database).
func (s *Synchronizer) ensureInitialGap(ctx domain.Context) error {
	firstDay, err := s.cfg.ParseFirstDay()
	if err != nil {
		return err
	}
	if firstDay.IsZero() {
		return nil
	}
	to := dateOf(s.now(), s.loc)
	oldest, _, err := s.index.DateRange(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return err
	case oldest.Before(to):
		to = oldest
	}
	gap := domain.Gap{From: firstDay, To: to}
	if gap.Empty() {
		return nil
	}
	if err := s.index.InsertGap(ctx, gap); err != nil {
		return err
	}
	observability.GapsOpenedTotal.Inc()
	slog.Info("historical gap recorded",
		slog.String("from", gap.From.Format("2006-01-02")),
		slog.String("to", gap.To.Format("2006-01-02")))
	return nil
}

// dateOf truncates a moment to its calendar date in loc, normalized to UTC
// midnight so date arithmetic and storage stay zone-independent.
func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
