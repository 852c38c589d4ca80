package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("upstream unavailable")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrGeneration      = errors.New("generation failed")
	ErrInternal        = errors.New("internal error")
)

// UnknownCategory is the distinguished smart category assigned to articles whose
// analysis failed. The row always exists and is never deleted.
const UnknownCategory = "__unknown__"

// Relation captures how an article relates to Costa Rica.
type Relation string

const (
	RelationDirect        Relation = "directly"
	RelationIndirect      Relation = "indirectly"
	RelationNotApplicable Relation = "na"
)

// Valid reports whether r is one of the declared relation values.
func (r Relation) Valid() bool {
	switch r {
	case RelationDirect, RelationIndirect, RelationNotApplicable:
		return true
	}
	return false
}

// Article is one news item from the source index.
// Invariants: ID is source-assigned; ContentPath non-empty implies the file exists;
// only the downloader mutates Skipped/Failed/ContentPath.
type Article struct {
	ID          int64
	URL         string
	Timestamp   time.Time // source timezone
	ContentPath string    // empty until downloaded
	Skipped     bool
	Failed      bool
}

// CategoryLink ties an article to a source-declared category path.
type CategoryLink struct {
	ArticleID int64
	Category  string // e.g. "deportes/futbol"
}

// IndexEntry is one article tuple extracted from a day's index.
type IndexEntry struct {
	ID         int64
	URL        string
	Timestamp  time.Time
	Categories []string
}

// DailyIndex marks a date whose index has been ingested. Immutable once written.
type DailyIndex struct {
	Date time.Time // date only, source timezone
	Path string    // saved index JSON
}

// Gap is a half-open date interval [From, To) with no ingested index.
// Invariants: From < To; stored gaps are pairwise disjoint.
type Gap struct {
	From time.Time
	To   time.Time
}

// Days returns the dates covered by the gap, oldest first.
func (g Gap) Days() []time.Time {
	var days []time.Time
	for d := g.From; d.Before(g.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Empty reports whether the gap covers no dates.
func (g Gap) Empty() bool { return !g.From.Before(g.To) }

// SmartCategory is an LLM-curated topic label.
type SmartCategory struct {
	Name        string
	Description string
	Ignore      bool
}

// Summary records one summary file for an article in one language.
// (ArticleID, Lang) is unique.
type Summary struct {
	ArticleID int64
	Lang      string
	Path      string
}

// NotifierArticle is the "ready to publish?" projection of an article.
// Exactly one row per analyzed article.
type NotifierArticle struct {
	ArticleID int64
	Timestamp time.Time
	Relation  Relation
	Category  string // smart category name
	Skip      bool
	Failed    bool
}

// SentRecord marks an article as published at least once.
type SentRecord struct {
	ArticleID int64
	Timestamp time.Time
}

// Context is an alias to keep ports decoupled from the std context import at
// call sites; adapters pass context.Context through unchanged.
type Context = context.Context
