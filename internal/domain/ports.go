package domain

import "time"

// Repositories (ports)

// ArticleRepository persists articles and their source-declared categories.
type ArticleRepository interface {
	ExistingIDs(ctx Context, ids []int64) (map[int64]struct{}, error)
	SetContentPath(ctx Context, id int64, path string) error
	MarkSkipped(ctx Context, id int64) error
	MarkFailed(ctx Context, id int64) error
	// SelectForDownload returns up to limit articles with no content, not
	// skipped and not failed: first those timestamped at or after windowStart
	// oldest-first, then the backlog newest-first.
	SelectForDownload(ctx Context, windowStart time.Time, limit int) ([]Article, error)
	// CategoriesFor returns the source-declared categories of each article.
	CategoriesFor(ctx Context, ids []int64) (map[int64][]string, error)
}

// IndexRepository tracks ingested daily indexes and coverage gaps.
type IndexRepository interface {
	// IngestDay applies one day's ingestion transactionally: new catalog
	// entries, new articles, category links and the daily-index row,
	// all-or-nothing. Re-ingestion of a covered day is a no-op beyond
	// refreshing the index path.
	IngestDay(ctx Context, day DailyIndex, entries []IndexEntry) error
	HasDay(ctx Context, date time.Time) (bool, error)
	DateRange(ctx Context) (oldest, latest time.Time, err error)
	// InsertGap stores a gap, coalescing with any stored gap that touches or
	// overlaps it so stored gaps stay disjoint.
	InsertGap(ctx Context, gap Gap) error
	EarliestGap(ctx Context) (Gap, error)
	// ShrinkGap replaces gap with remainder (or deletes it when remainder is
	// empty) after its leading dates were ingested.
	ShrinkGap(ctx Context, gap Gap, remainder Gap) error
}

// SmartCategoryRepository stores the LLM-curated category catalog.
type SmartCategoryRepository interface {
	All(ctx Context) ([]SmartCategory, error)
	// Upsert inserts the category if absent; existing rows win.
	Upsert(ctx Context, cat SmartCategory) error
	// Seed inserts the predefined catalog when the table is empty.
	Seed(ctx Context, cats []SmartCategory) error
}

// NotifierRepository stores analysis projections, summaries and the sent log.
type NotifierRepository interface {
	UpsertArticle(ctx Context, na NotifierArticle) error
	GetArticle(ctx Context, id int64) (NotifierArticle, error)
	AddSummaries(ctx Context, na NotifierArticle, sums []Summary) error
	SummaryPath(ctx Context, id int64, lang string) (string, error)
	HasSummaries(ctx Context, id int64) (bool, error)
	// Candidates returns publishable articles with timestamps in [from, to),
	// not skipped/failed, relation direct or indirect, category not ignored,
	// ordered by timestamp ascending. URL is joined from the article row.
	Candidates(ctx Context, from, to time.Time) ([]Candidate, error)
	SentIDs(ctx Context, from time.Time) (map[int64]struct{}, error)
	RecordSent(ctx Context, rec SentRecord) error
	PruneSent(ctx Context, before time.Time) error
}

// Candidate is a publishable article joined with its URL.
type Candidate struct {
	ArticleID int64
	Timestamp time.Time
	URL       string
	Category  string
}

// SourceClient is the read-only CRHoy API (ports for the index and article pages).
type SourceClient interface {
	// FetchIndex returns the raw index JSON and its parsed entries for a date.
	// A day unknown to the source yields zero entries, not an error.
	FetchIndex(ctx Context, date time.Time) (raw []byte, entries []IndexEntry, err error)
	FetchArticle(ctx Context, url string) (html []byte, err error)
	CheckInternet(ctx Context) bool
	CheckAPI(ctx Context) bool
}

// ArticleParser converts source HTML into markdown.
type ArticleParser interface {
	Parse(html []byte) (title, markdown string, err error)
}

// Engine is the LLM back-end: one structured-output generation per call.
// Messages carry the caller-owned chat history; Schema declares the expected
// JSON shape. Implementations route through the per-model rate limiter.
type Engine interface {
	Generate(ctx Context, req GenerateRequest) (string, error)
}

// GenerateRequest is one chat-completion call.
type GenerateRequest struct {
	Model        string
	System       string
	Messages     []Message
	Temperature  float64
	MaxTokens    int
	Schema       *Schema
	SchemaName   string
}

// Message is one turn of agent chat history.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Schema is a minimal JSON-schema subset for structured outputs.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// MessageSender publishes formatted messages to the channel.
type MessageSender interface {
	Send(ctx Context, text string) error
}

// FileStore persists index JSON, article markdown and summaries.
type FileStore interface {
	SaveIndex(date time.Time, raw []byte) (string, error)
	SaveArticle(ts time.Time, id int64, title, markdown string) (string, error)
	SaveSummary(ts time.Time, id int64, lang, content string) (string, error)
	Read(path string) (string, error)
}
