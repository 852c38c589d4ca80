package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/agent"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// In-memory port fakes shared by the service-loop tests.

type sourceStub struct {
	internet bool
	api      bool

	indexes    map[string][]domain.IndexEntry // keyed by YYYY-MM-DD
	indexErrs  map[string]error
	fetchedIdx []string

	pages    map[string][]byte
	fetchErr error
}

func newSourceStub() *sourceStub {
	return &sourceStub{
		internet:  true,
		api:       true,
		indexes:   map[string][]domain.IndexEntry{},
		indexErrs: map[string]error{},
		pages:     map[string][]byte{},
	}
}

func (s *sourceStub) FetchIndex(_ domain.Context, date time.Time) ([]byte, []domain.IndexEntry, error) {
	key := date.Format("2006-01-02")
	s.fetchedIdx = append(s.fetchedIdx, key)
	if err := s.indexErrs[key]; err != nil {
		return nil, nil, err
	}
	return []byte(`{"ultimas":[]}`), s.indexes[key], nil
}

func (s *sourceStub) FetchArticle(_ domain.Context, url string) ([]byte, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.pages[url], nil
}

func (s *sourceStub) CheckInternet(domain.Context) bool { return s.internet }
func (s *sourceStub) CheckAPI(domain.Context) bool      { return s.api }

type indexRepoStub struct {
	days     map[string]string // YYYY-MM-DD -> index path
	gaps     []domain.Gap
	ingested [][]domain.IndexEntry
}

func newIndexRepoStub() *indexRepoStub {
	return &indexRepoStub{days: map[string]string{}}
}

func (r *indexRepoStub) IngestDay(_ domain.Context, day domain.DailyIndex, entries []domain.IndexEntry) error {
	r.days[day.Date.Format("2006-01-02")] = day.Path
	r.ingested = append(r.ingested, entries)
	return nil
}

func (r *indexRepoStub) HasDay(_ domain.Context, date time.Time) (bool, error) {
	_, ok := r.days[date.Format("2006-01-02")]
	return ok, nil
}

func (r *indexRepoStub) DateRange(domain.Context) (time.Time, time.Time, error) {
	if len(r.days) == 0 {
		return time.Time{}, time.Time{}, domain.ErrNotFound
	}
	keys := make([]string, 0, len(r.days))
	for k := range r.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	oldest, _ := time.Parse("2006-01-02", keys[0])
	latest, _ := time.Parse("2006-01-02", keys[len(keys)-1])
	return oldest, latest, nil
}

func (r *indexRepoStub) InsertGap(_ domain.Context, gap domain.Gap) error {
	if gap.Empty() {
		return domain.ErrInvalidArgument
	}
	// Tests never exercise overlap merging here; the postgres repo owns it.
	r.gaps = append(r.gaps, gap)
	sort.Slice(r.gaps, func(i, j int) bool { return r.gaps[i].From.Before(r.gaps[j].From) })
	return nil
}

func (r *indexRepoStub) EarliestGap(domain.Context) (domain.Gap, error) {
	if len(r.gaps) == 0 {
		return domain.Gap{}, domain.ErrNotFound
	}
	return r.gaps[0], nil
}

func (r *indexRepoStub) ShrinkGap(_ domain.Context, gap, remainder domain.Gap) error {
	for i, g := range r.gaps {
		if g.From.Equal(gap.From) {
			if remainder.Empty() {
				r.gaps = append(r.gaps[:i], r.gaps[i+1:]...)
			} else {
				r.gaps[i] = remainder
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type fileStoreStub struct {
	files   map[string]string
	readErr error
	saveErr error
}

func newFileStoreStub() *fileStoreStub { return &fileStoreStub{files: map[string]string{}} }

func (f *fileStoreStub) SaveIndex(date time.Time, raw []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := "metadata/" + date.Format("2006/01/02") + ".json"
	f.files[path] = string(raw)
	return path, nil
}

func (f *fileStoreStub) SaveArticle(ts time.Time, id int64, title, markdown string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := fmt.Sprintf("news/%s/%s-%d.md", ts.Format("2006-01-02"), ts.Format("15-04"), id)
	f.files[path] = "# " + title + "\n\n" + markdown
	return path, nil
}

func (f *fileStoreStub) SaveSummary(ts time.Time, id int64, lang, content string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := fmt.Sprintf("news/%s/%s-%d-sum.%s.txt", ts.Format("2006-01-02"), ts.Format("15-04"), id, lang)
	f.files[path] = content
	return path, nil
}

func (f *fileStoreStub) Read(path string) (string, error) {
	if f.readErr != nil {
		return "", f.readErr
	}
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, domain.ErrNotFound)
	}
	return content, nil
}

type articleRepoStub struct {
	pending    []domain.Article
	categories map[int64][]string

	skipped      []int64
	failed       []int64
	contentPaths map[int64]string
	windowStarts []time.Time
	markErr      error
	pathErr      error
}

func newArticleRepoStub() *articleRepoStub {
	return &articleRepoStub{categories: map[int64][]string{}, contentPaths: map[int64]string{}}
}

func (r *articleRepoStub) ExistingIDs(_ domain.Context, ids []int64) (map[int64]struct{}, error) {
	return map[int64]struct{}{}, nil
}

func (r *articleRepoStub) SetContentPath(_ domain.Context, id int64, path string) error {
	if r.pathErr != nil {
		return r.pathErr
	}
	r.contentPaths[id] = path
	return nil
}

func (r *articleRepoStub) MarkSkipped(_ domain.Context, id int64) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.skipped = append(r.skipped, id)
	return nil
}

func (r *articleRepoStub) MarkFailed(_ domain.Context, id int64) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.failed = append(r.failed, id)
	return nil
}

func (r *articleRepoStub) SelectForDownload(_ domain.Context, windowStart time.Time, limit int) ([]domain.Article, error) {
	r.windowStarts = append(r.windowStarts, windowStart)
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *articleRepoStub) CategoriesFor(_ domain.Context, ids []int64) (map[int64][]string, error) {
	out := map[int64][]string{}
	for _, id := range ids {
		out[id] = r.categories[id]
	}
	return out, nil
}

type smartCatsStub struct {
	cats      []domain.SmartCategory
	upserted  []domain.SmartCategory
	allErr    error
	upsertErr error
}

func (s *smartCatsStub) All(domain.Context) ([]domain.SmartCategory, error) {
	if s.allErr != nil {
		return nil, s.allErr
	}
	return s.cats, nil
}

func (s *smartCatsStub) Upsert(_ domain.Context, cat domain.SmartCategory) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, cat)
	return nil
}

func (s *smartCatsStub) Seed(_ domain.Context, cats []domain.SmartCategory) error {
	if len(s.cats) == 0 {
		s.cats = cats
	}
	return nil
}

type notifierRepoStub struct {
	articles  map[int64]domain.NotifierArticle
	summaries map[int64]map[string]string // id -> lang -> path

	candidates []domain.Candidate
	sent       map[int64]time.Time
	pruned     []time.Time

	upsertErr error
	addErr    error
	sentErr   error
}

func newNotifierRepoStub() *notifierRepoStub {
	return &notifierRepoStub{
		articles:  map[int64]domain.NotifierArticle{},
		summaries: map[int64]map[string]string{},
		sent:      map[int64]time.Time{},
	}
}

func (r *notifierRepoStub) UpsertArticle(_ domain.Context, na domain.NotifierArticle) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.articles[na.ArticleID] = na
	return nil
}

func (r *notifierRepoStub) GetArticle(_ domain.Context, id int64) (domain.NotifierArticle, error) {
	na, ok := r.articles[id]
	if !ok {
		return domain.NotifierArticle{}, domain.ErrNotFound
	}
	return na, nil
}

func (r *notifierRepoStub) AddSummaries(_ domain.Context, na domain.NotifierArticle, sums []domain.Summary) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.articles[na.ArticleID] = na
	for _, s := range sums {
		if r.summaries[s.ArticleID] == nil {
			r.summaries[s.ArticleID] = map[string]string{}
		}
		r.summaries[s.ArticleID][s.Lang] = s.Path
	}
	return nil
}

func (r *notifierRepoStub) SummaryPath(_ domain.Context, id int64, lang string) (string, error) {
	path, ok := r.summaries[id][lang]
	if !ok {
		return "", domain.ErrNotFound
	}
	return path, nil
}

func (r *notifierRepoStub) HasSummaries(_ domain.Context, id int64) (bool, error) {
	return len(r.summaries[id]) > 0, nil
}

func (r *notifierRepoStub) Candidates(_ domain.Context, from, to time.Time) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for _, c := range r.candidates {
		if !c.Timestamp.Before(from) && c.Timestamp.Before(to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *notifierRepoStub) SentIDs(_ domain.Context, from time.Time) (map[int64]struct{}, error) {
	out := map[int64]struct{}{}
	for id := range r.sent {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *notifierRepoStub) RecordSent(_ domain.Context, rec domain.SentRecord) error {
	if r.sentErr != nil {
		return r.sentErr
	}
	r.sent[rec.ArticleID] = rec.Timestamp
	return nil
}

func (r *notifierRepoStub) PruneSent(_ domain.Context, before time.Time) error {
	r.pruned = append(r.pruned, before)
	for id, ts := range r.sent {
		if ts.Before(before) {
			delete(r.sent, id)
		}
	}
	return nil
}

type senderStub struct {
	sent    []string
	sendErr error
}

func (s *senderStub) Send(_ domain.Context, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

type pipelineStub struct {
	categorized  []string
	catResult    agent.CategoryResult
	catErr       error
	sumResult    agent.SummaryResult
	sumErr       error
	summarizedOn []string
}

func (p *pipelineStub) Categorize(_ domain.Context, article string, _ map[string]string) (agent.CategoryResult, error) {
	p.categorized = append(p.categorized, article)
	return p.catResult, p.catErr
}

func (p *pipelineStub) Summarize(_ domain.Context, article string) (agent.SummaryResult, error) {
	p.summarizedOn = append(p.summarizedOn, article)
	if p.sumErr != nil {
		return nil, p.sumErr
	}
	return p.sumResult, nil
}
