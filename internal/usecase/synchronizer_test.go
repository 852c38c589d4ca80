package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestSynchronizer(chunk int, now time.Time) (*Synchronizer, *sourceStub, *indexRepoStub) {
	src := newSourceStub()
	idx := newIndexRepoStub()
	s := NewSynchronizer(config.Config{DaysChunkSize: chunk}, src, idx, newFileStoreStub(), time.UTC)
	s.now = func() time.Time { return now }
	return s, src, idx
}

func TestSynchronizerSkipsCycleWhenOffline(t *testing.T) {
	s, src, _ := newTestSynchronizer(5, day("2024-06-04"))
	src.internet = false

	s.Cycle(context.Background())
	assert.Empty(t, src.fetchedIdx)
}

func TestSynchronizerOpensGapOnDaySwitch(t *testing.T) {
	now := day("2024-06-04").Add(10 * time.Hour)
	s, _, idx := newTestSynchronizer(1, now)
	idx.days["2024-06-01"] = "metadata/2024/06/01.json"

	s.Cycle(context.Background())

	// Today was ingested and, with days_chunk_size=1, the first gap day too.
	assert.Contains(t, idx.days, "2024-06-04")
	assert.Contains(t, idx.days, "2024-06-02")
	require.Len(t, idx.gaps, 1)
	assert.Equal(t, domain.Gap{From: day("2024-06-03"), To: day("2024-06-04")}, idx.gaps[0])

	// Second cycle covers the last missing day and drops the gap row.
	s.Cycle(context.Background())
	assert.Contains(t, idx.days, "2024-06-03")
	assert.Empty(t, idx.gaps)
}

func TestSynchronizerNoGapWhenYesterdayCovered(t *testing.T) {
	s, _, idx := newTestSynchronizer(5, day("2024-06-04").Add(8*time.Hour))
	idx.days["2024-06-03"] = "metadata/2024/06/03.json"

	s.Cycle(context.Background())
	assert.Empty(t, idx.gaps)
	assert.Contains(t, idx.days, "2024-06-04")
}

func TestSynchronizerTodayFailureLeavesGapProcessing(t *testing.T) {
	now := day("2024-06-04").Add(time.Hour)
	s, src, idx := newTestSynchronizer(5, now)
	idx.days["2024-06-02"] = "x"
	src.indexErrs["2024-06-04"] = domain.ErrUnavailable

	s.Cycle(context.Background())

	// Today stays uncovered; the gap day from the switch was still processed.
	assert.NotContains(t, idx.days, "2024-06-04")
	assert.Contains(t, idx.days, "2024-06-03")
	assert.Empty(t, idx.gaps)
}

func TestSynchronizerGapNeverReachesToday(t *testing.T) {
	now := day("2024-06-04").Add(time.Hour)
	s, _, idx := newTestSynchronizer(10, now)
	idx.gaps = []domain.Gap{{From: day("2024-06-03"), To: day("2024-06-05")}}
	idx.days["2024-06-02"] = "x"

	s.processGapChunk(context.Background(), day("2024-06-04"))

	assert.Contains(t, idx.days, "2024-06-03")
	assert.NotContains(t, idx.days, "2024-06-05")
	require.Len(t, idx.gaps, 1)
	assert.Equal(t, day("2024-06-04"), idx.gaps[0].From)
}

func TestSynchronizerInitialGap(t *testing.T) {
	now := day("2024-06-01").Add(6 * time.Hour)
	src := newSourceStub()
	idx := newIndexRepoStub()
	s := NewSynchronizer(config.Config{FirstDay: "2024-05-30", DaysChunkSize: 5}, src, idx, newFileStoreStub(), time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.ensureInitialGap(context.Background()))
	require.Len(t, idx.gaps, 1)
	assert.Equal(t, domain.Gap{From: day("2024-05-30"), To: day("2024-06-01")}, idx.gaps[0])
}

func TestSynchronizerInitialGapBoundedByOldestDay(t *testing.T) {
	src := newSourceStub()
	idx := newIndexRepoStub()
	idx.days["2024-05-28"] = "x"
	s := NewSynchronizer(config.Config{FirstDay: "2024-05-25", DaysChunkSize: 5}, src, idx, newFileStoreStub(), time.UTC)
	s.now = func() time.Time { return day("2024-06-01") }

	require.NoError(t, s.ensureInitialGap(context.Background()))
	require.Len(t, idx.gaps, 1)
	assert.Equal(t, domain.Gap{From: day("2024-05-25"), To: day("2024-05-28")}, idx.gaps[0])
}

func TestSynchronizerNoFirstDayNoGap(t *testing.T) {
	s, _, idx := newTestSynchronizer(5, day("2024-06-01"))
	require.NoError(t, s.ensureInitialGap(context.Background()))
	assert.Empty(t, idx.gaps)
}
