// Package schedule provides the pipeline's time arithmetic: cancellable
// long sleeps and trigger-time resolution for the notifier.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
)

// sleepQuantum bounds how long Sleep stays inside a single timer wait so a
// cancelled context is observed promptly even for multi-minute pauses.
const sleepQuantum = time.Second

// Sleep pauses for d, waking in short quanta to honor ctx cancellation.
// Returns ctx.Err() when cancelled, nil when the full duration elapsed.
func Sleep(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if remaining > sleepQuantum {
			remaining = sleepQuantum
		}
		t.Reset(remaining)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// TriggerInfo locates a moment between the configured daily trigger times.
// Current is the most recent trigger at or before the moment, Previous the
// one before that and Next the first trigger strictly after. All three are
// concrete datetimes in the configured zone and may fall on adjacent days.
type TriggerInfo struct {
	Previous time.Time
	Current  time.Time
	Next     time.Time
}

// Resolve computes the TriggerInfo for now against the daily trigger times.
// Times must be non-empty; they are sorted internally.
func Resolve(now time.Time, times []config.TimeOfDay) (TriggerInfo, error) {
	if len(times) == 0 {
		return TriggerInfo{}, fmt.Errorf("op=schedule.Resolve: no trigger times configured")
	}
	sorted := make([]config.TimeOfDay, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Hour != sorted[j].Hour {
			return sorted[i].Hour < sorted[j].Hour
		}
		return sorted[i].Minute < sorted[j].Minute
	})

	at := func(day time.Time, tod config.TimeOfDay) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
	}

	// Index of the latest trigger today at or before now; -1 when now precedes
	// them all.
	cur := -1
	for i, tod := range sorted {
		if !at(now, tod).After(now) {
			cur = i
		}
	}

	last := len(sorted) - 1
	var info TriggerInfo
	switch {
	case cur == -1:
		yesterday := now.AddDate(0, 0, -1)
		info.Current = at(yesterday, sorted[last])
		if last == 0 {
			info.Previous = at(yesterday.AddDate(0, 0, -1), sorted[last])
		} else {
			info.Previous = at(yesterday, sorted[last-1])
		}
		info.Next = at(now, sorted[0])
	case cur == 0:
		info.Current = at(now, sorted[0])
		info.Previous = at(now.AddDate(0, 0, -1), sorted[last])
		if last == 0 {
			info.Next = at(now.AddDate(0, 0, 1), sorted[0])
		} else {
			info.Next = at(now, sorted[1])
		}
	default:
		info.Current = at(now, sorted[cur])
		info.Previous = at(now, sorted[cur-1])
		if cur == last {
			info.Next = at(now.AddDate(0, 0, 1), sorted[0])
		} else {
			info.Next = at(now, sorted[cur+1])
		}
	}
	return info, nil
}

// Window is the half-open candidate interval for one notification round:
// articles analyzed since shortly before the previous trigger, up to but
// excluding the current one. The shift widens the start so articles whose
// analysis straddled the previous trigger are not lost.
func (ti TriggerInfo) Window(shift time.Duration) (from, to time.Time) {
	return ti.Previous.Add(-shift), ti.Current
}

// NextWindow is the interval the upcoming trigger will publish: between
// triggers the latest trigger at or before now becomes that round's previous,
// so the window opens shift before it and closes at the next trigger.
func (ti TriggerInfo) NextWindow(shift time.Duration) (from, to time.Time) {
	return ti.Current.Add(-shift), ti.Next
}
