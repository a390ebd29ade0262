package stats

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"cdr-analyzer/internal/cdr"
)

// Repository abstracts the range-bounded reads the aggregation engine needs
// from the persistence gateway. Implemented by internal/store.
type Repository interface {
	ListRange(ctx context.Context, from, to string) ([]cdr.CallRecord, error)
	ListAnswered(ctx context.Context, from, to string) ([]cdr.CallRecord, error)
	ListWithCaller(ctx context.Context, from, to string) ([]cdr.CallRecord, error)
}

const isoLayout = "2006-01-02T15:04:05"

// defaultRangeDays is applied when a request carries no bounds at all.
const defaultRangeDays = 7

// Service computes reporting aggregates over persisted call records.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// resolveRange fills absent bounds with "now minus 7 days" through "now".
func (s *Service) resolveRange(from, to string) (string, string) {
	now := s.clock()
	if from == "" {
		from = now.AddDate(0, 0, -defaultRangeDays).Format(isoLayout)
	}
	if to == "" {
		to = now.Format(isoLayout)
	}
	return from, to
}

// Daily returns per-date answered/missed/total counts, ascending by date.
func (s *Service) Daily(ctx context.Context, from, to string) ([]DailyStat, error) {
	if s.repo == nil {
		return nil, errors.New("stats: repository not configured")
	}
	from, to = s.resolveRange(from, to)

	rows, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*DailyStat)
	for _, rec := range rows {
		d := dateOf(rec.Timestamp)
		st, ok := byDate[d]
		if !ok {
			st = &DailyStat{Date: d}
			byDate[d] = st
		}
		st.Total++
		switch rec.Status {
		case cdr.StatusAnswered:
			st.Answered++
		case cdr.StatusMissed:
			st.Missed++
		}
	}

	out := make([]DailyStat, 0, len(byDate))
	for _, st := range byDate {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Extensions returns per-extension performance over answered calls, highest
// call count first.
func (s *Service) Extensions(ctx context.Context, from, to string) ([]ExtensionStat, error) {
	if s.repo == nil {
		return nil, errors.New("stats: repository not configured")
	}
	from, to = s.resolveRange(from, to)

	rows, err := s.repo.ListAnswered(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byExt := make(map[string]*ExtensionStat)
	for _, rec := range rows {
		st, ok := byExt[rec.Extension]
		if !ok {
			st = &ExtensionStat{Extension: rec.Extension}
			byExt[rec.Extension] = st
		}
		st.CallCount++
		st.TotalDuration += rec.Duration
	}

	out := make([]ExtensionStat, 0, len(byExt))
	for _, st := range byExt {
		st.AvgDuration = round2(float64(st.TotalDuration) / float64(st.CallCount))
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CallCount != out[j].CallCount {
			return out[i].CallCount > out[j].CallCount
		}
		return out[i].Extension < out[j].Extension
	})
	return out, nil
}

// UniqueCallers returns per-date distinct caller counts, ascending by date.
func (s *Service) UniqueCallers(ctx context.Context, from, to string) ([]UniqueCallerStat, error) {
	if s.repo == nil {
		return nil, errors.New("stats: repository not configured")
	}
	from, to = s.resolveRange(from, to)

	rows, err := s.repo.ListWithCaller(ctx, from, to)
	if err != nil {
		return nil, err
	}

	callers := make(map[string]map[string]struct{})
	totals := make(map[string]int)
	for _, rec := range rows {
		d := dateOf(rec.Timestamp)
		if callers[d] == nil {
			callers[d] = make(map[string]struct{})
		}
		callers[d][rec.CallerNumber] = struct{}{}
		totals[d]++
	}

	out := make([]UniqueCallerStat, 0, len(callers))
	for d, set := range callers {
		out = append(out, UniqueCallerStat{
			Date:          d,
			UniqueCallers: len(set),
			TotalCalls:    totals[d],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func dateOf(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
