package home

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emogo/emogo/app/database"
)

type Stats struct {
	TodaySurveys int       `json:"today_surveys"`
	TodayVlogs   int       `json:"today_vlogs"`
	TotalSurveys int       `json:"total_surveys"`
	TotalVlogs   int       `json:"total_vlogs"`
	FirstEntryAt string    `json:"first_entry_at,omitempty"`
	LastEntryAt  string    `json:"last_entry_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Aggregator struct {
	surveys database.SurveyRepository
	vlogs   database.VlogRepository
	now     func() time.Time
}

func NewAggregator(surveys database.SurveyRepository, vlogs database.VlogRepository) *Aggregator {
	return &Aggregator{surveys: surveys, vlogs: vlogs, now: time.Now}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// DayBounds returns the inclusive timestamp range covering the local day of t.
func DayBounds(t time.Time) (string, string) {
	local := t.In(time.Local)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return database.FormatTimestamp(start), database.FormatTimestamp(end)
}

func (a *Aggregator) Compute(ctx context.Context) (Stats, error) {
	now := a.now()
	start, end := DayBounds(now)

	var stats Stats
	var err error

	if stats.TodaySurveys, err = a.surveys.CountSurveysByRange(ctx, start, end); err != nil {
		return Stats{}, fmt.Errorf("failed to count today's surveys: %w", err)
	}
	if stats.TodayVlogs, err = a.vlogs.CountVlogsByRange(ctx, start, end); err != nil {
		return Stats{}, fmt.Errorf("failed to count today's vlogs: %w", err)
	}
	if stats.TotalSurveys, err = a.surveys.CountSurveys(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to count surveys: %w", err)
	}
	if stats.TotalVlogs, err = a.vlogs.CountVlogs(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to count vlogs: %w", err)
	}

	if stats.FirstEntryAt, stats.LastEntryAt, err = a.dateRange(ctx); err != nil {
		return Stats{}, err
	}

	stats.UpdatedAt = now
	return stats, nil
}

// dateRange spans the earliest and latest entry across surveys and vlogs.
func (a *Aggregator) dateRange(ctx context.Context) (string, string, error) {
	surveyFirst, surveyLast, err := a.surveys.SurveyTimestampRange(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to read survey date range: %w", err)
	}
	vlogFirst, vlogLast, err := a.vlogs.VlogTimestampRange(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to read vlog date range: %w", err)
	}

	first := surveyFirst
	if first == "" || (vlogFirst != "" && vlogFirst < first) {
		first = vlogFirst
	}
	return first, max(surveyLast, vlogLast), nil
}

// StatsCache holds the latest snapshot together with the error of the most
// recent refresh, so readers can tell "no data" from "refresh failed".
type StatsCache struct {
	mu    sync.RWMutex
	stats Stats
	err   error
	ready bool
}

func NewStatsCache() *StatsCache {
	return &StatsCache{}
}

func (c *StatsCache) Set(stats Stats, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
	if err == nil {
		c.stats = stats
		c.ready = true
	}
}

// Get returns the last good snapshot, whether one exists, and the error of
// the latest refresh attempt.
func (c *StatsCache) Get() (Stats, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats, c.ready, c.err
}
