package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emogo/emogo/app/home"
)

// RefreshStatsTask recomputes the home snapshot. It is never retried; the
// next tick enqueues a fresh one.
type RefreshStatsTask struct {
	Task
	computer StatsComputer
	cache    *home.StatsCache
}

func NewRefreshStatsTask(computer StatsComputer, cache *home.StatsCache) *RefreshStatsTask {
	return &RefreshStatsTask{
		Task:     NewTask(TaskTypeRefreshStats, 0),
		computer: computer,
		cache:    cache,
	}
}

func (t *RefreshStatsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	stats, err := t.computer.Compute(ctx)
	if errors.Is(err, context.Canceled) {
		// shutdown; keep the last snapshot as it was
		slog.Debug("Stats refresh cancelled", "id", t.GetID())
		return nil
	}
	t.cache.Set(stats, err)
	if err != nil {
		return fmt.Errorf("failed to refresh stats: %w", err)
	}

	slog.Debug("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"today_surveys", stats.TodaySurveys,
		"today_vlogs", stats.TodayVlogs)

	return nil
}
