package tasks

import (
	"context"

	"github.com/emogo/emogo/app/export"
	"github.com/emogo/emogo/app/home"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to hand work to the worker pool.
//
//	scheduler := NewScheduler(aggregator, statsCache, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewExportBundleTask(exporter, jobs, true))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type StatsComputer interface {
	Compute(ctx context.Context) (home.Stats, error)
}

type BundleExporter interface {
	Bundle(ctx context.Context) (*export.BundleResult, error)
	Archive(ctx context.Context, bundle *export.BundleResult) (string, error)
}

var (
	_ StatsComputer  = (*home.Aggregator)(nil)
	_ BundleExporter = (*export.Exporter)(nil)
)
