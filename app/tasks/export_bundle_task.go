package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type ExportBundleTask struct {
	Task
	exporter BundleExporter
	jobs     *ExportJobs
	archive  bool
}

// NewExportBundleTask creates an export task and registers it as pending.
func NewExportBundleTask(exporter BundleExporter, jobs *ExportJobs, archive bool) *ExportBundleTask {
	t := &ExportBundleTask{
		Task:     NewTask(TaskTypeExportBundle, 0),
		exporter: exporter,
		jobs:     jobs,
		archive:  archive,
	}
	jobs.Add(t.ID, archive)
	return t
}

func (t *ExportBundleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		t.jobs.Fail(t.ID, ctx.Err())
		return ctx.Err()
	default:
	}

	t.jobs.Run(t.ID)

	bundle, err := t.exporter.Bundle(ctx)
	if err != nil {
		t.jobs.Fail(t.ID, err)
		return fmt.Errorf("failed to build export bundle: %w", err)
	}

	if t.archive {
		if _, err := t.exporter.Archive(ctx, bundle); err != nil {
			t.jobs.Fail(t.ID, err)
			return fmt.Errorf("failed to archive export bundle: %w", err)
		}
	}

	t.jobs.Complete(t.ID, bundle)

	slog.Info("Task completed",
		"type", t.GetType(),
		"id", t.GetID(),
		"duration", t.GetDuration(),
		"videos", len(bundle.Videos),
		"skipped", len(bundle.Skipped))

	return nil
}
