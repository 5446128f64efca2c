package api

import (
	"context"

	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/export"
	"github.com/emogo/emogo/app/feed"
	"github.com/emogo/emogo/app/home"
	"github.com/emogo/emogo/app/journal"
	"github.com/emogo/emogo/app/notify"
	"github.com/emogo/emogo/app/tasks"
)

type GeneratorInterface interface {
	Run(surveys []database.Survey, vlogs []database.Vlog) (string, error)
}

type StatsComputer interface {
	Compute(ctx context.Context) (home.Stats, error)
}

var (
	_ GeneratorInterface = (*feed.Generator)(nil)
	_ StatsComputer      = (*home.Aggregator)(nil)
)

// Dependencies lists everything the handlers reach into.
type Dependencies struct {
	Surveys    database.SurveyRepository
	Vlogs      database.VlogRepository
	Maintainer database.Maintainer
	Recorder   *journal.Recorder
	Exporter   *export.Exporter
	Generator  GeneratorInterface
	Stats      StatsComputer
	StatsCache *home.StatsCache
	Scheduler  tasks.TaskSchedulerInterface
	ExportJobs *tasks.ExportJobs
	Reminders  *notify.Scheduler
	Inbox      *notify.Inbox
	Router     *notify.Router
}

type Handler struct {
	surveys    database.SurveyRepository
	vlogs      database.VlogRepository
	maintainer database.Maintainer
	recorder   *journal.Recorder
	exporter   *export.Exporter
	generator  GeneratorInterface
	stats      StatsComputer
	statsCache *home.StatsCache
	scheduler  tasks.TaskSchedulerInterface
	exportJobs *tasks.ExportJobs
	reminders  *notify.Scheduler
	inbox      *notify.Inbox
	router     *notify.Router
}

type surveyRequest struct {
	SentimentScore int `json:"sentiment_score"`
}

type vlogRequest struct {
	VideoURI string `json:"video_uri"`
}
