package database

import (
	"context"
)

type SurveyRepository interface {
	InsertSurvey(ctx context.Context, survey Survey) (int64, error)
	GetAllSurveys(ctx context.Context) ([]Survey, error)
	GetSurveysByRange(ctx context.Context, start, end string) ([]Survey, error)
	SurveyTimestampRange(ctx context.Context) (string, string, error)
	CountSurveys(ctx context.Context) (int, error)
	CountSurveysByRange(ctx context.Context, start, end string) (int, error)
	DeleteSurvey(ctx context.Context, id int64) error
}

type VlogRepository interface {
	InsertVlog(ctx context.Context, vlog Vlog) (int64, error)
	GetVlog(ctx context.Context, id int64) (*Vlog, error)
	GetAllVlogs(ctx context.Context) ([]Vlog, error)
	GetVlogsByRange(ctx context.Context, start, end string) ([]Vlog, error)
	VlogTimestampRange(ctx context.Context) (string, string, error)
	CountVlogs(ctx context.Context) (int, error)
	CountVlogsByRange(ctx context.Context, start, end string) (int, error)
	DeleteVlog(ctx context.Context, id int64) error
}

// Maintainer covers operations spanning both tables.
type Maintainer interface {
	ClearAll(ctx context.Context) error
}

var (
	_ SurveyRepository = (*SurveyRepo)(nil)
	_ VlogRepository   = (*VlogRepo)(nil)
	_ Maintainer       = (*DB)(nil)
)
