package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SurveyRepo handles database operations for survey responses
type SurveyRepo struct {
	db *DB
}

func NewSurveyRepository(db *DB) *SurveyRepo {
	return &SurveyRepo{db: db}
}

func (r *SurveyRepo) InsertSurvey(ctx context.Context, survey Survey) (int64, error) {
	if err := ValidateSurvey(survey); err != nil {
		return 0, err
	}
	survey.Timestamp = canonicalTimestamp(survey.Timestamp)

	if err := r.db.Initialize(ctx); err != nil {
		return 0, writeErr("insert_survey", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO surveys (timestamp, sentiment_score, latitude, longitude)
		VALUES (?, ?, ?, ?)
	`, survey.Timestamp, survey.SentimentScore, nullFloat(survey.Latitude), nullFloat(survey.Longitude))
	if err != nil {
		return 0, writeErr("insert_survey", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, writeErr("insert_survey", err)
	}

	slog.Debug("Survey inserted", "id", id, "score", survey.SentimentScore)
	return id, nil
}

func (r *SurveyRepo) GetAllSurveys(ctx context.Context) ([]Survey, error) {
	return r.query(ctx, "get_all_surveys", `
		SELECT id, timestamp, sentiment_score, latitude, longitude
		FROM surveys
		ORDER BY timestamp DESC, id DESC
	`)
}

// GetSurveysByRange returns surveys with start <= timestamp <= end. Bounds are
// normalised to TimestampLayout the same way stored values are.
func (r *SurveyRepo) GetSurveysByRange(ctx context.Context, start, end string) ([]Survey, error) {
	return r.query(ctx, "get_surveys_by_range", `
		SELECT id, timestamp, sentiment_score, latitude, longitude
		FROM surveys
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp DESC, id DESC
	`, canonicalTimestamp(start), canonicalTimestamp(end))
}

// SurveyTimestampRange returns the earliest and latest survey timestamps,
// both empty when there are no surveys.
func (r *SurveyRepo) SurveyTimestampRange(ctx context.Context) (string, string, error) {
	return r.db.timestampRange(ctx, "survey_timestamp_range", "SELECT MIN(timestamp), MAX(timestamp) FROM surveys")
}

func (r *SurveyRepo) CountSurveys(ctx context.Context) (int, error) {
	return r.count(ctx, "count_surveys", "SELECT COUNT(*) FROM surveys")
}

func (r *SurveyRepo) CountSurveysByRange(ctx context.Context, start, end string) (int, error) {
	return r.count(ctx, "count_surveys_by_range",
		"SELECT COUNT(*) FROM surveys WHERE timestamp BETWEEN ? AND ?", canonicalTimestamp(start), canonicalTimestamp(end))
}

func (r *SurveyRepo) DeleteSurvey(ctx context.Context, id int64) error {
	if err := r.db.Initialize(ctx); err != nil {
		return writeErr("delete_survey", err)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM surveys WHERE id = ?", id)
	if err != nil {
		return writeErr("delete_survey", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return writeErr("delete_survey", err)
	}
	if affected == 0 {
		return fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}

	slog.Info("Survey deleted", "id", id)
	return nil
}

func (r *SurveyRepo) query(ctx context.Context, op, query string, args ...any) ([]Survey, error) {
	if err := r.db.Initialize(ctx); err != nil {
		return nil, readErr(op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, readErr(op, err)
	}
	defer rows.Close()

	surveys := []Survey{}
	for rows.Next() {
		var s Survey
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.SentimentScore, &lat, &lon); err != nil {
			return nil, readErr(op, fmt.Errorf("failed to scan survey row: %w", err))
		}
		s.Latitude = floatPtr(lat)
		s.Longitude = floatPtr(lon)
		surveys = append(surveys, s)
	}

	if err := rows.Err(); err != nil {
		return nil, readErr(op, fmt.Errorf("error iterating survey rows: %w", err))
	}

	return surveys, nil
}

func (r *SurveyRepo) count(ctx context.Context, op, query string, args ...any) (int, error) {
	if err := r.db.Initialize(ctx); err != nil {
		return 0, readErr(op, err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, readErr(op, err)
	}
	return count, nil
}
