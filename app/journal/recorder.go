package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/location"
)

type LocationProvider interface {
	CurrentLocation(ctx context.Context) *location.Coordinates
}

var _ LocationProvider = (*location.Provider)(nil)

// Recorder turns user submissions into stored entries: it stamps the
// creation time, attaches best-effort coordinates and writes the row.
type Recorder struct {
	surveys  database.SurveyRepository
	vlogs    database.VlogRepository
	location LocationProvider
	mediaDir string
	now      func() time.Time
}

func NewRecorder(surveys database.SurveyRepository, vlogs database.VlogRepository,
	locationProvider LocationProvider, mediaDir string) *Recorder {
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	return &Recorder{
		surveys:  surveys,
		vlogs:    vlogs,
		location: locationProvider,
		mediaDir: mediaDir,
		now:      time.Now,
	}
}

// WithClock replaces the time source used to stamp entries.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

func (r *Recorder) RecordSurvey(ctx context.Context, score int) (database.Survey, error) {
	survey := database.Survey{
		Timestamp:      database.FormatTimestamp(r.now()),
		SentimentScore: score,
	}
	if err := database.ValidateSurvey(survey); err != nil {
		return database.Survey{}, err
	}

	survey.Latitude, survey.Longitude = r.coordinates(ctx)

	id, err := r.surveys.InsertSurvey(ctx, survey)
	if err != nil {
		return database.Survey{}, fmt.Errorf("failed to save survey: %w", err)
	}
	survey.ID = id

	slog.Info("Survey recorded", "id", id, "score", score, "label", SentimentLabel(score), "has_location", survey.HasLocation())
	return survey, nil
}

// RecordVlog stores the uploaded video in the media directory and registers
// it. The copied file is removed again when the row cannot be written.
func (r *Recorder) RecordVlog(ctx context.Context, filename string, video io.Reader) (database.Vlog, error) {
	timestamp := r.now()

	path, err := r.storeVideo(timestamp, filename, video)
	if err != nil {
		return database.Vlog{}, err
	}

	vlog, err := r.recordVlog(ctx, timestamp, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("Failed to remove orphaned video", "path", path, "error", rmErr)
		}
		return database.Vlog{}, err
	}
	return vlog, nil
}

// RecordVlogURI registers a video already placed in the media directory.
func (r *Recorder) RecordVlogURI(ctx context.Context, videoURI string) (database.Vlog, error) {
	path, err := r.ResolveVideo(videoURI)
	if err != nil {
		return database.Vlog{}, err
	}
	return r.recordVlog(ctx, r.now(), path)
}

func (r *Recorder) ResolveVideo(videoURI string) (string, error) {
	return ResolveVideoPath(r.mediaDir, videoURI)
}

func (r *Recorder) recordVlog(ctx context.Context, timestamp time.Time, videoURI string) (database.Vlog, error) {
	vlog := database.Vlog{
		Timestamp: database.FormatTimestamp(timestamp),
		VideoURI:  videoURI,
	}
	if err := database.ValidateVlog(vlog); err != nil {
		return database.Vlog{}, err
	}

	vlog.Latitude, vlog.Longitude = r.coordinates(ctx)

	id, err := r.vlogs.InsertVlog(ctx, vlog)
	if err != nil {
		return database.Vlog{}, fmt.Errorf("failed to save vlog: %w", err)
	}
	vlog.ID = id

	slog.Info("Vlog recorded", "id", id, "video_uri", videoURI, "has_location", vlog.HasLocation())
	return vlog, nil
}

func (r *Recorder) storeVideo(timestamp time.Time, filename string, video io.Reader) (string, error) {
	if err := os.MkdirAll(r.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
	}
	name := fmt.Sprintf("vlog_%d_%s%s", timestamp.UnixMilli(), uuid.NewString(), ext)
	path := filepath.Join(r.mediaDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create video file: %w", err)
	}

	written, err := io.Copy(f, video)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written == 0 {
		err = fmt.Errorf("%w: video is empty", database.ErrInvalidEntry)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store video: %w", err)
	}

	return path, nil
}

func (r *Recorder) coordinates(ctx context.Context) (*float64, *float64) {
	if r.location == nil {
		return nil, nil
	}
	coords := r.location.CurrentLocation(ctx)
	if coords == nil {
		return nil, nil
	}
	lat, lon := coords.Latitude, coords.Longitude
	return &lat, &lon
}
