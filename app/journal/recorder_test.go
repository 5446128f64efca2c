package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/location"
)

type fixedLocation struct {
	coords *location.Coordinates
}

func (f fixedLocation) CurrentLocation(ctx context.Context) *location.Coordinates {
	return f.coords
}

func newTestRecorder(t *testing.T, loc LocationProvider) (*Recorder, *database.SurveyRepo, *database.VlogRepo, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "emogo.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	surveys := database.NewSurveyRepository(db)
	vlogs := database.NewVlogRepository(db)
	mediaDir := filepath.Join(dir, "media")

	clock := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	recorder := NewRecorder(surveys, vlogs, loc, mediaDir).WithClock(func() time.Time { return clock })
	return recorder, surveys, vlogs, mediaDir
}

func TestSentimentLabel(t *testing.T) {
	expected := map[int]string{
		0: "",
		1: "Very Sad",
		2: "Sad",
		3: "Neutral",
		4: "Happy",
		5: "Very Happy",
		6: "",
	}
	for score, label := range expected {
		if got := SentimentLabel(score); got != label {
			t.Errorf("SentimentLabel(%d) = %q, want %q", score, got, label)
		}
	}
}

func TestRecordSurvey_WithLocation(t *testing.T) {
	recorder, surveys, _, _ := newTestRecorder(t, fixedLocation{&location.Coordinates{Latitude: 25.03, Longitude: 121.56}})

	survey, err := recorder.RecordSurvey(context.Background(), 4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if survey.ID == 0 {
		t.Error("Expected survey to have an id")
	}
	if survey.Timestamp != "2024-05-01T09:30:00.000Z" {
		t.Errorf("Expected timestamp '2024-05-01T09:30:00.000Z', got '%s'", survey.Timestamp)
	}
	if !survey.HasLocation() || *survey.Latitude != 25.03 {
		t.Errorf("Expected survey to carry location, got %+v", survey)
	}

	stored, err := surveys.GetAllSurveys(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(stored) != 1 || stored[0].SentimentScore != 4 {
		t.Errorf("Expected one stored survey with score 4, got %+v", stored)
	}
}

func TestRecordSurvey_WithoutLocation(t *testing.T) {
	recorder, _, _, _ := newTestRecorder(t, fixedLocation{nil})

	survey, err := recorder.RecordSurvey(context.Background(), 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if survey.HasLocation() {
		t.Error("Expected survey without location when provider is unavailable")
	}
}

func TestRecordSurvey_InvalidScore(t *testing.T) {
	recorder, surveys, _, _ := newTestRecorder(t, nil)

	for _, score := range []int{0, 6, -1} {
		if _, err := recorder.RecordSurvey(context.Background(), score); !errors.Is(err, database.ErrInvalidEntry) {
			t.Errorf("Expected ErrInvalidEntry for score %d, got: %v", score, err)
		}
	}

	count, _ := surveys.CountSurveys(context.Background())
	if count != 0 {
		t.Errorf("Expected no stored surveys, got %d", count)
	}
}

func TestRecordVlog_StoresVideo(t *testing.T) {
	recorder, _, vlogs, mediaDir := newTestRecorder(t, nil)

	vlog, err := recorder.RecordVlog(context.Background(), "clip.MOV", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if filepath.Dir(vlog.VideoURI) != mediaDir {
		t.Errorf("Expected video in %s, got %s", mediaDir, vlog.VideoURI)
	}
	if !strings.HasPrefix(filepath.Base(vlog.VideoURI), "vlog_") || filepath.Ext(vlog.VideoURI) != ".mov" {
		t.Errorf("Unexpected video name: %s", vlog.VideoURI)
	}

	data, err := os.ReadFile(vlog.VideoURI)
	if err != nil {
		t.Fatalf("Expected video file to exist: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("Expected copied video content, got %q", string(data))
	}

	stored, err := vlogs.GetVlog(context.Background(), vlog.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored.VideoURI != vlog.VideoURI {
		t.Errorf("Expected stored URI %s, got %s", vlog.VideoURI, stored.VideoURI)
	}
}

func TestRecordVlog_EmptyVideoRejected(t *testing.T) {
	recorder, _, vlogs, mediaDir := newTestRecorder(t, nil)

	_, err := recorder.RecordVlog(context.Background(), "clip.mp4", strings.NewReader(""))
	if !errors.Is(err, database.ErrInvalidEntry) {
		t.Fatalf("Expected ErrInvalidEntry for empty video, got: %v", err)
	}

	entries, _ := os.ReadDir(mediaDir)
	if len(entries) != 0 {
		t.Errorf("Expected no files left in media dir, got %d", len(entries))
	}
	count, _ := vlogs.CountVlogs(context.Background())
	if count != 0 {
		t.Errorf("Expected no stored vlogs, got %d", count)
	}
}

func TestRecordVlogURI(t *testing.T) {
	recorder, _, _, mediaDir := newTestRecorder(t, nil)

	vlog, err := recorder.RecordVlogURI(context.Background(), "file://"+filepath.Join(mediaDir, "clip.mp4"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if vlog.VideoURI != filepath.Join(mediaDir, "clip.mp4") {
		t.Errorf("Expected resolved path in media dir, got %s", vlog.VideoURI)
	}

	vlog, err = recorder.RecordVlogURI(context.Background(), "day1/clip.mp4")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if vlog.VideoURI != filepath.Join(mediaDir, "day1", "clip.mp4") {
		t.Errorf("Expected relative URI under media dir, got %s", vlog.VideoURI)
	}

	if _, err := recorder.RecordVlogURI(context.Background(), ""); !errors.Is(err, database.ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry for empty URI, got: %v", err)
	}
}

func TestRecordVlogURI_OutsideMediaDirRejected(t *testing.T) {
	recorder, _, vlogs, mediaDir := newTestRecorder(t, nil)

	outside := filepath.Join(filepath.Dir(mediaDir), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(mediaDir, "link.mp4")); err != nil {
		t.Fatal(err)
	}

	uris := []string{
		"/etc/passwd",
		"file:///etc/passwd",
		outside,
		"../secret.txt",
		filepath.Join(mediaDir, "..", "secret.txt"),
		mediaDir,
		"link.mp4",
	}
	for _, uri := range uris {
		if _, err := recorder.RecordVlogURI(context.Background(), uri); !errors.Is(err, database.ErrInvalidEntry) {
			t.Errorf("Expected ErrInvalidEntry for %q, got: %v", uri, err)
		}
	}

	count, err := vlogs.CountVlogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected no vlogs stored, got %d", count)
	}
}
