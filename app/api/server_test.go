package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emogo/emogo/app/cfg"
	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/export"
	"github.com/emogo/emogo/app/feed"
	"github.com/emogo/emogo/app/home"
	"github.com/emogo/emogo/app/journal"
	"github.com/emogo/emogo/app/notify"
	"github.com/emogo/emogo/app/tasks"
)

type testEnv struct {
	engine    *gin.Engine
	db        *database.DB
	reminders *notify.Scheduler
	exportDir string
	mediaDir  string

	mu        sync.Mutex
	navigated []string
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	_, err := cfg.LoadArgs([]string{"--timezone", "UTC"})
	require.NoError(t, err)

	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "emogo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	surveys := database.NewSurveyRepository(db)
	vlogs := database.NewVlogRepository(db)
	aggregator := home.NewAggregator(surveys, vlogs)
	statsCache := home.NewStatsCache()

	scheduler := tasks.NewScheduler(aggregator, statsCache, time.Hour, 1)
	scheduler.Start()
	t.Cleanup(scheduler.Stop)

	env := &testEnv{db: db, exportDir: filepath.Join(dir, "exports"), mediaDir: filepath.Join(dir, "media")}

	inbox := notify.NewInbox(0)
	env.reminders = notify.NewScheduler(notify.DefaultContent, inbox)
	t.Cleanup(env.reminders.CancelAll)

	router := notify.NewRouter(notify.NavigatorFunc(func(screen string) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.navigated = append(env.navigated, screen)
	}))

	handler := NewHandler(Dependencies{
		Surveys:    surveys,
		Vlogs:      vlogs,
		Maintainer: db,
		Recorder:   journal.NewRecorder(surveys, vlogs, nil, env.mediaDir),
		Exporter:   export.NewExporter(surveys, vlogs, env.exportDir, export.NoopSharer{}).WithMediaDir(env.mediaDir),
		Generator:  feed.NewGenerator(0),
		Stats:      aggregator,
		StatsCache: statsCache,
		Scheduler:  scheduler,
		ExportJobs: tasks.NewExportJobs(),
		Reminders:  env.reminders,
		Inbox:      inbox,
		Router:     router,
	})

	env.engine = NewServer(handler, apiKey)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[map[string]any](t, w)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 0, health["surveys"])
}

func TestAPIKeyGuard(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.do(t, http.MethodGet, "/api/surveys", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// public endpoints stay open
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
}

func TestCreateAndListSurveys(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	survey := decode[database.Survey](t, w)
	assert.Positive(t, survey.ID)
	assert.Equal(t, 4, survey.SentimentScore)
	assert.Nil(t, survey.Latitude)

	w = env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 9})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "invalid entry")

	w = env.do(t, http.MethodGet, "/api/surveys", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[struct {
		Surveys []database.Survey `json:"surveys"`
		Total   int               `json:"total"`
	}](t, w)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Surveys, 1)
	assert.Equal(t, survey.ID, list.Surveys[0].ID)
}

func TestListSurveysByRange(t *testing.T) {
	env := newTestEnv(t, "")
	repo := database.NewSurveyRepository(env.db)

	for _, ts := range []string{"2024-05-01T09:00:00.000Z", "2024-05-02T09:00:00.000Z", "2024-05-03T09:00:00.000Z"} {
		_, err := repo.InsertSurvey(t.Context(), database.Survey{Timestamp: ts, SentimentScore: 3})
		require.NoError(t, err)
	}

	w := env.do(t, http.MethodGet, "/api/surveys?start=2024-05-02T00:00:00Z&end=2024-05-03T09:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[struct {
		Surveys []database.Survey `json:"surveys"`
	}](t, w)
	require.Len(t, list.Surveys, 2)
	assert.Equal(t, "2024-05-03T09:00:00.000Z", list.Surveys[0].Timestamp)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/surveys?start=2024-05-02T00:00:00Z", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/surveys?start=yesterday&end=today", nil).Code)
}

func TestDeleteSurvey(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	survey := decode[database.Survey](t, w)

	path := "/api/surveys/" + jsonNumber(survey.ID)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/api/surveys/abc", nil).Code)
}

func TestVlogUploadAndVideo(t *testing.T) {
	env := newTestEnv(t, "")

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("video", "clip.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/vlogs", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	vlog := decode[database.Vlog](t, w)
	assert.True(t, strings.HasSuffix(vlog.VideoURI, ".mp4"))

	w = env.do(t, http.MethodGet, "/api/vlogs/"+jsonNumber(vlog.ID)+"/video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fake video bytes", w.Body.String())

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/vlogs/"+jsonNumber(vlog.ID), nil).Code)

	_, err = os.Stat(vlog.VideoURI)
	assert.NoError(t, err, "video file must survive entry deletion")
}

func TestVlogByURI(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/vlogs", vlogRequest{VideoURI: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/vlogs", vlogRequest{VideoURI: "file://" + filepath.Join(env.mediaDir, "nowhere.mp4")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	vlog := decode[database.Vlog](t, w)

	w = env.do(t, http.MethodGet, "/api/vlogs/"+jsonNumber(vlog.ID)+"/video", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/vlogs/999/video", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/vlogs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["total"])
}

func TestVlogByURIOutsideMediaDir(t *testing.T) {
	env := newTestEnv(t, "")

	outside := filepath.Join(filepath.Dir(env.mediaDir), "private.txt")
	require.NoError(t, os.WriteFile(outside, []byte("private"), 0o600))

	for _, uri := range []string{"/etc/passwd", "file:///etc/passwd", outside, "../private.txt"} {
		w := env.do(t, http.MethodPost, "/api/vlogs", vlogRequest{VideoURI: uri})
		assert.Equal(t, http.StatusBadRequest, w.Code, uri)
		assert.Contains(t, decode[map[string]any](t, w)["error"], "outside the media directory")
	}

	w := env.do(t, http.MethodGet, "/api/vlogs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["total"])
}

func TestVlogVideoOutsideMediaDirNotServed(t *testing.T) {
	env := newTestEnv(t, "")

	outside := filepath.Join(filepath.Dir(env.mediaDir), "private.txt")
	require.NoError(t, os.WriteFile(outside, []byte("private"), 0o600))

	vlogs := database.NewVlogRepository(env.db)
	id, err := vlogs.InsertVlog(t.Context(), database.Vlog{Timestamp: "2024-05-01T09:00:00.000Z", VideoURI: outside})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/vlogs/"+jsonNumber(id)+"/video", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "private")
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, "")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 5}).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/vlogs", vlogRequest{VideoURI: "a.mp4"}).Code)

	require.Eventually(t, func() bool {
		w := env.do(t, http.MethodGet, "/stats", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var response struct {
			Stats home.Stats `json:"stats"`
			Stale bool       `json:"stale"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			return false
		}
		s := response.Stats
		return !response.Stale && s.TotalSurveys == 1 && s.TotalVlogs == 1 && s.TodaySurveys == 1 && s.TodayVlogs == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClearData(t *testing.T) {
	env := newTestEnv(t, "")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 3}).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/data", nil).Code)

	w := env.do(t, http.MethodGet, "/api/surveys", nil)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["total"])
}

func TestExportDownloads(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 3}).Code)

	w := env.do(t, http.MethodGet, "/api/export/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.JSONFileName)

	doc := decode[export.Document](t, w)
	assert.Equal(t, 1, doc.TotalSurveys)
	assert.Equal(t, 0, doc.TotalVlogs)
	assert.NotNil(t, doc.Vlogs)

	w = env.do(t, http.MethodGet, "/api/export/csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Type,Timestamp,Date,Time,Sentiment_Score"))
}

func TestExportBundle(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/vlogs", vlogRequest{VideoURI: "missing/clip.mp4"}).Code)

	w := env.do(t, http.MethodPost, "/api/export/bundle?zip=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode[struct {
		Bundle export.BundleResult `json:"bundle"`
		Share  export.ShareResult  `json:"share"`
	}](t, w)

	assert.Len(t, response.Bundle.Skipped, 1)
	assert.False(t, response.Share.Shared)
	assert.Equal(t, filepath.Join(env.exportDir, export.ArchiveName), response.Share.Location)
	assert.FileExists(t, response.Share.Location)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/export/bundle?zip=maybe", nil).Code)
}

func TestExportJobs(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/export/jobs", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decode[map[string]any](t, w)["id"].(string)

	require.Eventually(t, func() bool {
		w := env.do(t, http.MethodGet, "/api/export/jobs/"+id, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var job tasks.ExportJob
		if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status == tasks.JobCompleted && job.Result != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/export/jobs/unknown", nil).Code)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/notifications/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[map[string][]notify.ScheduledPrompt](t, w)["scheduled"], 3)

	// scheduling again replaces the previous prompts
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/notifications/schedule", nil).Code)

	w = env.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[struct {
		Scheduled []notify.ScheduledPrompt `json:"scheduled"`
		Delivered []notify.Notification    `json:"delivered"`
	}](t, w)
	assert.Len(t, listing.Scheduled, 3)
	assert.Empty(t, listing.Delivered)

	w = env.do(t, http.MethodPost, "/api/notifications/tap", notify.Payload{Screen: "survey", Time: "morning"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["navigated"])

	w = env.do(t, http.MethodPost, "/api/notifications/tap", notify.Payload{Screen: "settings"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["navigated"])

	env.mu.Lock()
	assert.Equal(t, []string{"survey"}, env.navigated)
	env.mu.Unlock()

	w = env.do(t, http.MethodPost, "/api/notifications/test", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestFeedEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 4}).Code)

	w := env.do(t, http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Equal(t, "1", w.Header().Get("X-Feed-Items"))
	assert.Contains(t, w.Body.String(), "Feeling Happy (4/5)")
}

func TestStorageFailureIsReported(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/surveys", nil).Code)

	require.NoError(t, env.db.Close())

	w := env.do(t, http.MethodGet, "/api/surveys", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "storage read failed")

	w = env.do(t, http.MethodPost, "/api/surveys", surveyRequest{SentimentScore: 3})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "storage write failed")
}

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}
