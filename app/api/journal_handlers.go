package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/database"
)

func (h *Handler) CreateSurvey(c *gin.Context) {
	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "create_survey", badRequest("invalid request body: %v", err))
		return
	}

	survey, err := h.recorder.RecordSurvey(c.Request.Context(), req.SentimentScore)
	if err != nil {
		respondError(c, "create_survey", err)
		return
	}

	h.refreshStats()
	c.JSON(http.StatusCreated, survey)
}

func (h *Handler) ListSurveys(c *gin.Context) {
	start, end, ranged, err := parseRange(c)
	if err != nil {
		respondError(c, "list_surveys", err)
		return
	}

	var surveys []database.Survey
	if ranged {
		surveys, err = h.surveys.GetSurveysByRange(c.Request.Context(), start, end)
	} else {
		surveys, err = h.surveys.GetAllSurveys(c.Request.Context())
	}
	if err != nil {
		respondError(c, "list_surveys", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"surveys": surveys,
		"total":   len(surveys),
	})
}

func (h *Handler) DeleteSurvey(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, "delete_survey", err)
		return
	}

	if err := h.surveys.DeleteSurvey(c.Request.Context(), id); err != nil {
		respondError(c, "delete_survey", err)
		return
	}

	h.refreshStats()
	c.Status(http.StatusNoContent)
}

// CreateVlog accepts either a multipart upload in the "video" field or a
// JSON body referencing an existing file.
func (h *Handler) CreateVlog(c *gin.Context) {
	ctx := c.Request.Context()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("video")
		if err != nil {
			respondError(c, "create_vlog", badRequest("missing video file: %v", err))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, "create_vlog", badRequest("unreadable video file: %v", err))
			return
		}
		defer file.Close()

		vlog, err := h.recorder.RecordVlog(ctx, fileHeader.Filename, file)
		if err != nil {
			respondError(c, "create_vlog", err)
			return
		}

		h.refreshStats()
		c.JSON(http.StatusCreated, vlog)
		return
	}

	var req vlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "create_vlog", badRequest("invalid request body: %v", err))
		return
	}

	vlog, err := h.recorder.RecordVlogURI(ctx, req.VideoURI)
	if err != nil {
		respondError(c, "create_vlog", err)
		return
	}

	h.refreshStats()
	c.JSON(http.StatusCreated, vlog)
}

func (h *Handler) ListVlogs(c *gin.Context) {
	start, end, ranged, err := parseRange(c)
	if err != nil {
		respondError(c, "list_vlogs", err)
		return
	}

	var vlogs []database.Vlog
	if ranged {
		vlogs, err = h.vlogs.GetVlogsByRange(c.Request.Context(), start, end)
	} else {
		vlogs, err = h.vlogs.GetAllVlogs(c.Request.Context())
	}
	if err != nil {
		respondError(c, "list_vlogs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vlogs": vlogs,
		"total": len(vlogs),
	})
}

func (h *Handler) GetVlogVideo(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, "get_vlog_video", err)
		return
	}

	vlog, err := h.vlogs.GetVlog(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get_vlog_video", err)
		return
	}

	path, err := h.recorder.ResolveVideo(vlog.VideoURI)
	if err != nil {
		slog.Warn("Refusing to serve video outside media directory", "vlog_id", id, "video_uri", vlog.VideoURI)
		respondError(c, "get_vlog_video", errors.Join(database.ErrNotFound, errors.New("video file is not available")))
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		respondError(c, "get_vlog_video", errors.Join(database.ErrNotFound, errors.New("video file is missing")))
		return
	}

	c.File(path)
}

// DeleteVlog removes the row only; the video file stays where it is.
func (h *Handler) DeleteVlog(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, "delete_vlog", err)
		return
	}

	if err := h.vlogs.DeleteVlog(c.Request.Context(), id); err != nil {
		respondError(c, "delete_vlog", err)
		return
	}

	h.refreshStats()
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearData(c *gin.Context) {
	if err := h.maintainer.ClearAll(c.Request.Context()); err != nil {
		respondError(c, "clear_data", err)
		return
	}

	h.refreshStats()
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// parseRange reads the optional start/end query pair and normalises both
// bounds to the stored timestamp layout so they compare as strings.
func parseRange(c *gin.Context) (string, string, bool, error) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" && end == "" {
		return "", "", false, nil
	}
	if start == "" || end == "" {
		return "", "", false, badRequest("start and end must be given together")
	}

	startTime, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return "", "", false, badRequest("invalid start %q", start)
	}
	endTime, err := time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return "", "", false, badRequest("invalid end %q", end)
	}

	return database.FormatTimestamp(startTime), database.FormatTimestamp(endTime), true, nil
}
