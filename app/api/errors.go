package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/database"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// respondError is the single place where failures become HTTP responses.
func respondError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, database.ErrInvalidEntry):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "path", c.Request.URL.Path, "error", err)
	} else {
		slog.Debug("Request rejected", "operation", operation, "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
