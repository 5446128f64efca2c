package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emogo/emogo/app/notify"
)

const testNotificationDelay = time.Second

func (h *Handler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scheduled": h.reminders.Scheduled(),
		"delivered": h.inbox.List(),
	})
}

func (h *Handler) ScheduleNotifications(c *gin.Context) {
	prompts, err := h.reminders.ScheduleDailyPrompts(c.Request.Context())
	if err != nil {
		respondError(c, "schedule_notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled": prompts})
}

func (h *Handler) SendTestNotification(c *gin.Context) {
	prompt := h.reminders.SendTest(testNotificationDelay)
	c.JSON(http.StatusAccepted, prompt)
}

func (h *Handler) HandleNotificationTap(c *gin.Context) {
	var payload notify.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, "notification_tap", badRequest("invalid payload: %v", err))
		return
	}

	navigated := h.router.HandleTap(payload)

	response := gin.H{"navigated": navigated}
	if navigated {
		response["screen"] = notify.ScreenSurvey
	}
	c.JSON(http.StatusOK, response)
}
