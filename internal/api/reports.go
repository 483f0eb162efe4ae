package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/models"
)

func (h *Handler) GetDailyReport(c *gin.Context) {
	date, err := models.NormalizeDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	user := currentUser(c)
	report, err := h.db.GetDailyReport(c.Request.Context(), user.ID, date)
	if err != nil {
		h.logger.Errorf("Failed to get daily report for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *Handler) GetWeeklyReport(c *gin.Context) {
	user := currentUser(c)
	stats, err := h.db.GetWeeklyStats(c.Request.Context(), user.ID, time.Now().Format("2006-01-02"))
	if err != nil {
		h.logger.Errorf("Failed to get weekly report for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate weekly report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"weekly_report": stats})
}

func (h *Handler) GetOverallStats(c *gin.Context) {
	user := currentUser(c)
	stats, err := h.db.GetOverallStats(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Errorf("Failed to get stats for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
