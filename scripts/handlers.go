package scripts

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freddie-moore/scriptTok/models"
)

// Handler serves the script archive.
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// ListScripts returns the most recently archived scripts, newest first.
// Optional ?limit= caps the page size (default 20, max 100).
func (h *Handler) ListScripts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	var records []models.ScriptRecord
	if err := h.DB.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scripts"})
		return
	}

	c.JSON(http.StatusOK, records)
}
