package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freddie-moore/scriptTok/tasks"
)

// Handler exposes job submission and polling over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler creates a Handler around svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// GenerateScriptRequest is the POST /generate-script body.
type GenerateScriptRequest struct {
	ProfileName string            `json:"profile_name"`
	Topic       string            `json:"topic"`
	Credentials tasks.Credentials `json:"credentials"`
}

// GenerateScript starts a script-generation job and returns its id with
// 202 Accepted.
func (h *Handler) GenerateScript(c *gin.Context) {
	var req GenerateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	jobID, err := h.Service.Submit(c.Request.Context(), SubmitRequest{
		ProfileName: req.ProfileName,
		Topic:       req.Topic,
		Credentials: req.Credentials,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing profile_name or topic"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// Status returns the current snapshot for a job id.
func (h *Handler) Status(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.Service.Poll(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown job id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return
	}

	response := gin.H{
		"state":  job.Stage,
		"status": job.Status,
	}
	if job.Stage == StageSuccess {
		response["result"] = job.Result
	}
	c.JSON(http.StatusOK, response)
}
