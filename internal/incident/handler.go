package incident

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"incidentlog/internal/apperr"
	"incidentlog/internal/auth"
)

// maxAttachmentBytes bounds a single multipart upload.
const maxAttachmentBytes = 10 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type incidentRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// GET /incidents
func (h *Handler) List(c *gin.Context) {
	viewer, _ := auth.CurrentUser(c)
	mine := c.Query("mine") == "true"

	incidents, err := h.service.List(c.Request.Context(), viewer, mine)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, incidents)
}

// POST /incidents
func (h *Handler) Create(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	reporter, _ := auth.CurrentUser(c)
	inc, err := h.service.Create(c.Request.Context(), reporter, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, inc)
}

// GET /incidents/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}

	inc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

// PUT /incidents/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}

	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	actor, _ := auth.CurrentUser(c)
	inc, err := h.service.Update(c.Request.Context(), actor, id, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

// DELETE /incidents/:id (admin)
func (h *Handler) Delete(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}

	actor, _ := auth.CurrentUser(c)
	deleted, err := h.service.Delete(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "incident deleted successfully"})
}

// POST /incidents/:id/attachments
func (h *Handler) UploadAttachment(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAttachmentBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperr.Validation("file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(apperr.Internal("unable to read attachment", err))
		return
	}
	defer f.Close()

	actor, _ := auth.CurrentUser(c)
	inc, err := h.service.AddAttachment(c.Request.Context(), actor, id, Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}, f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, inc)
}

func incidentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperr.Validation("invalid ID format"))
		return 0, false
	}
	return id, true
}
