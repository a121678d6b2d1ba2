package submissions

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/export"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc    *Service
	Render func(text string) ([]byte, error)
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Render: export.Render}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/submissions", h.list)
	rg.DELETE("/submissions", h.clear)
	rg.GET("/submissions/:id", h.get)
	rg.DELETE("/submissions/:id", h.delete)
	rg.GET("/submissions/:id/download", h.download)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}
	respond.OK(c, gin.H{"items": list, "limit": limit, "offset": offset})
}

func (h *Handler) clear(c *gin.Context) {
	n, err := h.Svc.Clear(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear history", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": n})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.SubmissionIDKey, c.Param("id"))
	sub, err := h.Svc.GetOwned(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load submission")
		return
	}
	respond.OK(c, sub)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set(middleware.SubmissionIDKey, c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete submission")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) download(c *gin.Context) {
	c.Set(middleware.SubmissionIDKey, c.Param("id"))
	sub, err := h.Svc.GetOwned(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load submission")
		return
	}
	data, err := h.Render(sub.CoverLetter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to render document", nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName(sub)))
	c.Data(http.StatusOK, export.ContentType, data)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "permission_denied", "submission belongs to another user", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func pageParams(c *gin.Context) (int, int) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}
