package coverletters

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/util"
)

// MaxUploadBytes caps a generation request body.
const MaxUploadBytes = 16 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cover-letters", h.generate)
	rg.GET("/models", h.models)
}

func (h *Handler) generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeFormError(c, err)
		return
	}

	in := GenerateInput{
		ResumeID:       c.PostForm("resumeId"),
		FocusAreas:     c.PostForm("focusAreas"),
		JobDescription: c.PostForm("jobDescription"),
	}
	file, err := c.FormFile("file")
	switch {
	case err == nil:
		upload, readErr := readUpload(file)
		if readErr != nil {
			writeFormError(c, readErr)
			return
		}
		in.Upload = upload
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeFormError(c, err)
		return
	}

	res, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			c.Set(middleware.GenerationKey, string(ce.State))
		}
		writeError(c, err)
		return
	}
	c.Set(middleware.GenerationKey, string(StateDone))
	c.Set(middleware.SubmissionIDKey, res.SubmissionID)
	c.Set(middleware.ResumeIDKey, res.ResumeID)
	respond.JSON(c, http.StatusCreated, res)
}

func (h *Handler) models(c *gin.Context) {
	policy := h.Svc.Policy
	respond.OK(c, gin.H{
		"models":   policy.Allowed,
		"default":  policy.Default,
		"override": policy.Override,
	})
}

func writeFormError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "request exceeds 16MB", nil)
		return
	}
	respond.Error(c, http.StatusBadRequest, "invalid_upload", "failed to read uploaded file", nil)
}

func readUpload(fh *multipart.FileHeader) (*Upload, error) {
	name, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &Upload{
		FileName: name,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

var kindStatus = map[Kind]int{
	KindInputMissing:        http.StatusBadRequest,
	KindUnsupportedFileType: http.StatusUnsupportedMediaType,
	KindUnreadableDocument:  http.StatusUnprocessableEntity,
	KindRemoteAuthFailure:   http.StatusServiceUnavailable,
	KindRemoteCallFailure:   http.StatusBadGateway,
	KindMalformedReply:      http.StatusBadGateway,
	KindPersistenceFailure:  http.StatusInternalServerError,
	KindPermissionDenied:    http.StatusForbidden,
}

var kindMessage = map[Kind]string{
	KindInputMissing:        "upload a resume or select a saved one",
	KindUnsupportedFileType: "only PDF and DOCX resumes are supported",
	KindUnreadableDocument:  "could not read text from the resume",
	KindRemoteAuthFailure:   "the language model service is not configured",
	KindRemoteCallFailure:   "the language model service failed, please try again",
	KindMalformedReply:      "the language model returned an empty letter, please try again",
	KindPermissionDenied:    "resume belongs to another user",
}

func writeError(c *gin.Context, err error) {
	var ce *Error
	if !errors.As(err, &ce) {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate cover letter", nil)
		return
	}
	status := kindStatus[ce.Kind]
	if ce.Kind == KindRemoteCallFailure && llm.IsTimeout(err) {
		status = http.StatusGatewayTimeout
	}
	msg := kindMessage[ce.Kind]
	if ce.Kind == KindPersistenceFailure {
		msg = "failed to save"
		if ce.State == StatePersisting {
			msg = "cover letter was generated but not saved, please try again"
		}
	}
	respond.Error(c, status, string(ce.Kind), msg, gin.H{"state": ce.State})
}
