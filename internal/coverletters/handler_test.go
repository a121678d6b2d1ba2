package coverletters

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverletter-backend/internal/llm"
)

func newHandlerRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", c.GetHeader("X-Test-User"))
		c.Next()
	})
	NewHandler(f.svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postCoverLetter(router *gin.Engine, body *bytes.Buffer, contentType, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cover-letters", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", user)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHandlerGenerateCreated(t *testing.T) {
	f := newFixture(t)
	router := newHandlerRouter(f)

	body, ct := multipartBody(t, map[string]string{
		"focusAreas":     "distributed systems",
		"jobDescription": "Acme is hiring.",
		"userId":         "user-2",
	}, "cv.pdf", []byte("%PDF-1.4"))
	resp := postCoverLetter(router, body, ct, "user-1")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, "Acme", res.CompanyName)
	assert.NotEmpty(t, res.SubmissionID)

	assert.Len(t, f.historyOf(t, "user-1"), 1)
	assert.Empty(t, f.historyOf(t, "user-2"))
}

func TestHandlerGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(f *fixture)
		fields   map[string]string
		fileName string
		status   int
		code     string
	}{
		{"no resume", nil, map[string]string{"jobDescription": "jd"}, "", http.StatusBadRequest, "input_missing"},
		{"bad type", nil, nil, "cv.txt", http.StatusUnsupportedMediaType, "unsupported_file_type"},
		{"foreign resume", nil, map[string]string{"resumeId": "foreign"}, "", http.StatusForbidden, "permission_denied"},
		{"auth", func(f *fixture) { f.llm.letterErr = llm.MissingCredential("openai") }, nil, "cv.pdf", http.StatusServiceUnavailable, "remote_auth_failure"},
		{"remote", func(f *fixture) { f.llm.letterErr = llm.NewCallError("fake", 500, assert.AnError) }, nil, "cv.pdf", http.StatusBadGateway, "remote_call_failure"},
		{"persistence", func(f *fixture) { f.svc.Submissions = failingSubmissions{} }, nil, "cv.pdf", http.StatusInternalServerError, "persistence_failure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			foreign, err := f.resumes.Save(context.Background(), "user-2", "cv.pdf", "", []byte("x"), "text")
			require.NoError(t, err)
			if tc.fields["resumeId"] == "foreign" {
				tc.fields["resumeId"] = foreign.ID
			}
			if tc.setup != nil {
				tc.setup(f)
			}

			body, ct := multipartBody(t, tc.fields, tc.fileName, []byte("data"))
			resp := postCoverLetter(newHandlerRouter(f), body, ct, "user-1")
			assert.Equal(t, tc.status, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), `"code":"`+tc.code+`"`)
		})
	}
}

func TestHandlerGenerateRejectsOversizedUpload(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, nil, "cv.pdf", bytes.Repeat([]byte("a"), MaxUploadBytes+1))

	resp := postCoverLetter(newHandlerRouter(f), body, ct, "user-1")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Equal(t, 0, f.llm.callCount())
}

func TestHandlerModels(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	resp := httptest.NewRecorder()
	newHandlerRouter(f).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), `"default":"gpt-4o-mini"`))
	assert.Contains(t, resp.Body.String(), "claude-3-5-haiku-latest")
}
