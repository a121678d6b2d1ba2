package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/account"
	googleauth "coverletter-backend/internal/auth"
	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/resumes"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/submissions"
	"coverletter-backend/internal/users"
)

const generateRateGroup = "GENERATE"

// RouterDeps carries the handlers mounted on the API.
type RouterDeps struct {
	Config             config.Config
	Tokens             middleware.TokenVerifier
	UserHandler        *users.Handler
	ResumeHandler      *resumes.Handler
	CoverLetterHandler *coverletters.Handler
	SubmissionHandler  *submissions.Handler
	AccountHandler     *account.Handler
	GoogleAuth         *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(deps.Tokens),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				generateRateGroup: middleware.PerMinute(cfg.GenerateRatePerMinute),
			},
			GroupFor: rateGroupFor,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.CoverLetterHandler != nil {
		deps.CoverLetterHandler.RegisterRoutes(api)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor limits only generation requests; everything else is unmetered.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.Request.URL.Path == "/api/v1/cover-letters" {
		return generateRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
