package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/account"
	googleauth "coverletter-backend/internal/auth"
	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/anthropic"
	"coverletter-backend/internal/llm/gemini"
	"coverletter-backend/internal/llm/openai"
	"coverletter-backend/internal/mail"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/resumes"
	"coverletter-backend/internal/shared/auth"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/server"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/storage/object"
	localstore "coverletter-backend/internal/shared/storage/object/local"
	s3store "coverletter-backend/internal/shared/storage/object/s3"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/submissions"
	"coverletter-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	Tokens             *auth.TokenService
	Mailer             *mail.Notifier
	UsersRepo          users.Repo
	ResumesRepo        resumes.Repo
	SubmissionsRepo    submissions.Repo
	UsersService       *users.Service
	ResumesService     *resumes.Service
	SubmissionsService *submissions.Service
	CoverLetterService *coverletters.Service
	AccountService     *account.Service

	closers []io.Closer
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.SetDebug(cfg.LogDebug)

	sqlDB, err := connectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closeDB := func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpirationHours, cfg.Env == "production")
	if err != nil {
		closeDB()
		return nil, err
	}

	sender, err := buildSender(ctx, cfg)
	if err != nil {
		closeDB()
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tokens: tokens,
		Mailer: mail.NewNotifier(sender),
	}
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB)
	}

	if err := buildServices(ctx, app); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Close waits for pending mail and releases connections.
func (a *App) Close() error {
	if a.Mailer != nil {
		a.Mailer.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// connectDB is replaced in tests.
var connectDB = buildDB

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	defaults := db.DefaultServerOptions()
	if db.IsLambdaRuntime() {
		defaults = db.DefaultLambdaOptions()
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildSender prefers the SQS outbox, then direct SMTP, then logging.
func buildSender(ctx context.Context, cfg config.Config) (mail.Sender, error) {
	if strings.TrimSpace(cfg.MailQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.MailQueueURL)
		if err != nil {
			return nil, fmt.Errorf("mail queue: %w", err)
		}
		return mail.NewQueueSender(client), nil
	}
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		log.Printf("bootstrap: SMTP_HOST empty; e-mails are logged instead of sent")
		return mail.LogSender{}, nil
	}
	return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom), nil
}

func buildResetTokens(cfg config.Config) (users.ResetTokenStore, io.Closer, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return users.NewMemoryResetTokenStore(), nil, nil
	}
	store, err := users.NewRedisResetTokenStore(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis reset tokens: %w", err)
	}
	return store, store, nil
}

// buildLLM configures one client per provider that has a credential.
func (a *App) buildLLM(ctx context.Context) (*llm.Router, error) {
	cfg := a.Config
	router := &llm.Router{}
	if key := strings.TrimSpace(cfg.OpenAIAPIKey); key != "" {
		client, err := openai.NewClient(key)
		if err != nil {
			return nil, err
		}
		router.OpenAI = client
	}
	if key := strings.TrimSpace(cfg.AnthropicAPIKey); key != "" {
		client, err := anthropic.NewClient(key)
		if err != nil {
			return nil, err
		}
		router.Anthropic = client
	}
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, err
		}
		router.Gemini = client
		a.closers = append(a.closers, client)
	}
	if router.OpenAI == nil && router.Anthropic == nil && router.Gemini == nil {
		log.Printf("bootstrap: no LLM credentials configured; generation requests will fail with remote_auth_failure")
	}
	return router, nil
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.SubmissionsRepo = &submissions.PGRepo{DB: app.DB}
	} else {
		userRepo := users.NewMemoryRepo()
		subRepo := submissions.NewMemoryRepo().RequireOwner(users.Exists(userRepo))
		app.UsersRepo = userRepo
		app.ResumesRepo = resumes.NewMemoryRepo().
			RequireOwner(users.Exists(userRepo)).
			OnDelete(subRepo.DetachResume)
		app.SubmissionsRepo = subRepo
	}

	resetTokens, closer, err := buildResetTokens(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	userSvc := users.NewService(app.UsersRepo, auth.PasswordHasher{Cost: cfg.BcryptCost}, app.Tokens)
	userSvc.ResetTokens = resetTokens
	userSvc.Mailer = app.Mailer
	userSvc.AllowedModels = cfg.LLMAllowedModels
	userSvc.ResetURL = cfg.PasswordResetURL

	router, err := app.buildLLM(ctx)
	if err != nil {
		return err
	}
	prompts, err := coverletters.NewPromptBuilder()
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	resumeSvc := resumes.NewService(app.ResumesRepo, app.Store)
	subSvc := submissions.NewService(app.SubmissionsRepo)
	coverSvc := coverletters.NewService(userSvc, resumeSvc, subSvc, router, prompts, coverletters.ModelPolicy{
		Default:  cfg.LLMModel,
		Override: cfg.LLMModelOverride,
		Allowed:  cfg.LLMAllowedModels,
	})
	if cfg.LLMTimeout > 0 {
		coverSvc.CallTimeout = cfg.LLMTimeout
	}

	app.UsersService = userSvc
	app.ResumesService = resumeSvc
	app.SubmissionsService = subSvc
	app.CoverLetterService = coverSvc
	app.AccountService = account.NewService(app.UsersRepo, app.ResumesRepo, app.SubmissionsRepo, resumeSvc)

	var google *googleauth.GoogleService
	if strings.TrimSpace(cfg.GoogleClientID) != "" {
		google = googleauth.NewGoogleService(userSvc, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		Tokens:             app.Tokens,
		UserHandler:        users.NewHandler(userSvc),
		ResumeHandler:      resumes.NewHandler(resumeSvc),
		CoverLetterHandler: coverletters.NewHandler(coverSvc),
		SubmissionHandler:  submissions.NewHandler(subSvc),
		AccountHandler:     account.NewHandler(app.AccountService),
		GoogleAuth:         google,
	})
	return nil
}
