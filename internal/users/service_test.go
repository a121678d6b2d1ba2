package users

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverletter-backend/internal/shared/auth"
)

type sentMail struct {
	recipient string
	subject   string
	body      string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(recipient, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, subject: subject, body: body})
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

func newTestService(t *testing.T) (*Service, *recordingMailer) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", 1, false)
	require.NoError(t, err)
	svc := NewService(NewMemoryRepo(), auth.PasswordHasher{Cost: 4}, tokens)
	mailer := &recordingMailer{}
	svc.Mailer = mailer
	svc.AllowedModels = []string{"gpt-4o-mini", "claude-3-5-haiku-latest"}
	svc.ResetURL = "https://app.example/reset"
	return svc, mailer
}

func registerAda(t *testing.T, svc *Service) Session {
	t.Helper()
	session, err := svc.Register(context.Background(), RegisterInput{
		Email:     " Ada@Example.com ",
		Password:  "analytical-engine",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return session
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mailer := newTestService(t)
	session := registerAda(t, svc)

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.NotEqual(t, "analytical-engine", session.User.PasswordHash)
	assert.Equal(t, "ada@example.com", mailer.last().recipient)

	login, err := svc.Login(context.Background(), LoginInput{Email: "ADA@example.com", Password: "analytical-engine"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	registerAda(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "ada@example.com", Password: "another-password", FirstName: "Ada",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email: "not-an-email", Password: "short", FirstName: "",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateSettingsEnforcesAllowedModels(t *testing.T) {
	svc, _ := newTestService(t)
	session := registerAda(t, svc)
	ctx := context.Background()

	model := "gpt-5-ultra"
	_, err := svc.UpdateSettings(ctx, session.User.ID, SettingsInput{PreferredModel: &model})
	assert.ErrorIs(t, err, ErrModelNotAllowed)

	model = "claude-3-5-haiku-latest"
	template := "  Keep it to three paragraphs.  "
	first := "Augusta"
	updated, err := svc.UpdateSettings(ctx, session.User.ID, SettingsInput{
		FirstName:           &first,
		PreferredModel:      &model,
		CoverLetterTemplate: &template,
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, model, updated.PreferredModel)
	assert.Equal(t, "Keep it to three paragraphs.", updated.CoverLetterTemplate)

	stored, err := svc.GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	empty := ""
	cleared, err := svc.UpdateSettings(ctx, session.User.ID, SettingsInput{PreferredModel: &empty})
	require.NoError(t, err)
	assert.Empty(t, cleared.PreferredModel)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	session := registerAda(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, session.User.ID, ChangePasswordInput{CurrentPassword: "nope", NewPassword: "difference-engine"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, ChangePasswordInput{
		CurrentPassword: "analytical-engine", NewPassword: "difference-engine",
	}))
	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "difference-engine"})
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, mailer := newTestService(t)
	registerAda(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	mail := mailer.last()
	assert.Equal(t, "Reset your password", mail.subject)
	idx := strings.Index(mail.body, "token=")
	require.Greater(t, idx, 0)
	token := strings.Fields(mail.body[idx+len("token="):])[0]

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "brand-new-secret"}))
	_, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "brand-new-secret"})
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "another-secret"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc, mailer := newTestService(t)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestUpsertFromGoogleLinksExistingAccount(t *testing.T) {
	svc, _ := newTestService(t)
	session := registerAda(t, svc)
	ctx := context.Background()

	linked, err := svc.UpsertFromGoogle(ctx, GoogleProfile{Subject: "g-1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, linked.User.ID)
	assert.Equal(t, "g-1", linked.User.GoogleSubject)

	again, err := svc.UpsertFromGoogle(ctx, GoogleProfile{Subject: "g-1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)

	created, err := svc.UpsertFromGoogle(ctx, GoogleProfile{Subject: "g-2", Email: "grace@example.com", GivenName: "Grace"})
	require.NoError(t, err)
	assert.NotEqual(t, session.User.ID, created.User.ID)
	assert.Equal(t, "Grace", created.User.FirstName)
}

func TestMemoryResetTokenExpires(t *testing.T) {
	store := NewMemoryResetTokenStore()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "user-1", time.Minute))
	now = now.Add(2 * time.Minute)
	_, err := store.Consume(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestNewRedisResetTokenStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisResetTokenStore("not a url")
	assert.Error(t, err)
	assert.Equal(t, "coverletter:pwreset:abc", resetKey("abc"))
}
