package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"coverletter-backend/internal/shared/telemetry"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Sign(userID, email string) (string, error)
}

// Notifier delivers e-mails without blocking the caller.
type Notifier interface {
	Send(recipient, subject, body string)
}

const defaultResetTTL = time.Hour

type Service struct {
	Repo          Repo
	Hasher        PasswordHasher
	Tokens        TokenIssuer
	ResetTokens   ResetTokenStore
	Mailer        Notifier
	AllowedModels []string
	ResetURL      string
	ResetTTL      time.Duration

	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repo, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		Repo:        repo,
		Hasher:      hasher,
		Tokens:      tokens,
		ResetTokens: NewMemoryResetTokenStore(),
		ResetTTL:    defaultResetTTL,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Register creates a password account and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return Session{}, err
	}
	telemetry.Info("user.registered", map[string]any{"user_id": user.ID})

	s.notify(user.Email, "Welcome to Cover Letter Generator",
		fmt.Sprintf("Hi %s,\n\nYour account is ready. Upload a résumé and a job description to generate your first cover letter.\n", user.FirstName))

	return s.session(user)
}

// Login verifies credentials and signs the user in.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user, err := s.Repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := s.Hasher.Compare(user.PasswordHash, in.Password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateSettings applies profile changes. A preferred model must be one of
// AllowedModels; an empty value clears the preference.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (User, error) {
	if err := s.validate.Struct(in); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PreferredModel != nil {
		model := strings.TrimSpace(*in.PreferredModel)
		if model != "" && !slices.Contains(s.AllowedModels, model) {
			return User{}, ErrModelNotAllowed
		}
		user.PreferredModel = model
	}
	if in.CoverLetterTemplate != nil {
		user.CoverLetterTemplate = strings.TrimSpace(*in.CoverLetterTemplate)
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" || s.Hasher.Compare(user.PasswordHash, in.CurrentPassword) != nil {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, user, in.NewPassword)
}

// RequestPasswordReset e-mails a reset link when the address belongs to an
// account. Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := s.ResetTokens.Save(ctx, token, user.ID, s.resetTTL()); err != nil {
		return err
	}
	link, err := resetLink(s.ResetURL, token)
	if err != nil {
		return err
	}
	s.notify(user.Email, "Reset your password",
		fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in %d minutes.\n\n%s\n\nIf you did not ask for this, ignore this e-mail.\n",
			user.FirstName, int(s.resetTTL().Minutes()), link))
	telemetry.Info("user.password_reset_requested", map[string]any{"user_id": user.ID})
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	userID, err := s.ResetTokens.Consume(ctx, strings.TrimSpace(in.Token))
	if err != nil {
		return err
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	return s.setPassword(ctx, user, in.NewPassword)
}

// UpsertFromGoogle links a Google identity to an account, creating one on
// first sign-in. Accounts are matched by subject, then by e-mail.
func (s *Service) UpsertFromGoogle(ctx context.Context, profile GoogleProfile) (Session, error) {
	profile.Email = normalizeEmail(profile.Email)
	if strings.TrimSpace(profile.Subject) == "" || profile.Email == "" {
		return Session{}, fmt.Errorf("%w: google subject and email are required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByGoogleSubject(ctx, profile.Subject)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	now := s.now().UTC()
	user, err = s.Repo.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		user.GoogleSubject = profile.Subject
		user.UpdatedAt = now
		if err := s.Repo.Update(ctx, user); err != nil {
			return Session{}, err
		}
	case errors.Is(err, ErrNotFound):
		user = User{
			ID:            uuid.NewString(),
			Email:         profile.Email,
			FirstName:     profile.GivenName,
			LastName:      profile.FamilyName,
			GoogleSubject: profile.Subject,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			return Session{}, err
		}
		telemetry.Info("user.registered", map[string]any{"user_id": user.ID, "provider": "google"})
	default:
		return Session{}, err
	}
	return s.session(user)
}

func (s *Service) setPassword(ctx context.Context, user User, password string) error {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	return s.Repo.Update(ctx, user)
}

func (s *Service) session(user User) (Session, error) {
	token, err := s.Tokens.Sign(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func (s *Service) notify(recipient, subject, body string) {
	if s.Mailer == nil {
		return
	}
	s.Mailer.Send(recipient, subject, body)
}

func (s *Service) resetTTL() time.Duration {
	if s.ResetTTL <= 0 {
		return defaultResetTTL
	}
	return s.ResetTTL
}

func resetLink(base, token string) (string, error) {
	if base == "" {
		return token, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
