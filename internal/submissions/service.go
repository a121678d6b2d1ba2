package submissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverletter-backend/internal/shared/util"
)

type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// Record persists a new submission for userID. ID and CreatedAt are assigned here.
func (s *Service) Record(ctx context.Context, userID string, sub Submission) (Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return Submission{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	sub.ID = uuid.NewString()
	sub.UserID = userID
	sub.CreatedAt = s.now().UTC()
	if err := s.Repo.Create(ctx, sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// GetOwned returns the submission if it belongs to userID.
func (s *Service) GetOwned(ctx context.Context, userID, submissionID string) (Submission, error) {
	if strings.TrimSpace(submissionID) == "" {
		return Submission{}, fmt.Errorf("%w: submission id is required", ErrInvalidInput)
	}
	sub, err := s.Repo.Get(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if sub.UserID != userID {
		return Submission{}, ErrForbidden
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Delete(ctx context.Context, userID, submissionID string) error {
	if _, err := s.GetOwned(ctx, userID, submissionID); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, userID, submissionID)
}

// Clear deletes the caller's whole history and reports how many records went.
func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	return s.Repo.DeleteByUser(ctx, userID)
}

// DownloadName builds the attachment file name for a submission.
func DownloadName(sub Submission) string {
	company := util.FileNamePart(sub.CompanyName)
	title := util.FileNamePart(sub.JobTitle)
	parts := []string{"Cover_Letter"}
	if company != "" {
		parts = append(parts, company)
	}
	if title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, "_") + ".docx"
}
