package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverletter-backend/internal/shared/storage/object"
	"coverletter-backend/internal/shared/telemetry"
)

type Service struct {
	Repo    Repo
	Objects object.ObjectStore
	now     func() time.Time
}

func NewService(repo Repo, objects object.ObjectStore) *Service {
	return &Service{Repo: repo, Objects: objects, now: time.Now}
}

// Save stores the original upload and its extracted text as one résumé.
func (s *Service) Save(ctx context.Context, userID, fileName, mimeType string, data []byte, text string) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(fileName) == "" {
		return Resume{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	resume := Resume{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Content:   text,
		CreatedAt: s.now().UTC(),
	}

	if s.Objects != nil {
		key, size, sniffed, err := s.Objects.Save(ctx, userID, fileName, bytes.NewReader(data))
		if err != nil {
			return Resume{}, fmt.Errorf("store resume file: %w", err)
		}
		resume.StorageKey = key
		resume.SizeBytes = size
		if resume.MimeType == "" {
			resume.MimeType = sniffed
		}
	}

	if err := s.Repo.Create(ctx, resume); err != nil {
		s.removeObject(ctx, resume.StorageKey)
		return Resume{}, err
	}
	return resume, nil
}

// GetOwned returns the résumé if it belongs to userID.
func (s *Service) GetOwned(ctx context.Context, userID, resumeID string) (Resume, error) {
	if strings.TrimSpace(resumeID) == "" {
		return Resume{}, fmt.Errorf("%w: resume id is required", ErrInvalidInput)
	}
	resume, err := s.Repo.Get(ctx, resumeID)
	if err != nil {
		return Resume{}, err
	}
	if resume.UserID != userID {
		return Resume{}, ErrForbidden
	}
	return resume, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes the résumé record and its stored file.
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	resume, err := s.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, resumeID); err != nil {
		return err
	}
	s.removeObject(ctx, resume.StorageKey)
	return nil
}

// RemoveFiles deletes stored files for résumés whose records are already gone.
func (s *Service) RemoveFiles(ctx context.Context, removed []Resume) {
	for _, r := range removed {
		s.removeObject(ctx, r.StorageKey)
	}
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if s.Objects == nil || key == "" {
		return
	}
	if err := s.Objects.Delete(ctx, key); err != nil && !errors.Is(err, context.Canceled) {
		telemetry.Warn("resume.object_delete_failed", map[string]any{"storage_key": key, "error": err})
	}
}
