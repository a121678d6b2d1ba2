package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"coverletter-backend/internal/resumes"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/submissions"
	"coverletter-backend/internal/users"
)

// FileRemover deletes stored résumé files after their records are gone.
type FileRemover interface {
	RemoveFiles(ctx context.Context, removed []resumes.Resume)
}

type Service struct {
	Users       users.Repo
	Resumes     resumes.Repo
	Submissions submissions.Repo
	Files       FileRemover
}

type DeleteResult struct {
	DeletedResumes     int `json:"deletedResumes"`
	DeletedSubmissions int `json:"deletedSubmissions"`
}

func NewService(userRepo users.Repo, resumeRepo resumes.Repo, submissionRepo submissions.Repo, files FileRemover) *Service {
	return &Service{Users: userRepo, Resumes: resumeRepo, Submissions: submissionRepo, Files: files}
}

// DeleteAccount removes the user with every résumé and submission they own.
// With Postgres repos all rows go in one transaction.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (DeleteResult, error) {
	if strings.TrimSpace(userID) == "" {
		return DeleteResult{}, errors.New("userID is required")
	}

	var (
		removed []resumes.Resume
		result  DeleteResult
		err     error
	)
	if db := sharedDB(s.Users, s.Resumes, s.Submissions); db != nil {
		removed, result, err = deleteWithTx(ctx, db, userID)
	} else {
		removed, result, err = s.deleteSequential(ctx, userID)
	}
	if err != nil {
		return DeleteResult{}, err
	}

	if s.Files != nil {
		s.Files.RemoveFiles(ctx, removed)
	}
	telemetry.Info("account.deleted", map[string]any{
		"user_id":             userID,
		"deleted_resumes":     result.DeletedResumes,
		"deleted_submissions": result.DeletedSubmissions,
	})
	return result, nil
}

func sharedDB(userRepo users.Repo, resumeRepo resumes.Repo, submissionRepo submissions.Repo) *sql.DB {
	userPG, ok := userRepo.(*users.PGRepo)
	if !ok || userPG == nil || userPG.DB == nil {
		return nil
	}
	if resumePG, ok := resumeRepo.(*resumes.PGRepo); !ok || resumePG == nil || resumePG.DB == nil {
		return nil
	}
	if subPG, ok := submissionRepo.(*submissions.PGRepo); !ok || subPG == nil || subPG.DB == nil {
		return nil
	}
	return userPG.DB
}

func deleteWithTx(ctx context.Context, db *sql.DB, userID string) ([]resumes.Resume, DeleteResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	defer tx.Rollback()

	subCount, err := submissions.DeleteByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	removed, err := resumes.DeleteByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, DeleteResult{}, users.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, DeleteResult{}, err
	}
	return removed, DeleteResult{DeletedResumes: len(removed), DeletedSubmissions: subCount}, nil
}

// deleteSequential removes the user first so memory repos that check the
// owner on Create stop accepting rows, then sweeps what was already written.
func (s *Service) deleteSequential(ctx context.Context, userID string) ([]resumes.Resume, DeleteResult, error) {
	if err := s.Users.Delete(ctx, userID); err != nil {
		return nil, DeleteResult{}, err
	}
	subCount, err := s.Submissions.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	removed, err := s.Resumes.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, DeleteResult{}, err
	}
	return removed, DeleteResult{DeletedResumes: len(removed), DeletedSubmissions: subCount}, nil
}
