package submissions

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, resume_id, company_name, job_title, job_description, focus_areas, cover_letter, model, metadata_degraded, created_at`

func (r *PGRepo) Create(ctx context.Context, sub Submission) error {
	const query = `
INSERT INTO submissions (id, user_id, resume_id, company_name, job_title, job_description, focus_areas, cover_letter, model, metadata_degraded, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	var resumeID sql.NullString
	if sub.ResumeID != "" {
		resumeID = sql.NullString{String: sub.ResumeID, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		resumeID,
		sub.CompanyName,
		sub.JobTitle,
		sub.JobDescription,
		sub.FocusAreas,
		sub.CoverLetter,
		sub.Model,
		sub.MetadataDegraded,
		sub.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, submissionID string) (Submission, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM submissions WHERE id = $1 LIMIT 1`, submissionID)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// ListByUser lists submissions ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+selectColumns+`
FROM submissions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, submissionID string) error {
	existing, err := r.Get(ctx, submissionID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrForbidden
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1 AND user_id = $2`, submissionID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	return deleteByUser(ctx, r.DB, userID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DeleteByUserTx runs DeleteByUser inside tx.
func DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	return deleteByUser(ctx, tx, userID)
}

func deleteByUser(ctx context.Context, e execer, userID string) (int, error) {
	res, err := e.ExecContext(ctx, `DELETE FROM submissions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var resumeID sql.NullString
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&resumeID,
		&sub.CompanyName,
		&sub.JobTitle,
		&sub.JobDescription,
		&sub.FocusAreas,
		&sub.CoverLetter,
		&sub.Model,
		&sub.MetadataDegraded,
		&sub.CreatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	if resumeID.Valid {
		sub.ResumeID = resumeID.String
	}
	return sub, nil
}
