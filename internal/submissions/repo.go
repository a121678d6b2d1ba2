package submissions

import "context"

// Repo persists submissions.
type Repo interface {
	Create(ctx context.Context, sub Submission) error
	Get(ctx context.Context, submissionID string) (Submission, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error)
	Delete(ctx context.Context, userID, submissionID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
