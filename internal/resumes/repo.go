package resumes

import "context"

// Repo persists résumés.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	// Get returns the résumé regardless of owner; callers check UserID.
	Get(ctx context.Context, resumeID string) (Resume, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error)
	Delete(ctx context.Context, userID, resumeID string) error
	DeleteByUser(ctx context.Context, userID string) ([]Resume, error)
}
