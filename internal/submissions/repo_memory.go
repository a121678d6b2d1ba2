package submissions

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// OwnerCheck reports whether userID still has an account.
type OwnerCheck func(ctx context.Context, userID string) (bool, error)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	data   map[string]Submission
	owners OwnerCheck
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Submission)}
}

// RequireOwner makes Create reject submissions whose user is gone, matching
// the users foreign key in Postgres.
func (r *MemoryRepo) RequireOwner(check OwnerCheck) *MemoryRepo {
	r.owners = check
	return r
}

func (r *MemoryRepo) Create(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners != nil {
		ok, err := r.owners(ctx, sub.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrOwnerMissing, sub.UserID)
		}
	}
	r.data[sub.ID] = sub
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, submissionID string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.data[submissionID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

// ListByUser returns submissions for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	out := make([]Submission, 0)
	for _, sub := range r.data {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Submission{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, submissionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.data[submissionID]
	if !ok {
		return ErrNotFound
	}
	if sub.UserID != userID {
		return ErrForbidden
	}
	delete(r.data, submissionID)
	return nil
}

func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, sub := range r.data {
		if sub.UserID == userID {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

// DetachResume clears references to a deleted résumé, like ON DELETE SET NULL.
func (r *MemoryRepo) DetachResume(ctx context.Context, resumeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.data {
		if sub.ResumeID == resumeID {
			sub.ResumeID = ""
			r.data[id] = sub
		}
	}
}
