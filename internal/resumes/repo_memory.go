package resumes

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	data     map[string]Resume
	owners   func(ctx context.Context, userID string) (bool, error)
	onDelete func(ctx context.Context, resumeID string)
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Resume)}
}

// RequireOwner makes Create reject résumés whose user is gone.
func (r *MemoryRepo) RequireOwner(check func(ctx context.Context, userID string) (bool, error)) *MemoryRepo {
	r.owners = check
	return r
}

// OnDelete registers a hook run for every removed résumé while the repo lock
// is held. Postgres gets the same effect from ON DELETE SET NULL.
func (r *MemoryRepo) OnDelete(fn func(ctx context.Context, resumeID string)) *MemoryRepo {
	r.onDelete = fn
	return r
}

func (r *MemoryRepo) Create(ctx context.Context, resume Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners != nil {
		ok, err := r.owners(ctx, resume.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrOwnerMissing, resume.UserID)
		}
	}
	r.data[resume.ID] = resume
	return nil
}

func (r *MemoryRepo) removed(ctx context.Context, resumeID string) {
	if r.onDelete != nil {
		r.onDelete(ctx, resumeID)
	}
}

func (r *MemoryRepo) Get(ctx context.Context, resumeID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.data[resumeID]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return resume, nil
}

// ListByUser returns résumés for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	out := make([]Resume, 0)
	for _, resume := range r.data {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Resume{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[resumeID]
	if !ok {
		return ErrNotFound
	}
	if resume.UserID != userID {
		return ErrForbidden
	}
	delete(r.data, resumeID)
	r.removed(ctx, resumeID)
	return nil
}

// DeleteByUser removes every résumé owned by userID and returns them.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []Resume
	for id, resume := range r.data {
		if resume.UserID == userID {
			removed = append(removed, resume)
			delete(r.data, id)
			r.removed(ctx, id)
		}
	}
	return removed, nil
}
